package services

import "errors"

// Sentinel errors forming the operation failure taxonomy. Handlers translate
// each kind to a distinct HTTP status via httpx.WriteError.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrAccessDenied    = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("datastore unavailable")
)

// ValidationError carries the per-field violations alongside the sentinel so
// callers can both errors.Is(err, ErrValidation) and surface details.
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

// Unwrap makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Unwrap() error { return ErrValidation }
