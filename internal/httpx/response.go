package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diewo77/impacttracker/internal/services"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// Marshal before WriteHeader so an encoding failure never
			// leaves a truncated body behind a 200.
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// The status line is already on the wire; the write error has
		// nowhere useful to go.
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// WriteError maps a service-layer error to its HTTP status. Each taxonomy
// kind gets a distinct code; anything unrecognized is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
	case errors.Is(err, services.ErrValidation):
		JSONError(w, http.StatusBadRequest, "validation_failed", nil)
	case errors.Is(err, services.ErrUnauthenticated):
		JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, services.ErrAccessDenied):
		JSONError(w, http.StatusForbidden, "access_denied", nil)
	case errors.Is(err, services.ErrNotFound):
		JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrConflict):
		JSONError(w, http.StatusConflict, "conflict", nil)
	case errors.Is(err, services.ErrUnavailable):
		JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
	default:
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
