// Package handlers translates HTTP requests into engine calls and maps
// results back to JSON. Authentication and role resolution happen before
// these handlers run; they only read the actor from the request context.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diewo77/impacttracker/internal/auth"
	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/policy"
)

// actorFrom extracts the authenticated actor or writes a 401.
func actorFrom(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication_required", nil)
		return policy.Actor{}, false
	}
	return actor, true
}

// urlID parses a positive integer URL parameter or writes a 400.
func urlID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}
