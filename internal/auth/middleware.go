package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/diewo77/impacttracker/internal/httpx"
)

// UserVerifier validates that a token's user still exists. Set during app
// bootstrap; a nil verifier skips the check.
type UserVerifier func(ctx context.Context, uid uint) bool

// Middleware returns the auth middleware: it resolves a Bearer token into an
// actor and rejects the request with 401 before any role evaluation when the
// token is missing, invalid or refers to a deleted user.
func Middleware(tokens *Tokens, verifier UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpx.JSONError(w, http.StatusUnauthorized, "authentication_required", nil)
				return
			}
			actor, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
				return
			}
			if verifier != nil && !verifier(r.Context(), actor.ID) {
				httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
