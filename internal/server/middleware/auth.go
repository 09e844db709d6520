// Package middleware holds the HTTP middleware for the gateway.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"stepup-auth-gateway/internal/security"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenValidator validates an access token and returns the identity it carries.
type TokenValidator interface {
	ValidateAccess(token string) (*security.Identity, error)
}

// Auth extracts and validates the Bearer token, attaching the verified
// identity to the request context. Requests without a valid token get 401.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			id, err := validator.ValidateAccess(token)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the identity attached by Auth, or nil.
func IdentityFrom(ctx context.Context) *security.Identity {
	id, _ := ctx.Value(identityKey).(*security.Identity)
	return id
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","status":401}`))
}
