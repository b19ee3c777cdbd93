package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/bike-resale-api/internal/infrastructure/jwt"
)

type contextKey string

const (
	ClaimsKey  contextKey = "claims"
	callerSlot contextKey = "caller_slot"
)

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer JWT and injects claims into context.
func Auth(provider tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "No token provided")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := provider.Verify(tokenStr)
			if err != nil || claims.UserID() == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if slot, ok := r.Context().Value(callerSlot).(*string); ok {
				*slot = claims.UserID()
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}

// CallerID returns the authenticated user id, or "" for anonymous requests.
func CallerID(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.UserID()
	}
	return ""
}

// withCallerSlot lets an outer middleware learn the caller id that Auth
// resolves further down the chain.
func withCallerSlot(ctx context.Context, slot *string) context.Context {
	return context.WithValue(ctx, callerSlot, slot)
}
