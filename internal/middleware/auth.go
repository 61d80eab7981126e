package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/auth"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/services"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier is satisfied by *auth.TokenIssuer.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the verified claims on the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				services.SendErrorResponse(w, "Invalid authorization header format", http.StatusUnauthorized, nil)
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				log.Printf("[AUTH] Token rejected from %s: %v", r.RemoteAddr, err)
				services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims AuthMiddleware attached, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// Caller returns the caller's identity and whether it is an administrator.
func Caller(ctx context.Context) (identity string, isAdmin bool, ok bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false, false
	}
	return claims.Subject, claims.IsAdmin(), true
}
