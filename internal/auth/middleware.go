package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// ClaimsContextKey is the key for storing token claims in context
	ClaimsContextKey contextKey = "claims"
	// TokenContextKey is the key for storing the raw bearer token in context
	TokenContextKey contextKey = "token"
)

// RevocationChecker is the read side of the token denylist, consulted on
// every authenticated request.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationConfig holds configuration for denylist lookup failures
type RevocationConfig struct {
	FailClosed bool // deny access when the denylist cannot be reached
}

// Middleware validates bearer tokens, rejects MFA step-up tokens outside
// the verification endpoint, checks the denylist, and injects claims into
// the request context.
func Middleware(tm *TokenManager, checker RevocationChecker, cfg RevocationConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]

			claims, err := tm.Validate(tokenString)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			// MFA step-up tokens are only good for /auth/mfa/verify
			if claims.Type != models.TokenTypeAccess {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			if checker != nil && claims.ID != "" {
				revoked, err := checker.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					if cfg.FailClosed {
						http.Error(w, "unable to verify token status", http.StatusServiceUnavailable)
						return
					}
					// Fail open on lookup errors; invalid tokens were
					// already rejected above.
				}
				if revoked {
					http.Error(w, "token has been revoked", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts token claims from the request context.
func ClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// TokenFromContext extracts the raw bearer token from the request context.
func TokenFromContext(r *http.Request) string {
	token, ok := r.Context().Value(TokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
