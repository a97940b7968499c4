package auth

import (
	"fmt"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenManager signs and validates the platform's JWTs. Claim construction
// lives in models.NewTokenClaims; the manager only handles the signature.
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Issue signs the given claims and returns the compact token string.
func (tm *TokenManager) Issue(claims *models.TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a token's signature and expiry and returns its claims.
// Any parse, signature, or expiry failure maps to the generic invalid-token
// error so callers cannot distinguish the conditions.
func (tm *TokenManager) Validate(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuedAt())

	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.Type == "" {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}

// RemainingLifetime returns how long the claims are still valid at now,
// clamped to zero. Used to bound denylist entry TTLs.
func RemainingLifetime(claims *models.TokenClaims, now time.Time) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
