package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is a closed set: each type fixes the token's lifetime and the
// prefix of its JTI.
type TokenType string

const (
	TokenTypeAccess      TokenType = "access"
	TokenTypeMFARequired TokenType = "mfa_required"
)

// TTL returns the lifetime for tokens of this type.
func (t TokenType) TTL() time.Duration {
	if t == TokenTypeMFARequired {
		return 5 * time.Minute
	}
	return 15 * time.Minute
}

// JTIPrefix returns the fixed ASCII prefix of this type's token IDs.
func (t TokenType) JTIPrefix() string {
	if t == TokenTypeMFARequired {
		return "mfa_"
	}
	return "tok_"
}

// TokenClaims is the payload asserted by a signed token. TenantID is nil in
// the platform realm.
type TokenClaims struct {
	Type     TokenType `json:"typ"`
	TenantID *string   `json:"tid,omitempty"`
	Roles    []string  `json:"roles"`
	jwt.RegisteredClaims
}

// NewTokenClaims builds a fresh claim set. TTL and JTI prefix follow from
// the type; an unknown type is a programmer error and gets access defaults.
func NewTokenClaims(tokenType TokenType, userID string, tenantID *string, roles []string, now time.Time) *TokenClaims {
	return &TokenClaims{
		Type:     tokenType,
		TenantID: tenantID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenType.JTIPrefix() + uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenType.TTL())),
		},
	}
}
