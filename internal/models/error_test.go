package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthError_IsMatchesByCode(t *testing.T) {
	lockedWithContext := NewAccountLockedError(12)

	assert.True(t, errors.Is(lockedWithContext, ErrAccountLocked))
	assert.False(t, errors.Is(lockedWithContext, ErrInvalidCredentials))
	assert.Equal(t, 12, lockedWithContext.Context["remaining_minutes"])
}

func TestAuthError_DistinctCodes(t *testing.T) {
	assert.False(t, errors.Is(ErrTokenExpired, ErrInvalidToken))
	assert.False(t, errors.Is(ErrInvalidToken, ErrTokenExpired))
	assert.True(t, errors.Is(ErrInvalidToken, ErrInvalidToken))
}
