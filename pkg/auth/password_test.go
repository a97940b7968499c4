package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := &BcryptHasher{cost: 4} // minimum cost keeps the test fast

	hash, err := h.Hash("CorrectHorseBatteryStaple1!")
	require.NoError(t, err)
	assert.NotEqual(t, "CorrectHorseBatteryStaple1!", hash)

	assert.True(t, h.Verify("CorrectHorseBatteryStaple1!", hash))
	assert.False(t, h.Verify("wrong-password", hash))
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	h := NewBcryptHasher()

	_, err := h.Hash("")
	assert.Error(t, err)
}

func TestBcryptHasher_VerifyAgainstGarbageHash(t *testing.T) {
	h := NewBcryptHasher()

	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
}
