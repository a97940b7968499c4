package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RefreshSecretBytes is the entropy of a refresh secret: 256 bits.
const RefreshSecretBytes = 32

// GenerateRefreshSecret produces a fresh refresh secret and its storage
// digest. The raw secret (64 lowercase hex chars) goes to the client once;
// only the digest is persisted. The hash is unsalted: uniqueness comes from
// the secret's entropy.
func GenerateRefreshSecret() (raw string, digest string, err error) {
	buf := make([]byte, RefreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	raw = hex.EncodeToString(buf)
	return raw, HashRefreshSecret(raw), nil
}

// HashRefreshSecret returns the SHA-256 digest of a raw refresh secret as
// 64 lowercase hex chars, the form used for ledger lookups.
func HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
