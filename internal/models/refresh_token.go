package models

import "time"

// RefreshTokenRecord is one link of a rotation chain. Only the SHA-256
// digest of the refresh secret is ever stored; the raw secret is returned
// to the client exactly once. Records are never deleted, only marked used
// or revoked, so the ledger doubles as an audit trail.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	ParentID  *string // record this one replaced; nil at the chain root
	ExpiresAt time.Time
	UsedAt    *time.Time // set exactly once, on rotation
	RevokedAt *time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// IsExpired reports whether the record's lifetime has elapsed at now.
func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// IsConsumable reports whether the record can still be rotated: never used,
// never revoked, not expired.
func (r *RefreshTokenRecord) IsConsumable(now time.Time) bool {
	return r.UsedAt == nil && r.RevokedAt == nil && !r.IsExpired(now)
}
