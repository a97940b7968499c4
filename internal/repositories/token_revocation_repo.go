package repositories

import (
	"context"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
)

// TokenRevocationRepository is the access-token denylist. Logout records the
// token's JTI until its natural expiry; the auth middleware checks it on
// every authenticated request.
type TokenRevocationRepository struct {
	db *database.DB
}

func NewTokenRevocationRepository(db *database.DB) *TokenRevocationRepository {
	return &TokenRevocationRepository{db: db}
}

func (r *TokenRevocationRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (jti, expires_at, revoked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING`

	_, err := r.db.Pool.Exec(ctx, query, jti, expiresAt, time.Now().UTC())
	return database.MapPostgresError(err)
}

// IsRevoked ignores rows past their expiry; those tokens are already dead
// and the row only awaits cleanup.
func (r *TokenRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > now())`

	var revoked bool
	if err := r.db.Pool.QueryRow(ctx, query, jti).Scan(&revoked); err != nil {
		return false, database.MapPostgresError(err)
	}
	return revoked, nil
}

func (r *TokenRevocationRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < now()`

	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
