package repositories

import (
	"context"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// RefreshTokenRepository is the rotation ledger. Every issued refresh token
// is recorded here by digest, and rotation walks the parent_id lineage.
type RefreshTokenRepository struct {
	db *database.DB
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Store(ctx context.Context, record *models.RefreshTokenRecord) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, parent_id, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.TokenHash,
		record.ParentID,
		record.ExpiresAt,
		record.IPAddress,
		record.UserAgent,
		record.CreatedAt,
	)
	return database.MapPostgresError(err)
}

func (r *RefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	query := `
		SELECT id, user_id, token_hash, parent_id, expires_at, used_at, revoked_at, ip_address, user_agent, created_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var record models.RefreshTokenRecord
	err := r.db.Pool.QueryRow(ctx, query, tokenHash).Scan(
		&record.ID,
		&record.UserID,
		&record.TokenHash,
		&record.ParentID,
		&record.ExpiresAt,
		&record.UsedAt,
		&record.RevokedAt,
		&record.IPAddress,
		&record.UserAgent,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &record, nil
}

// MarkAsUsed consumes a token exactly once. The used_at IS NULL guard makes
// concurrent rotations of the same token race safely: the loser sees zero
// rows affected and gets ErrConflict, which the caller treats as a replay.
func (r *RefreshTokenRepository) MarkAsUsed(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE refresh_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`

	tag, err := r.db.Pool.Exec(ctx, query, id, usedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

// RevokeChain revokes every token in the rotation lineage of the given
// token, walking parent_id links in both directions.
func (r *RefreshTokenRepository) RevokeChain(ctx context.Context, id string, revokedAt time.Time) error {
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id FROM refresh_tokens WHERE id = $1
			UNION
			SELECT rt.id, rt.parent_id
			FROM refresh_tokens rt
			JOIN chain c ON rt.parent_id = c.id OR rt.id = c.parent_id
		)
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE id IN (SELECT id FROM chain) AND revoked_at IS NULL`

	_, err := r.db.Pool.Exec(ctx, query, id, revokedAt)
	return database.MapPostgresError(err)
}

// RevokeAllForUser ends every active session of a user, used on logout-all
// and administrative disable.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) error {
	query := `UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`

	_, err := r.db.Pool.Exec(ctx, query, userID, revokedAt)
	return database.MapPostgresError(err)
}

// DeleteExpired prunes ledger rows whose tokens can never be presented
// again. Rows are kept for a grace window after expiry so replay attempts
// against recently expired tokens still hit the lineage. A pruned parent
// detaches its surviving children (ON DELETE SET NULL), since a child
// always outlives its parent the cutoff can land inside a chain.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	tag, err := r.db.Pool.Exec(ctx, query, before)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
