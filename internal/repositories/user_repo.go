package repositories

import (
	"context"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, role, status, mfa_enabled, mfa_secret,
	failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

// UserRepository reads and updates platform-realm accounts in the shared
// public schema.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUserRow(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.MFAEnabled,
		&user.MFASecret,
		&user.FailedLoginAttempts,
		&user.LockedUntil,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

// UpdateLoginAttempts persists the lockout counters after a failed or
// successful credential check.
func (r *UserRepository) UpdateLoginAttempts(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET failed_login_attempts = $2, locked_until = $3, last_login_at = $4, updated_at = $5
		WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.FailedLoginAttempts,
		user.LockedUntil,
		user.LastLoginAt,
		time.Now().UTC(),
	)
	return database.MapPostgresError(err)
}

// UpdateMFA persists the TOTP secret and enablement flag.
func (r *UserRepository) UpdateMFA(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET mfa_enabled = $2, mfa_secret = $3, updated_at = $4
		WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.MFAEnabled,
		user.MFASecret,
		time.Now().UTC(),
	)
	return database.MapPostgresError(err)
}
