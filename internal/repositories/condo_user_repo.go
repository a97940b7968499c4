package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// CondoUserRepository reads and updates tenant-realm accounts. Each
// condominium keeps its own users table in a dedicated schema; the schema
// is taken from the request context set by the condominium auth flow.
type CondoUserRepository struct {
	db *database.DB
}

func NewCondoUserRepository(db *database.DB) *CondoUserRepository {
	return &CondoUserRepository{db: db}
}

// schemaFrom resolves the condominium schema for the current request. The
// schema name is interpolated into queries, so it must pass validation.
func (r *CondoUserRepository) schemaFrom(ctx context.Context) (string, error) {
	schema := database.TenantSchemaFromContext(ctx)
	if schema == "" || !database.ValidTenantSchema(schema) {
		return "", models.ErrBadRequest
	}
	return schema, nil
}

func (r *CondoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	schema, err := r.schemaFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %q.users WHERE email = $1`, userColumns, schema)
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *CondoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	schema, err := r.schemaFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %q.users WHERE id = $1`, userColumns, schema)
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *CondoUserRepository) UpdateLoginAttempts(ctx context.Context, user *models.User) error {
	schema, err := r.schemaFrom(ctx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %q.users
		SET failed_login_attempts = $2, locked_until = $3, last_login_at = $4, updated_at = $5
		WHERE id = $1`, schema)

	_, err = r.db.Pool.Exec(ctx, query,
		user.ID,
		user.FailedLoginAttempts,
		user.LockedUntil,
		user.LastLoginAt,
		time.Now().UTC(),
	)
	return database.MapPostgresError(err)
}

func (r *CondoUserRepository) UpdateMFA(ctx context.Context, user *models.User) error {
	schema, err := r.schemaFrom(ctx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %q.users
		SET mfa_enabled = $2, mfa_secret = $3, updated_at = $4
		WHERE id = $1`, schema)

	_, err = r.db.Pool.Exec(ctx, query,
		user.ID,
		user.MFAEnabled,
		user.MFASecret,
		time.Now().UTC(),
	)
	return database.MapPostgresError(err)
}
