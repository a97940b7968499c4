package repositories

import (
	"context"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// CondominiumRepository resolves condominium directory entries from the
// shared public schema.
type CondominiumRepository struct {
	db *database.DB
}

func NewCondominiumRepository(db *database.DB) *CondominiumRepository {
	return &CondominiumRepository{db: db}
}

func (r *CondominiumRepository) GetBySlug(ctx context.Context, slug string) (*models.Condominium, error) {
	query := `
		SELECT id, slug, name, status, schema_name, created_at, updated_at
		FROM condominiums
		WHERE slug = $1`

	var condo models.Condominium
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(
		&condo.ID,
		&condo.Slug,
		&condo.Name,
		&condo.Status,
		&condo.SchemaName,
		&condo.CreatedAt,
		&condo.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &condo, nil
}
