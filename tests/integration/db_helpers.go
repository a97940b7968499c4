package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/database"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database handles
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL container and runs the migrations
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("condo_events"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"refresh_tokens",
		"revoked_tokens",
		"condominiums",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return db.dropTenantSchemas(ctx)
}

// dropTenantSchemas removes schemas created by SeedCondominium so tests can
// reseed the same condominium from scratch.
func (db *TestDB) dropTenantSchemas(ctx context.Context) error {
	rows, err := db.Pool.Query(ctx, `SELECT nspname FROM pg_namespace WHERE nspname LIKE 'condo\_%'`)
	if err != nil {
		return fmt.Errorf("failed to list tenant schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan schema name: %w", err)
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate tenant schemas: %w", err)
	}

	for _, schema := range schemas {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %q CASCADE", schema)); err != nil {
			return fmt.Errorf("failed to drop schema %s: %w", schema, err)
		}
	}

	return nil
}

// SeedUser inserts a platform user with a bcrypt-hashed password
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.User, error) {
	hasher := auth.NewBcryptHasher()
	hashed, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, role, status)
		VALUES ($1, $2, 'platform_admin', 'active')
		RETURNING id, email, password_hash, role, status, mfa_enabled, failed_login_attempts, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, email, hashed).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.MFAEnabled,
		&user.FailedLoginAttempts,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedCondominium creates a condominium directory entry plus its tenant
// schema with a users table mirroring the platform shape.
func SeedCondominium(ctx context.Context, pool *pgxpool.Pool, slug, schemaName string) (*models.Condominium, error) {
	query := `
		INSERT INTO condominiums (slug, name, status, schema_name)
		VALUES ($1, $1, 'active', $2)
		RETURNING id, slug, name, status, schema_name, created_at, updated_at
	`

	var condo models.Condominium
	err := pool.QueryRow(ctx, query, slug, schemaName).Scan(
		&condo.ID,
		&condo.Slug,
		&condo.Name,
		&condo.Status,
		&condo.SchemaName,
		&condo.CreatedAt,
		&condo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert condominium: %w", err)
	}

	schemaSQL := fmt.Sprintf(`
		CREATE SCHEMA %q;
		CREATE TABLE %q.users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'resident',
			status TEXT NOT NULL DEFAULT 'active',
			mfa_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			mfa_secret TEXT,
			failed_login_attempts INTEGER NOT NULL DEFAULT 0,
			locked_until TIMESTAMPTZ,
			last_login_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, schemaName, schemaName)
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to create tenant schema: %w", err)
	}

	return &condo, nil
}

// SeedCondoUser inserts a user into a condominium's schema
func SeedCondoUser(ctx context.Context, pool *pgxpool.Pool, schemaName, email, password string) (string, error) {
	hasher := auth.NewBcryptHasher()
	hashed, err := hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %q.users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, schemaName)

	var id string
	if err := pool.QueryRow(ctx, query, email, hashed).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert condo user: %w", err)
	}

	return id, nil
}
