// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/trackshare/internal/dbx"
	"github.com/dmitrijs2005/trackshare/internal/server/migrations"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/edges"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/tracks"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes the schema migration hooks.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Tracks returns a tracks.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Tracks(db dbx.DBTX) tracks.Repository {
	return tracks.NewPostgresRepository(db)
}

// Likes returns the user→track edge repository.
func (m *PostgresRepositoryManager) Likes(db dbx.DBTX) edges.Repository {
	return edges.NewPostgresRepository(db, edges.Likes)
}

// Follows returns the user→user edge repository.
func (m *PostgresRepositoryManager) Follows(db dbx.DBTX) edges.Repository {
	return edges.NewPostgresRepository(db, edges.Follows)
}

// Seams for testing goose without a database.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseVersion = goose.GetDBVersionContext
)

func setupGoose() error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.SetDialect("pgx")
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// MigrationVersion reports the schema version currently applied.
func (m *PostgresRepositoryManager) MigrationVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}
	return gooseVersion(ctx, db)
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
