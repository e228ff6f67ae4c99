// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/krishiauth/internal/dbx"
	"github.com/dmitrijs2005/krishiauth/internal/server/migrations"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS and dialect in package globals.
var gooseSetup sync.Once

// RunMigrations applies the embedded migrations. Every statement is
// idempotent, so running it on each pool initialisation is safe.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	var setupErr error
	gooseSetup.Do(func() {
		goose.SetBaseFS(migrations.Migrations)
		setupErr = goose.SetDialect("pgx")
	})
	if setupErr != nil {
		return setupErr
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
