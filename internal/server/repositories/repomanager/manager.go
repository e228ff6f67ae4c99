package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/krishiauth/internal/dbx"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (pool, pinned
// connection or transaction) and owns the schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
