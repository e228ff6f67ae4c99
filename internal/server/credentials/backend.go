package credentials

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/krishiauth/internal/dbx"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/users"
)

// Backend runs fn against the durable users repository. Connectivity
// failures are reported as common.ErrStoreUnavailable.
type Backend interface {
	Do(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error
}

// ConnProvider hands out a pooled connection for the duration of fn.
// *pool.Manager implements it.
type ConnProvider interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error
}

// PoolBackend runs each call in one transaction on one pooled connection.
type PoolBackend struct {
	conns ConnProvider
	repos repomanager.RepositoryManager
}

func NewPoolBackend(conns ConnProvider, repos repomanager.RepositoryManager) *PoolBackend {
	return &PoolBackend{conns: conns, repos: repos}
}

func (b *PoolBackend) Do(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	return b.conns.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(ctx, b.repos.Users(tx))
		})
	})
}
