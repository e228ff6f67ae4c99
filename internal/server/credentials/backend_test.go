package credentials

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/pool"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/users"
)

const (
	selectUser = `SELECT id, username, password_hash, created_at FROM users`
	insertUser = `INSERT INTO users`
)

func newMockManager(t *testing.T, db *sql.DB) *pool.Manager {
	t.Helper()
	return pool.NewManager(
		pool.Settings{Database: "krishi_ai", MaxConns: 2, AcquireTimeout: time.Second},
		pool.WithOpener(func(ctx context.Context, dsn string) (*sql.DB, error) { return db, nil }),
	)
}

func TestPoolBackend_RegisterRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectUser).WithArgs("meera").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUser).
		WithArgs("meera", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("1", time.Now()))
	mock.ExpectCommit()

	backend := NewPoolBackend(newMockManager(t, db), repomanager.NewPostgresRepositoryManager())
	s, err := NewStore(backend, users.NewMemoryRepository(), fastHasher(t), logging.Nop{})
	require.NoError(t, err)

	res, err := s.Register(context.Background(), "meera", "pw")
	require.NoError(t, err)
	assert.Equal(t, SourceDurable, res.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolBackend_DuplicateRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectUser).WithArgs("meera").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow("1", "meera", "$2a$04$x", time.Now()))
	mock.ExpectRollback()

	backend := NewPoolBackend(newMockManager(t, db), repomanager.NewPostgresRepositoryManager())
	s, err := NewStore(backend, users.NewMemoryRepository(), fastHasher(t), logging.Nop{})
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "meera", "pw")
	assert.ErrorIs(t, err, common.ErrUserAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolBackend_ConnectionLossFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectUser).WithArgs("meera").
		WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")})
	mock.ExpectRollback()

	fallback := users.NewMemoryRepository()
	backend := NewPoolBackend(newMockManager(t, db), repomanager.NewPostgresRepositoryManager())
	s, err := NewStore(backend, fallback, fastHasher(t), logging.Nop{})
	require.NoError(t, err)

	res, err := s.Register(context.Background(), "meera", "pw")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 1, fallback.Len())
}

func TestPoolBackend_UnreachablePoolFallsBack(t *testing.T) {
	m := pool.NewManager(
		pool.Settings{Database: "krishi_ai"},
		pool.WithOpener(func(ctx context.Context, dsn string) (*sql.DB, error) {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}),
	)

	fallback := users.NewMemoryRepository()
	s, err := NewStore(NewPoolBackend(m, repomanager.NewPostgresRepositoryManager()), fallback, fastHasher(t), logging.Nop{})
	require.NoError(t, err)

	res, err := s.Register(context.Background(), "offline", "pw")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, pool.Uninitialized, m.State())
}
