// Package pool owns the lazily created connection pool of the durable
// credential store. The first caller creates the pool, and the target
// database itself when Postgres reports it missing. Concurrent callers share
// one creation attempt; after a connectivity failure callers fail fast with
// common.ErrStoreUnavailable until the retry cooldown has passed.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/metrics"
)

// DefaultRetryCooldown is how long a connectivity failure is reported
// without a new connect attempt.
const DefaultRetryCooldown = time.Second

type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Opener opens and verifies a *sql.DB for dsn.
type Opener func(ctx context.Context, dsn string) (*sql.DB, error)

// InitHook runs once against a freshly opened pool, before it is published.
type InitHook func(ctx context.Context, db *sql.DB) error

// OpenPgx opens dsn with the pgx stdlib driver and pings it, so a missing
// database surfaces here rather than on first use.
func OpenPgx(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type Option func(*Manager)

func WithOpener(o Opener) Option {
	return func(m *Manager) { m.open = o }
}

func WithInitHook(h InitHook) Option {
	return func(m *Manager) { m.onReady = h }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRetryCooldown overrides DefaultRetryCooldown. Zero disables it.
func WithRetryCooldown(d time.Duration) Option {
	return func(m *Manager) { m.cooldown = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager creates the pool on first use. It is safe for concurrent use.
type Manager struct {
	settings Settings
	open     Opener
	onReady  InitHook
	logger   logging.Logger
	cooldown time.Duration
	now      func() time.Time

	inflight singleflight.Group
	state    atomic.Int32

	mu       sync.Mutex
	db       *sql.DB
	lastErr  error
	failedAt time.Time
}

func NewManager(settings Settings, opts ...Option) *Manager {
	m := &Manager{
		settings: settings,
		open:     OpenPgx,
		logger:   logging.Nop{},
		cooldown: DefaultRetryCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("module", "pool")
	return m
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Initialize creates the pool if it does not exist yet. Concurrent callers
// share one attempt; a failed attempt leaves the manager Uninitialized.
func (m *Manager) Initialize(ctx context.Context) error {
	_, err := m.pool(ctx)
	return err
}

func (m *Manager) pool(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	db, lastErr, failedAt := m.db, m.lastErr, m.failedAt
	m.mu.Unlock()

	if db != nil {
		return db, nil
	}
	if lastErr != nil && m.now().Sub(failedAt) < m.cooldown {
		return nil, lastErr
	}

	// The attempt outlives the caller that started it; connect_timeout
	// bounds it instead.
	ch := m.inflight.DoChan("init", func() (any, error) {
		return m.initialize(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) initialize(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	if m.db != nil {
		db := m.db
		m.mu.Unlock()
		return db, nil
	}
	m.mu.Unlock()

	m.state.Store(int32(Initializing))
	db, err := m.create(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state.Store(int32(Uninitialized))
		metrics.RecordPoolInit(metrics.PoolInitFailed)
		m.logger.Error(ctx, "pool initialisation failed", "database", m.settings.Database, "error", err)

		err = Classify(err)
		if errors.Is(err, common.ErrStoreUnavailable) {
			m.lastErr, m.failedAt = err, m.now()
		} else {
			m.lastErr = nil
		}
		return nil, err
	}

	m.db, m.lastErr = db, nil
	m.state.Store(int32(Ready))
	metrics.RecordPoolInit(metrics.PoolInitReady)
	m.logger.Info(ctx, "pool ready", "database", m.settings.Database, "max_conns", m.settings.MaxConns)
	return db, nil
}

func (m *Manager) create(ctx context.Context) (*sql.DB, error) {
	db, err := m.open(ctx, m.settings.DSN(m.settings.Database))
	if IsMissingDatabase(err) {
		m.logger.Warn(ctx, "database does not exist, creating", "database", m.settings.Database)
		if err := m.createDatabase(ctx); err != nil {
			return nil, err
		}
		db, err = m.open(ctx, m.settings.DSN(m.settings.Database))
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", m.settings.Database, err)
	}

	if m.settings.MaxConns > 0 {
		db.SetMaxOpenConns(m.settings.MaxConns)
		db.SetMaxIdleConns(m.settings.MaxConns)
	}

	if m.onReady != nil {
		if err := m.onReady(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init hook: %w", err)
		}
	}
	return db, nil
}

func (m *Manager) createDatabase(ctx context.Context) error {
	admin, err := m.open(ctx, m.settings.DSN(m.settings.AdminDatabase))
	if err != nil {
		return fmt.Errorf("open admin database %s: %w", m.settings.AdminDatabase, err)
	}
	defer admin.Close()

	stmt := "CREATE DATABASE " + pgx.Identifier{m.settings.Database}.Sanitize()
	if _, err := admin.ExecContext(ctx, stmt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.DuplicateDatabase {
			m.logger.Info(ctx, "database created concurrently elsewhere", "database", m.settings.Database)
			return nil
		}
		return fmt.Errorf("create database %s: %w", m.settings.Database, err)
	}

	metrics.DatabasesCreated.Inc()
	m.logger.Info(ctx, "database created", "database", m.settings.Database)
	return nil
}

// Acquire initializes the pool if needed and takes one connection from it.
// The caller must Close the connection.
func (m *Manager) Acquire(ctx context.Context) (*sql.Conn, error) {
	db, err := m.pool(ctx)
	if err != nil {
		return nil, err
	}

	actx := ctx
	if m.settings.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, m.settings.AcquireTimeout)
		defer cancel()
	}

	conn, err := db.Conn(actx)
	if err != nil {
		return nil, acquireError(ctx, err)
	}
	return conn, nil
}

// WithConn runs fn on an acquired connection and releases it on every exit
// path. Errors returned by fn are passed through Classify.
func (m *Manager) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	conn, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return Classify(fn(ctx, conn))
}

func (m *Manager) Ping(ctx context.Context) error {
	db, err := m.pool(ctx)
	if err != nil {
		return err
	}
	return Classify(db.PingContext(ctx))
}

// DB returns the pool, or nil while the manager is not Ready.
func (m *Manager) DB() *sql.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.state.Store(int32(Uninitialized))
	return err
}
