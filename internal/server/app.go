// Package server initializes and runs the auth service: it wires the
// credential store, token service and transports, prepares the durable store
// at startup and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/krishiauth/internal/cryptox"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/auth"
	"github.com/dmitrijs2005/krishiauth/internal/server/config"
	"github.com/dmitrijs2005/krishiauth/internal/server/credentials"
	"github.com/dmitrijs2005/krishiauth/internal/server/httpapi"
	"github.com/dmitrijs2005/krishiauth/internal/server/metrics"
	"github.com/dmitrijs2005/krishiauth/internal/server/pool"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/krishiauth/internal/server/services"

	gs "github.com/dmitrijs2005/krishiauth/internal/server/grpc"
)

// initBackoff is the pause between startup attempts to reach the store.
var initBackoff = 2 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	pool       *pool.Manager
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm := repomanager.NewPostgresRepositoryManager()
	pm := pool.NewManager(poolSettings(c),
		pool.WithInitHook(rm.RunMigrations),
		pool.WithLogger(logger),
	)

	hasher, err := cryptox.NewPasswordHasher(c.HashAlgorithm, c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	store, err := credentials.NewStore(credentials.NewPoolBackend(pm, rm), users.NewMemoryRepository(), hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}

	warnInsecureDefaults(context.Background(), c, logger)

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	boundary := auth.NewBoundary(tokens, c.CookieName, c.CookieSecure, logger)

	us := services.NewUserService(store, tokens, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterMetrics(reg)

	router := httpapi.NewRouter(httpapi.NewHandler(us, boundary, pm, logger), reg)

	return &App{
		config:     c,
		logger:     logger,
		pool:       pm,
		httpServer: httpapi.NewServer(c.HTTPAddr, router, logger),
		grpcServer: gs.NewGRPCServer(c.HealthAddrGRPC, logger, pm, c.HealthProbeInterval),
	}, nil
}

// warnInsecureDefaults reports settings that are fine for development only.
func warnInsecureDefaults(ctx context.Context, c *config.Config, logger logging.Logger) bool {
	if c.SecretKey != config.DefaultSecretKey {
		return false
	}
	logger.Warn(ctx, "session tokens are signed with the built-in development secret; set SECRET_KEY")
	return true
}

func poolSettings(c *config.Config) pool.Settings {
	return pool.Settings{
		Host:           c.DBHost,
		Port:           c.DBPort,
		User:           c.DBUser,
		Password:       c.DBPassword,
		Database:       c.DBName,
		AdminDatabase:  c.DBAdminName,
		SSLMode:        c.DBSSLMode,
		MaxConns:       c.DBPoolSize,
		ConnectTimeout: c.DBConnectTimeout,
		AcquireTimeout: c.DBAcquireTimeout,
	}
}

// initStore tries to create the pool (and run migrations) up to attempts
// times. Failure is not fatal: requests are served from the fallback store
// and the pool is created lazily once the database is reachable.
func initStore(ctx context.Context, init func(ctx context.Context) error, attempts int, pause time.Duration, logger logging.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(pause))

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := init(ctx); err != nil {
			logger.Warn(ctx, "durable store init attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "durable store unavailable at startup, continuing with fallback store", "error", err)
		return err
	}

	logger.Info(ctx, "durable store ready")
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a shutdown signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	_ = initStore(ctx, app.pool.Initialize, app.config.MigrationRetries, initBackoff, app.logger)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.pool.Close(); err != nil {
		app.logger.Error(ctx, "closing pool", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
