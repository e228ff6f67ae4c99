// Package config handles configuration for the server component, layered as
// defaults, then an optional JSON file, then environment variables, then
// command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/common"
)

// DefaultSecretKey is the development signing secret used when none is
// configured.
const DefaultSecretKey = "secretKey"

// Config holds runtime settings for the auth server.
//
// The env tags name the environment variables read by parseEnv. TokenTTL is
// read from TOKEN_TTL_MINUTES separately because it is given in minutes.
type Config struct {
	HTTPAddr       string `env:"HTTP_ADDR"`
	HealthAddrGRPC string `env:"GRPC_HEALTH_ADDR"`

	DBHost           string        `env:"DB_HOST"`
	DBPort           int           `env:"DB_PORT"`
	DBUser           string        `env:"DB_USER"`
	DBPassword       string        `env:"DB_PASSWORD"`
	DBName           string        `env:"DB_NAME"`
	DBAdminName      string        `env:"DB_ADMIN_NAME"`
	DBSSLMode        string        `env:"DB_SSLMODE"`
	DBPoolSize       int           `env:"DB_POOL_SIZE"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT"`
	DBAcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT"`

	// SecretKey signs session tokens (HS256). Do not use the default in prod.
	SecretKey    string `env:"SECRET_KEY"`
	TokenTTL     time.Duration
	CookieName   string `env:"COOKIE_NAME"`
	CookieSecure bool   `env:"COOKIE_SECURE"`

	HashAlgorithm string `env:"HASH_ALGORITHM"`
	BcryptCost    int    `env:"BCRYPT_COST"`

	MigrationRetries    int           `env:"MIGRATION_RETRIES"`
	HealthProbeInterval time.Duration `env:"HEALTH_PROBE_INTERVAL"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.HealthAddrGRPC = ":50051"
	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBUser = "postgres"
	c.DBPassword = "postgres"
	c.DBName = "krishi_ai"
	c.DBAdminName = "postgres"
	c.DBSSLMode = "disable"
	c.DBPoolSize = 5
	c.DBConnectTimeout = 3 * time.Second
	c.DBAcquireTimeout = 5 * time.Second
	c.SecretKey = DefaultSecretKey
	c.TokenTTL = 120 * time.Minute
	c.CookieName = common.DefaultSessionCookieName
	c.CookieSecure = false
	c.HashAlgorithm = "bcrypt"
	c.BcryptCost = 12
	c.MigrationRetries = 3
	c.HealthProbeInterval = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg, nil)
	parseFlags(cfg)
	return cfg
}
