package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	cfg := defaultConfig()

	parseEnv(cfg, map[string]string{
		"HTTP_ADDR":             ":9000",
		"DB_HOST":               "pg",
		"DB_PORT":               "5433",
		"DB_POOL_SIZE":          "12",
		"DB_ACQUIRE_TIMEOUT":    "750ms",
		"SECRET_KEY":            "s3cr3t",
		"TOKEN_TTL_MINUTES":     "15",
		"COOKIE_NAME":           "krishi_sid",
		"COOKIE_SECURE":         "true",
		"HASH_ALGORITHM":        "argon2id",
		"BCRYPT_COST":           "10",
		"MIGRATION_RETRIES":     "1",
		"HEALTH_PROBE_INTERVAL": "30s",
	})

	want := defaultConfig()
	want.HTTPAddr = ":9000"
	want.DBHost = "pg"
	want.DBPort = 5433
	want.DBPoolSize = 12
	want.DBAcquireTimeout = 750 * time.Millisecond
	want.SecretKey = "s3cr3t"
	want.TokenTTL = 15 * time.Minute
	want.CookieName = "krishi_sid"
	want.CookieSecure = true
	want.HashAlgorithm = "argon2id"
	want.BcryptCost = 10
	want.MigrationRetries = 1
	want.HealthProbeInterval = 30 * time.Second

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseEnv_UnsetKeepsValues(t *testing.T) {
	cfg := defaultConfig()
	parseEnv(cfg, map[string]string{"UNRELATED": "x"})
	assert.Empty(t, cmp.Diff(defaultConfig(), cfg))
}

func TestParseEnv_MalformedPanics(t *testing.T) {
	cfg := defaultConfig()
	require.Panics(t, func() { parseEnv(cfg, map[string]string{"DB_PORT": "not-a-number"}) })
}
