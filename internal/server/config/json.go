package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/flagx"
	"github.com/dmitrijs2005/krishiauth/internal/timex"
)

// JsonConfig is the DTO read from the JSON config file. Durations use
// timex.Duration, so both "3s" and integer nanoseconds are accepted. Absent
// keys keep the value already in Config.
type JsonConfig struct {
	HTTPAddr            *string         `json:"http_addr"`
	HealthAddrGRPC      *string         `json:"grpc_health_addr"`
	DBHost              *string         `json:"db_host"`
	DBPort              *int            `json:"db_port"`
	DBUser              *string         `json:"db_user"`
	DBPassword          *string         `json:"db_password"`
	DBName              *string         `json:"db_name"`
	DBAdminName         *string         `json:"db_admin_name"`
	DBSSLMode           *string         `json:"db_sslmode"`
	DBPoolSize          *int            `json:"db_pool_size"`
	DBConnectTimeout    *timex.Duration `json:"db_connect_timeout"`
	DBAcquireTimeout    *timex.Duration `json:"db_acquire_timeout"`
	SecretKey           *string         `json:"secret_key"`
	TokenTTL            *timex.Duration `json:"token_ttl"`
	CookieName          *string         `json:"cookie_name"`
	CookieSecure        *bool           `json:"cookie_secure"`
	HashAlgorithm       *string         `json:"hash_algorithm"`
	BcryptCost          *int            `json:"bcrypt_cost"`
	MigrationRetries    *int            `json:"migration_retries"`
	HealthProbeInterval *timex.Duration `json:"health_probe_interval"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file is named by the -c or -config flag, or else the CONFIG
// environment variable. With neither, nothing is loaded. An unreadable file
// or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.HealthAddrGRPC, c.HealthAddrGRPC)
	setIf(&config.DBHost, c.DBHost)
	setIf(&config.DBPort, c.DBPort)
	setIf(&config.DBUser, c.DBUser)
	setIf(&config.DBPassword, c.DBPassword)
	setIf(&config.DBName, c.DBName)
	setIf(&config.DBAdminName, c.DBAdminName)
	setIf(&config.DBSSLMode, c.DBSSLMode)
	setIf(&config.DBPoolSize, c.DBPoolSize)
	setDurationIf(&config.DBConnectTimeout, c.DBConnectTimeout)
	setDurationIf(&config.DBAcquireTimeout, c.DBAcquireTimeout)
	setIf(&config.SecretKey, c.SecretKey)
	setDurationIf(&config.TokenTTL, c.TokenTTL)
	setIf(&config.CookieName, c.CookieName)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.HashAlgorithm, c.HashAlgorithm)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.MigrationRetries, c.MigrationRetries)
	setDurationIf(&config.HealthProbeInterval, c.HealthProbeInterval)
	setIf(&config.LogLevel, c.LogLevel)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDurationIf(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
