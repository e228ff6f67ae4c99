package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type envOverrides struct {
	TokenTTLMinutes int `env:"TOKEN_TTL_MINUTES"`
}

// parseEnv overlays variables that are set onto config; unset variables
// leave the current value alone. A nil environ means the process environment.
// Malformed values panic, like malformed JSON and flags.
func parseEnv(config *Config, environ map[string]string) {
	opts := env.Options{Environment: environ}

	if err := env.ParseWithOptions(config, opts); err != nil {
		panic(err)
	}

	var o envOverrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		panic(err)
	}
	if o.TokenTTLMinutes > 0 {
		config.TokenTTL = time.Duration(o.TokenTTLMinutes) * time.Minute
	}
}
