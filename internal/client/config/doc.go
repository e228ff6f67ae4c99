// Package config loads runtime configuration for the krishiauth client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config (or the CONFIG variable).
//  3. Command-line flags, which override earlier values.
//
// Supported flags (only before the subcommand)
//
//	-a string   base URL of the HTTP API
//	-w int      request timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "5s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "5s"
//	}
package config
