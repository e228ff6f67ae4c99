package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-H string   database host
//	-P int      database port
//	-n string   database name
//	-p int      connection pool size
//	-s string   token HMAC secret key
//	-t int      token validity, minutes
//	-l string   log level (debug, info, warn, error)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config and unknown flags are ignored here.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-H", "-P", "-n", "-p", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.HealthAddrGRPC, "g", config.HealthAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DBHost, "H", config.DBHost, "database host")
	fs.IntVar(&config.DBPort, "P", config.DBPort, "database port")
	fs.StringVar(&config.DBName, "n", config.DBName, "database name")
	fs.IntVar(&config.DBPoolSize, "p", config.DBPoolSize, "connection pool size")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
}
