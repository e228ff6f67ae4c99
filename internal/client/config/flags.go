package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/flagx"
)

// GlobalFlags are the value-taking flags accepted before the subcommand.
var GlobalFlags = []string{"-a", "-w", "-c", "-config"}

// globalArgs returns the part of os.Args before the subcommand. Flags that
// follow the subcommand belong to it.
func globalArgs() []string {
	flags, _ := flagx.SplitCommand(os.Args[1:], GlobalFlags)
	return flags
}

// parseFlags populates selected Config fields from command-line flags.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(globalArgs(), []string{"-a", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server")
	timeout := fs.Int("w", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
