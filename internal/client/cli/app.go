package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dmitrijs2005/krishiauth/internal/client/client"
	"github.com/dmitrijs2005/krishiauth/internal/client/config"
	"github.com/dmitrijs2005/krishiauth/internal/flagx"
)

var ErrUsage = errors.New("usage: client [-a url] [-w seconds] register|login|whoami [-t token]")

type App struct {
	api    client.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(api, os.Stdin, os.Stdout), nil
}

func newApp(api client.Client, in io.Reader, out io.Writer) *App {
	return &App{api: api, reader: bufio.NewReader(in), out: out}
}

// Run executes the subcommand found in args (os.Args without the program
// name).
func (a *App) Run(ctx context.Context, args []string) error {
	flags, rest := flagx.SplitCommand(args, config.GlobalFlags)
	if err := checkGlobalFlags(flags); err != nil {
		return err
	}
	if len(rest) == 0 {
		return ErrUsage
	}

	switch rest[0] {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "whoami":
		return a.whoami(ctx, rest[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", rest[0], ErrUsage)
	}
}

// checkGlobalFlags rejects flags before the subcommand that the config
// package does not know. Their values were already applied by config.
func checkGlobalFlags(flags []string) error {
	for _, f := range flags {
		if !strings.HasPrefix(f, "-") {
			continue
		}
		name, _, _ := strings.Cut(f, "=")
		if !slices.Contains(config.GlobalFlags, name) {
			return fmt.Errorf("unknown flag %s: %w", name, ErrUsage)
		}
	}
	return nil
}
