package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/krishiauth/internal/client/client"
	"github.com/dmitrijs2005/krishiauth/internal/common"
)

func (a *App) register(ctx context.Context) error {
	username, password, err := a.promptCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, username, password); err != nil {
		return describe("registration failed", err)
	}
	fmt.Fprintf(a.out, "User %s registered\n", username)
	return nil
}

func (a *App) login(ctx context.Context) error {
	username, password, err := a.promptCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, username, password)
	if err != nil {
		return describe("login failed", err)
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	token := fs.String("t", "", "session token")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if *token == "" {
		t, err := GetSimpleText(a.reader, "Token", a.out)
		if err != nil {
			return err
		}
		*token = t
	}
	if *token == "" {
		return errors.New("token must not be empty")
	}

	username, err := a.api.WhoAmI(ctx, *token)
	if err != nil {
		return describe("whoami failed", err)
	}
	fmt.Fprintln(a.out, username)
	return nil
}

func (a *App) promptCredentials() (string, []byte, error) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", nil, errors.New("username must not be empty")
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return username, password, nil
}

// describe prefixes err with the failed action.
func describe(action string, err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("%s: server unavailable: %w", action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}
