package client

import "context"

// Client is the subset of the krishiauth HTTP API used by the terminal client.
type Client interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) (string, error)
	WhoAmI(ctx context.Context, token string) (string, error)
}
