package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/common"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type statusReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type identityReply struct {
	Username string `json:"username"`
}

// HTTPClient talks to the auth endpoints over plain HTTP(S).
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client rooted at baseURL. A trailing slash is
// ignored.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("server url must start with http:// or https://: %q", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) error {
	_, err := c.postCredentials(ctx, "/auth/register", username, password)
	return err
}

// Login returns the session token issued by the server.
func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (string, error) {
	reply, err := c.postCredentials(ctx, "/auth/login", username, password)
	if err != nil {
		return "", err
	}
	if reply.Token == "" {
		return "", errors.New("server did not return a token")
	}
	return reply.Token, nil
}

// WhoAmI resolves token to the username it was issued for.
func (c *HTTPClient) WhoAmI(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/whoami", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	var reply identityReply
	if err := c.do(req, &reply); err != nil {
		return "", err
	}
	return reply.Username, nil
}

func (c *HTTPClient) postCredentials(ctx context.Context, path, username string, password []byte) (*statusReply, error) {
	body, err := json.Marshal(credentials{Username: username, Password: string(password)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var reply statusReply
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// do sends req and decodes a 2xx body into out. Transport failures map to
// ErrUnavailable, non-2xx replies to *APIError.
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reply statusReply
		_ = json.Unmarshal(data, &reply)
		return &APIError{Status: resp.StatusCode, Message: reply.Message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
