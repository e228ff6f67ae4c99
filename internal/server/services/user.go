// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and issuing session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/cryptox"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/credentials"
)

// CredentialStore is satisfied by *credentials.Store.
type CredentialStore interface {
	Register(ctx context.Context, username, password string) (*credentials.Result, error)
	Authenticate(ctx context.Context, username, password string) (*credentials.Result, error)
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// Session is the outcome of a successful login.
type Session struct {
	Username  string
	Token     string
	ExpiresAt time.Time
	// Source tells which credential store answered ("durable" or "fallback").
	Source string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a session token
type UserService struct {
	store  CredentialStore
	tokens TokenIssuer
	logger logging.Logger
}

func NewUserService(store CredentialStore, tokens TokenIssuer, logger logging.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		logger: logger.With("module", "user_service"),
	}
}

// Register creates a new user with the given username and password.
func (s *UserService) Register(ctx context.Context, username, password string) (*credentials.Result, error) {
	res, err := s.store.Register(ctx, username, password)
	if err != nil {
		return nil, s.mapError(ctx, "register", err)
	}

	s.logger.Info(ctx, "user registered", "username", res.Username, "source", res.Source)
	return res, nil
}

// Login verifies the credentials and, on success, issues a session token.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	res, err := s.store.Authenticate(ctx, username, password)
	if err != nil {
		return nil, s.mapError(ctx, "login", err)
	}

	token, expiresAt, err := s.tokens.Issue(res.Username)
	if err != nil {
		s.logger.Error(ctx, "issuing token failed", "username", res.Username, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "username", res.Username, "source", res.Source)
	return &Session{
		Username:  res.Username,
		Token:     token,
		ExpiresAt: expiresAt,
		Source:    res.Source,
	}, nil
}

// mapError keeps the credential sentinels callers can act on and collapses
// everything else into common.ErrorInternal.
func (s *UserService) mapError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrUserAlreadyExists),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrInvalidUsername),
		errors.Is(err, common.ErrInvalidPassword):
		return err
	case errors.Is(err, cryptox.ErrPasswordTooLong):
		return fmt.Errorf("%w: %w", common.ErrInvalidPassword, err)
	}

	s.logger.Error(ctx, "credential operation failed", "operation", op, "error", err)
	return common.ErrorInternal
}
