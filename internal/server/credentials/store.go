// Package credentials registers and authenticates users against the durable
// store, switching a request to the in-memory fallback store when the
// durable one cannot be reached.
//
// The two stores are never reconciled: a user registered while the durable
// store was down exists only in this process, and once the durable store is
// back that user is reported as unknown.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/cryptox"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/metrics"
	"github.com/dmitrijs2005/krishiauth/internal/server/models"
	"github.com/dmitrijs2005/krishiauth/internal/server/repositories/users"
)

// Input limits. MaxUsernameLength matches the users.username column, so both
// stores accept exactly the same names.
const (
	MaxUsernameLength = 255
	MaxPasswordBytes  = 1024
)

// Stores a Result can come from.
const (
	SourceDurable  = "durable"
	SourceFallback = "fallback"
)

const (
	opRegister     = "register"
	opAuthenticate = "authenticate"
)

type Result struct {
	Username string
	Source   string
}

type Store struct {
	durable  Backend
	fallback users.Repository
	hasher   cryptox.PasswordHasher
	logger   logging.Logger

	// dummyDigest is verified against for unknown users so that lookups of
	// missing and existing users do the same hashing work.
	dummyDigest string
}

func NewStore(durable Backend, fallback users.Repository, hasher cryptox.PasswordHasher, logger logging.Logger) (*Store, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy digest seed: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}

	return &Store{
		durable:     durable,
		fallback:    fallback,
		hasher:      hasher,
		logger:      logger.With("module", "credentials"),
		dummyDigest: dummy,
	}, nil
}

// Register creates a user. A taken username yields common.ErrUserAlreadyExists.
func (s *Store) Register(ctx context.Context, username, password string) (*Result, error) {
	if err := validate(username, password); err != nil {
		return nil, err
	}

	// Hashed up front so no pooled connection is held during the work factor.
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	source, err := s.run(ctx, opRegister, func(ctx context.Context, repo users.Repository) error {
		_, err := repo.GetUserByLogin(ctx, username)
		switch {
		case err == nil:
			return common.ErrUserAlreadyExists
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		_, err = repo.Create(ctx, &models.User{UserName: username, PasswordHash: digest})
		return err
	})
	s.record(ctx, opRegister, source, username, err)
	if err != nil {
		return nil, err
	}

	return &Result{Username: username, Source: source}, nil
}

// Authenticate checks password for username. Unknown users yield
// common.ErrUserNotFound, a mismatch common.ErrWrongPassword.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*Result, error) {
	if err := validate(username, password); err != nil {
		return nil, err
	}

	var user *models.User
	source, err := s.run(ctx, opAuthenticate, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.GetUserByLogin(ctx, username)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if errors.Is(err, common.ErrorNotFound) {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
		err = common.ErrUserNotFound
	}
	if err == nil {
		err = s.verify(password, user.PasswordHash)
	}

	s.record(ctx, opAuthenticate, source, username, err)
	if err != nil {
		return nil, err
	}

	return &Result{Username: user.UserName, Source: source}, nil
}

func (s *Store) verify(password, digest string) error {
	ok, err := s.hasher.Verify(password, digest)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return common.ErrWrongPassword
	}
	return nil
}

// run executes fn on the durable store and, only when that store is
// unreachable, once more on the fallback store.
func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context, repo users.Repository) error) (string, error) {
	err := s.durable.Do(ctx, fn)
	if !errors.Is(err, common.ErrStoreUnavailable) {
		return SourceDurable, err
	}

	s.logger.Warn(ctx, "durable store unavailable, using fallback store", "operation", op, "error", err)
	return SourceFallback, fn(ctx, s.fallback)
}

func (s *Store) record(ctx context.Context, op, source, username string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, common.ErrUserAlreadyExists),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrWrongPassword):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
		s.logger.Error(ctx, "credential operation failed", "operation", op, "source", source, "error", err)
	}
	metrics.RecordCredentialOperation(op, source, outcome)

	if source == SourceFallback && err == nil {
		s.logger.Warn(ctx, "credential operation served by fallback store", "operation", op, "username", username)
	}
}

func validate(username, password string) error {
	switch {
	case username == "":
		return common.ErrInvalidUsername
	case !utf8.ValidString(username) || strings.ContainsRune(username, 0):
		return fmt.Errorf("%w: not valid UTF-8 text", common.ErrInvalidUsername)
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return fmt.Errorf("%w: longer than %d characters", common.ErrInvalidUsername, MaxUsernameLength)
	}

	switch {
	case password == "":
		return common.ErrInvalidPassword
	case len(password) > MaxPasswordBytes:
		return fmt.Errorf("%w: longer than %d bytes", common.ErrInvalidPassword, MaxPasswordBytes)
	}
	return nil
}
