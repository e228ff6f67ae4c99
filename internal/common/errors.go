// Package common defines shared constants and sentinel errors used across
// the server and client. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrStoreUnavailable marks a connectivity-class failure of the durable
	// store. It switches a request to the fallback store and is never
	// returned to callers of the credential store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Credential errors.
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("incorrect password")

	// Validation errors.
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("password must not be empty")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrUnauthenticated is returned by the session boundary when a request
	// carries no usable token.
	ErrUnauthenticated = errors.New("unauthenticated")
)
