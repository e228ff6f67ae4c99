// Package cryptox implements salted, one-way password hashing.
//
// Digests are self-describing strings (bcrypt "$2a$..." or PHC-formatted
// argon2id), so Verify works for any supported algorithm regardless of which
// one is currently configured for new hashes.
package cryptox

import (
	"errors"
	"fmt"
	"strings"
)

// Supported algorithm names.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var (
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooLong  = errors.New("password exceeds 72 bytes")
	ErrInvalidDigest    = errors.New("invalid password digest")
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns a fresh salted digest; two calls never return the same value.
	Hash(password string) (string, error)

	// Verify reports whether password produced digest. A mismatch is
	// (false, nil); a digest that cannot be parsed is an error.
	Verify(password, digest string) (bool, error)
}

// Hasher hashes with one algorithm and verifies with whichever algorithm
// produced the digest.
type Hasher struct {
	primary PasswordHasher
	bcrypt  *BcryptHasher
	argon2  *Argon2idHasher
}

// NewPasswordHasher returns a Hasher producing digests with algorithm.
// bcryptCost is only used for bcrypt; values outside bcrypt's range fall back
// to the default cost.
func NewPasswordHasher(algorithm string, bcryptCost int) (*Hasher, error) {
	h := &Hasher{
		bcrypt: NewBcryptHasher(bcryptCost),
		argon2: NewArgon2idHasher(),
	}

	switch strings.ToLower(algorithm) {
	case "", AlgorithmBcrypt:
		h.primary = h.bcrypt
	case AlgorithmArgon2id:
		h.primary = h.argon2
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}

	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *Hasher) Verify(password, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return h.argon2.Verify(password, digest)
	case strings.HasPrefix(digest, "$2"):
		return h.bcrypt.Verify(password, digest)
	default:
		return false, ErrInvalidDigest
	}
}
