// Package models holds the persisted entities of the credential store.
package models

import "time"

// User is a registered account. PasswordHash is an opaque digest produced by
// cryptox; the plaintext is never stored. CreatedAt is set once on insert.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
