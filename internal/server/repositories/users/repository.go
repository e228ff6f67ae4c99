// Package users persists user records. PostgresRepository is the durable
// store; MemoryRepository is the process-local fallback used while the
// durable store is unreachable. Both satisfy Repository.
package users

import (
	"context"

	"github.com/dmitrijs2005/krishiauth/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. A duplicate username
	// yields common.ErrUserAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound when no such user exists.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
