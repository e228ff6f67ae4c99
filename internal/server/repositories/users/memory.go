package users

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/server/models"
)

// MemoryRepository keeps users in process memory. Records live as long as
// the process and are never copied to the durable store.
type MemoryRepository struct {
	mu     sync.Mutex
	users  map[string]models.User
	nextID int64
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

// Create checks for a duplicate and inserts under one lock, so concurrent
// registrations of the same username cannot both succeed.
func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrUserAlreadyExists
	}

	r.nextID++
	user.ID = strconv.FormatInt(r.nextID, 10)
	user.CreatedAt = r.now()
	r.users[user.UserName] = *user

	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, userName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// Len reports how many users the fallback store holds.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
