package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps profiles in process for dev runs and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[string]User
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		rows: map[string]User{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Upsert mirrors the PG statement: profile fields are overwritten and the
// original CreatedAt survives.
func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	at := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt, user.UpdatedAt = at, at
	if prev, ok := r.rows[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
	}
	r.rows[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	user, ok := r.rows[userID]
	r.mu.RUnlock()
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}
