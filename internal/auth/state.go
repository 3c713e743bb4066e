package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore holds OAuth state values between start and callback. A state
// can be consumed once, and only before it expires.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// MemoryStates is a StateStore for a single API process.
type MemoryStates struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryStates() *MemoryStates {
	return &MemoryStates{expires: map[string]time.Time{}, now: time.Now}
}

func (m *MemoryStates) Put(ctx context.Context, state string, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for s, exp := range m.expires {
		if now.After(exp) {
			delete(m.expires, s)
		}
	}
	m.expires[state] = now.Add(ttl)
	return nil
}

func (m *MemoryStates) Consume(ctx context.Context, state string) (bool, error) {
	m.mu.Lock()
	exp, ok := m.expires[state]
	delete(m.expires, state)
	m.mu.Unlock()
	return ok && !m.now().After(exp), nil
}

// RedisStates shares OAuth state across API replicas.
type RedisStates struct {
	client *redis.Client
	prefix string
}

func NewRedisStates(client *redis.Client) *RedisStates {
	return &RedisStates{client: client, prefix: "oauth:state:"}
}

func (r *RedisStates) Put(ctx context.Context, state string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+state, 1, ttl).Err()
}

// Consume uses GETDEL so two callbacks racing on one state cannot both win.
func (r *RedisStates) Consume(ctx context.Context, state string) (bool, error) {
	err := r.client.GetDel(ctx, r.prefix+state).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
