package chats

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"resume-studio/internal/shared/telemetry"
)

// Locker serializes sends per resume. Acquire reports false when the resume
// is already locked; release must be called once when ok is true.
type Locker interface {
	Acquire(ctx context.Context, resumeID string) (release func(), ok bool, err error)
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewMemoryLocker constructs a MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{active: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(ctx context.Context, resumeID string) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[resumeID]; busy {
		return nil, false, nil
	}
	l.active[resumeID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, resumeID)
			l.mu.Unlock()
		})
	}, true, nil
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a Locker shared across API instances. The TTL bounds how
// long a crashed holder blocks a resume.
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewRedisLocker constructs a RedisLocker.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{Client: client, TTL: ttl, Prefix: "resume-chat-lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, resumeID string) (func(), bool, error) {
	key := l.Prefix + resumeID
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.Client, []string{key}, token).Err(); err != nil {
				telemetry.Warn("chat.lock.release_failed", map[string]any{"resume_id": resumeID, "err": err})
			}
		})
	}, true, nil
}
