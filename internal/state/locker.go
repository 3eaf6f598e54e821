package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "lock:state:%d"
	lockTTL            = 5 * time.Second
)

// Locker grants exclusive access to one user's conversation.
type Locker interface {
	// Lock acquires the user's lock. The returned func releases it.
	Lock(ctx context.Context, userID int64) (func(), error)
}

// KeyedMutex serializes access per user within a single process.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedLock)}
}

// Lock blocks until the user's lock is free.
func (k *KeyedMutex) Lock(_ context.Context, userID int64) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[userID]
	if !ok {
		l = &keyedLock{}
		k.locks[userID] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, userID)
		}
		k.mu.Unlock()
	}, nil
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lock shared by every bot replica. It fails fast with ErrStateLocked.
type RedisLocker struct {
	client *appredis.Client
	log    *slog.Logger
}

// NewRedisLocker builds a RedisLocker.
func NewRedisLocker(client *appredis.Client, log *slog.Logger) *RedisLocker {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLocker{client: client, log: log}
}

func (r *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf(userLockKeyPattern, userID)
	token := uuid.NewString()

	acquired, err := r.client.SetNX(ctx, key, token, lockTTL)
	if err != nil {
		r.log.Error("failed to acquire user state lock", "user_id", userID, "error", err)
		return nil, err
	}
	if !acquired {
		r.log.Warn("user state lock already held", "user_id", userID)
		return nil, ErrStateLocked
	}

	return func() {
		// The caller's context may already be cancelled; release regardless.
		if err := releaseScript.Run(context.WithoutCancel(ctx), r.client.Client, []string{key}, token).Err(); err != nil {
			r.log.Error("failed to release user state lock", "user_id", userID, "error", err)
		}
	}, nil
}
