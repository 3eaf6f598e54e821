// Package repository persists profiles and orders in the key-value store.
//
// Storage failures never reach callers as errors. Every write reports an Outcome
// telling whether the record was stored or a non-durable fallback was used.
package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Kamron201111/telegram-stars-bot/internal/errors"
	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
)

const (
	ProfileTTL = 30 * 24 * time.Hour
	OrderTTL   = 7 * 24 * time.Hour

	profileKeyPrefix = "user:"
	orderKeyPrefix   = "order:"
)

// ErrStoreUnavailable is the Outcome cause when no client is configured.
var ErrStoreUnavailable = errors.New("key-value store unavailable")

// KeyValue is the subset of the Redis client used by the stores.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// Outcome distinguishes a durable write from the degraded fallback path.
type Outcome struct {
	Degraded bool
	Cause    error
}

// Stored is the Outcome of a successful write.
func Stored() Outcome {
	return Outcome{}
}

// Degraded is the Outcome when the store could not be used.
func Degraded(cause error) Outcome {
	return Outcome{Degraded: true, Cause: cause}
}

// NewBreaker returns a circuit breaker that does not count cache misses as failures.
func NewBreaker() *apperrors.CircuitBreaker {
	return apperrors.NewCircuitBreaker(isMiss)
}

func isMiss(err error) bool {
	return errors.Is(err, appredis.Nil)
}

// guard runs fn through the breaker, failing fast when kv is absent.
func guard(kv KeyValue, breaker *apperrors.CircuitBreaker, fn func() error) error {
	if kv == nil {
		return ErrStoreUnavailable
	}
	return breaker.Call(fn)
}
