package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/pkg/config"
	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*appredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := appredis.Wrap(redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	}))
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "test:allows", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "test:blocks", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 1-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "test:blocks", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	require.NotNil(t, result)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestRedisLimiter_RejectedRequestsAreNotCounted(t *testing.T) {
	client, mr := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger()).(*RedisLimiter)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		now = now.Add(10 * time.Second)
		result, err := limiter.Check(ctx, "user:1", 1, time.Minute)
		assert.ErrorIs(t, err, ErrLimitExceeded)
		assert.Equal(t, time.Date(2026, 10, 16, 9, 1, 0, 0, time.UTC), result.ResetAt.UTC())
	}

	members, err := mr.ZMembers("ratelimit:user:1")
	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:user:1"))

	now = now.Add(31 * time.Second)
	result, err := limiter.Check(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "test:window", 2, time.Second)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(1100 * time.Millisecond)

	result, err := limiter.Check(ctx, "test:window", 2, time.Second)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_KeysAreNamespaced(t *testing.T) {
	client, mr := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	_, err := limiter.Check(context.Background(), "user:42", 5, time.Minute)
	require.NoError(t, err)

	assert.True(t, mr.Exists("ratelimit:user:42"))
	assert.False(t, mr.Exists("user:42"))
}

func TestMemoryLimiter_BlocksAndRecovers(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "k", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Equal(t, now.Add(time.Minute), result.ResetAt)

	now = now.Add(61 * time.Second)
	result, err = limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	_, err := limiter.Check(context.Background(), "old", 5, time.Minute)
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, limiter.Cleanup(5*time.Minute))
	assert.Equal(t, 0, limiter.Cleanup(5*time.Minute))
}

func TestAdaptiveLimiter_FallsBackWhenRedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	limiter := NewAdaptiveLimiter(NewRedisLimiter(client, testLogger()), NewMemoryLimiter(), testLogger())
	ctx := context.Background()

	mr.Close()

	// Limit 4 becomes 2 in fallback mode.
	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "fallback", 4, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	_, err := limiter.Check(ctx, "fallback", 4, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestAdaptiveLimiter_RejectsOverLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewAdaptiveLimiter(NewRedisLimiter(client, testLogger()), NewMemoryLimiter(), testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "primary", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(ctx, "primary", 1, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestCleaner_DropsIdleMemoryWindows(t *testing.T) {
	memory := NewMemoryLimiter()
	_, err := memory.Check(context.Background(), "quiet", 5, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewCleaner(memory, testLogger(), 10*time.Millisecond, time.Nanosecond).Run(ctx)

	assert.Eventually(t, func() bool {
		memory.mu.Lock()
		defer memory.mu.Unlock()
		return len(memory.windows) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRules(t *testing.T) {
	rules, err := NewRules(config.RateLimitConfig{
		PerUser:   config.RateLimitRule{Limit: 30, Window: "1m"},
		Whitelist: []int64{5},
	}, 1001, 0)
	require.NoError(t, err)

	limit, window := rules.PerUser()
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Minute, window)
	assert.True(t, rules.IsWhitelisted(5))
	assert.True(t, rules.IsWhitelisted(1001))
	assert.False(t, rules.IsWhitelisted(0))
	assert.False(t, rules.IsWhitelisted(7))

	_, err = NewRules(config.RateLimitConfig{PerUser: config.RateLimitRule{Limit: 1}})
	assert.Error(t, err)

	_, err = NewRules(config.RateLimitConfig{PerUser: config.RateLimitRule{Limit: 1, Window: "soon"}})
	assert.Error(t, err)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
