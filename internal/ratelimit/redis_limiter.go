package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter sorted sets away from profile and order keys.
const keyPrefix = "ratelimit:"

var errNoClient = errors.New("rate limiter has no redis client")

// slidingWindow trims the window, admits the request when there is room and returns
// {allowed, admitted count, reset time in ms}. Scores are unix milliseconds.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// RedisLimiter shares one sliding window per key across replicas.
type RedisLimiter struct {
	client *appredis.Client
	log    *slog.Logger
	now    func() time.Time
}

// NewRedisLimiter builds a RedisLimiter on client.
func NewRedisLimiter(client *appredis.Client, log *slog.Logger) Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLimiter{client: client, log: log, now: time.Now}
}

// Check runs the window script atomically. Keys expire one window after their last request.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errNoClient
	}

	reply, err := slidingWindow.Run(ctx, l.client, []string{keyPrefix + key},
		l.now().UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err == nil && len(reply) != 3 {
		err = fmt.Errorf("unexpected sliding window reply %v", reply)
	}
	if err != nil {
		record(backendRedis, err)
		l.log.ErrorContext(ctx, "redis rate limit check failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	result, err := decide(reply[0] == 1, int(reply[1]), limit, time.UnixMilli(reply[2]))
	record(backendRedis, err)
	return result, err
}
