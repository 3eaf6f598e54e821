package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
)

const keyPrefix = "idempotency:"

// RedisStore shares records between bot replicas. A record is one JSON value under
// idempotency:<key>, its lock a plain SETNX key next to it. Both always carry a TTL.
type RedisStore struct {
	client *appredis.Client
	log    *slog.Logger
}

// NewRedisStore builds a RedisStore on client.
func NewRedisStore(client *appredis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, lockKey(key), 1, lockTTL)
	if err != nil {
		return false, s.fail(ctx, "lock", key, err)
	}
	return acquired, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	raw, err := s.client.Get(ctx, recordKey(key))
	if errors.Is(err, appredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "get", key, err)
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, s.fail(ctx, "decode", key, err)
	}
	return &record, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return s.fail(ctx, "encode", key, err)
	}
	if err := s.client.Set(ctx, recordKey(key), payload, ttl); err != nil {
		return s.fail(ctx, "set", key, err)
	}
	return nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	if err := s.client.Delete(ctx, lockKey(key)); err != nil {
		return s.fail(ctx, "unlock", key, err)
	}
	return nil
}

func (s *RedisStore) fail(ctx context.Context, op, key string, err error) error {
	s.log.WarnContext(ctx, "idempotency store failed",
		slog.String("operation", op),
		slog.String("key", key),
		slog.Any("error", err),
	)
	return fmt.Errorf("idempotency %s: %w", op, err)
}

func recordKey(key string) string {
	return keyPrefix + key
}

func lockKey(key string) string {
	return keyPrefix + key + ":lock"
}
