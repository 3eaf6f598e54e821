package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
)

const (
	conversationKeyPattern  = "state:user:%d"
	conversationScanPattern = "state:user:*"
)

// RedisStorage persists conversations in Redis so they survive restarts.
type RedisStorage struct {
	client *appredis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage. A zero ttl stores conversations without expiry.
func NewRedisStorage(client *appredis.Client, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Get returns the stored conversation or ErrStateNotFound when absent.
func (s *RedisStorage) Get(ctx context.Context, userID int64) (*Conversation, error) {
	data, err := s.client.Get(ctx, conversationKey(userID))
	if err != nil {
		if errors.Is(err, appredis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to get conversation from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		s.log.Error("failed to decode conversation", "user_id", userID, "error", err)
		return nil, err
	}

	return &conv, nil
}

// Save stores the conversation, renewing its expiry when a ttl is configured.
func (s *RedisStorage) Save(ctx context.Context, conv *Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		s.log.Error("failed to encode conversation", "user_id", conv.UserID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, conversationKey(conv.UserID), data, s.ttl); err != nil {
		s.log.Error("failed to save conversation in redis", "user_id", conv.UserID, "error", err)
		return err
	}

	return nil
}

// Delete removes the stored conversation for the given user.
func (s *RedisStorage) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Delete(ctx, conversationKey(userID)); err != nil {
		s.log.Error("failed to clear conversation", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// List retrieves every stored conversation by scanning Redis keys.
func (s *RedisStorage) List(ctx context.Context) ([]*Conversation, error) {
	keys, err := s.client.ScanKeys(ctx, conversationScanPattern)
	if err != nil {
		s.log.Error("failed to scan conversations", "error", err)
		return nil, err
	}

	result := make([]*Conversation, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key)
		if err != nil {
			if errors.Is(err, appredis.Nil) {
				continue
			}

			s.log.Error("failed to fetch conversation", "key", key, "error", err)
			return nil, err
		}

		var conv Conversation
		if err := json.Unmarshal([]byte(data), &conv); err != nil {
			s.log.Error("failed to decode conversation", "key", key, "error", err)
			continue
		}

		result = append(result, &conv)
	}

	return result, nil
}

func conversationKey(userID int64) string {
	return fmt.Sprintf(conversationKeyPattern, userID)
}
