// Package idempotency makes sure a Telegram update is handled at most once,
// even when it is delivered again after a webhook timeout or a restart.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

const lockTTL = 5 * time.Minute

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Record is the stored state of one key. Response holds the operation result as JSON.
type Record struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Store keeps records and the short-lived locks taken while an operation runs.
type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key string) error
}

var ErrRequestInProgress = errors.New("request with this key is already in progress")

type Operation func(ctx context.Context) (interface{}, error)

type Result struct {
	Response  interface{}
	FromCache bool
}

type Manager interface {
	Execute(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fn Operation,
	) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager over store. When the store fails, fn runs anyway:
// a rare duplicate is preferred over dropping the update.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	locked, err := m.store.Lock(ctx, key, lockTTL)
	if err != nil {
		m.log.WarnContext(ctx, "idempotency store unavailable, executing without guard", slog.String("key", key), slog.Any("error", err))
		return m.run(ctx, fn)
	}

	if !locked {
		return m.cached(ctx, key)
	}
	defer func() {
		_ = m.store.ReleaseLock(context.WithoutCancel(ctx), key)
	}()

	// A completed record may exist when the previous lock has already been released.
	if res, err := m.cached(ctx, key); err == nil && res.FromCache {
		return res, nil
	}

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	responseBytes, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{
		Status:   StatusCompleted,
		Response: responseBytes,
	}, ttl); err != nil {
		m.log.WarnContext(ctx, "failed to record completed update", slog.String("key", key), slog.Any("error", err))
	}

	return &Result{
		Response:  result,
		FromCache: false,
	}, nil
}

func (m *manager) cached(ctx context.Context, key string) (*Result, error) {
	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Status != StatusCompleted {
		return nil, ErrRequestInProgress
	}

	var response interface{}
	if len(record.Response) > 0 {
		if err := json.Unmarshal(record.Response, &response); err != nil {
			return nil, err
		}
	}
	return &Result{Response: response, FromCache: true}, nil
}

func (m *manager) run(ctx context.Context, fn Operation) (*Result, error) {
	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Response: result}, nil
}
