package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	apperrors "github.com/Kamron201111/telegram-stars-bot/internal/errors"
	"github.com/Kamron201111/telegram-stars-bot/pkg/metrics"
)

// maxIDAttempts bounds regeneration when a generated order id is already taken.
const maxIDAttempts = 3

// ErrOrderIDCollision is the Outcome cause when every generated id was taken.
var ErrOrderIDCollision = errors.New("order id collision")

// ErrOrderNotFound is returned by GetOrder for unknown or expired ids.
var ErrOrderNotFound = errors.New("order not found")

// IDGenerator produces an order identifier for the given creation time.
type IDGenerator func(now time.Time) string

// GenerateOrderID returns ORD<unix seconds><random 1000-9999>. Ids are not guaranteed unique.
func GenerateOrderID(now time.Time) string {
	return fmt.Sprintf("ORD%d%d", now.Unix(), 1000+rand.IntN(9000))
}

// NewOrder carries the buyer-supplied part of an order.
type NewOrder struct {
	UserID           int64
	Username         string
	FirstName        string
	TelegramUsername string
	StarsAmount      int64
	Price            int64
	Points           int64
}

// OrderStore keeps orders under order:<id> for seven days.
type OrderStore struct {
	kv      KeyValue
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
	now     func() time.Time
	newID   IDGenerator
}

// OrderOption customizes an OrderStore.
type OrderOption func(*OrderStore)

// WithIDGenerator replaces GenerateOrderID.
func WithIDGenerator(gen IDGenerator) OrderOption {
	return func(s *OrderStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOrderStore builds an OrderStore. kv may be nil, in which case every order degrades.
func NewOrderStore(kv KeyValue, breaker *apperrors.CircuitBreaker, log *slog.Logger, opts ...OrderOption) *OrderStore {
	if log == nil {
		log = slog.Default()
	}

	s := &OrderStore{
		kv:      kv,
		breaker: breaker,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   GenerateOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder stamps id, creation time and pending status, then persists the order.
// The returned order always carries an id, even when it could not be stored.
func (s *OrderStore) CreateOrder(ctx context.Context, in NewOrder) (*domain.Order, Outcome) {
	order := &domain.Order{
		UserID:           in.UserID,
		Username:         in.Username,
		FirstName:        in.FirstName,
		TelegramUsername: in.TelegramUsername,
		StarsAmount:      in.StarsAmount,
		Price:            in.Price,
		Points:           in.Points,
		Status:           domain.StatusPending,
		CreatedAt:        s.now(),
	}

	var lastErr error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		order.ID = s.newID(order.CreatedAt)

		written, err := s.insert(ctx, order)
		if err != nil {
			return order, s.degraded(ctx, order, err)
		}
		if written {
			metrics.RecordOrder("stored")
			s.log.InfoContext(ctx, "order created",
				slog.String("order_id", order.ID),
				slog.Int64("user_id", order.UserID),
				slog.Int64("stars_amount", order.StarsAmount),
				slog.Int64("price", order.Price),
			)
			return order, Stored()
		}

		lastErr = ErrOrderIDCollision
		s.log.WarnContext(ctx, "order id collision", slog.String("order_id", order.ID))
	}

	order.ID = s.newID(order.CreatedAt)
	return order, s.degraded(ctx, order, lastErr)
}

// GetOrder loads an order by id.
func (s *OrderStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var data string
	err := guard(s.kv, s.breaker, func() error {
		var getErr error
		data, getErr = s.kv.Get(ctx, orderKeyPrefix+id)
		return getErr
	})
	if isMiss(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	var order domain.Order
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	return &order, nil
}

// RecentOrders returns up to limit unexpired orders, newest first, optionally filtered by status.
func (s *OrderStore) RecentOrders(ctx context.Context, limit int, status *domain.OrderStatus) ([]*domain.Order, error) {
	var keys []string
	err := guard(s.kv, s.breaker, func() error {
		var scanErr error
		keys, scanErr = s.kv.ScanKeys(ctx, orderKeyPrefix+"*")
		return scanErr
	})
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	orders := make([]*domain.Order, 0, len(keys))
	for _, key := range keys {
		order, err := s.GetOrder(ctx, strings.TrimPrefix(key, orderKeyPrefix))
		if errors.Is(err, ErrOrderNotFound) {
			continue
		}
		if err != nil {
			s.log.WarnContext(ctx, "skipping unreadable order", slog.String("key", key), slog.Any("error", err))
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		orders = append(orders, order)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *OrderStore) insert(ctx context.Context, order *domain.Order) (bool, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return false, fmt.Errorf("encode order: %w", err)
	}

	var written bool
	err = guard(s.kv, s.breaker, func() error {
		var setErr error
		written, setErr = s.kv.SetNX(ctx, orderKeyPrefix+order.ID, payload, OrderTTL)
		return setErr
	})
	return written, err
}

func (s *OrderStore) degraded(ctx context.Context, order *domain.Order, err error) Outcome {
	metrics.RecordOrder("degraded")
	metrics.RecordStoreDegraded("order", "create")
	s.log.ErrorContext(ctx, "order not persisted",
		slog.String("order_id", order.ID),
		slog.Int64("user_id", order.UserID),
		slog.Any("error", err),
	)
	return Degraded(err)
}
