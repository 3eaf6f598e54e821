// Package archive keeps a long-term Postgres copy of orders beyond the key-value retention window.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
	_ "github.com/lib/pq"
)

const insertOrder = `
INSERT INTO orders (
    order_id, user_id, username, first_name, telegram_username,
    stars_amount, price, points, status, proof_file_id, kv_persisted, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (order_id) DO NOTHING`

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Store writes orders to the archive table. It implements purchase.OrderListener.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore builds a Store on db.
func NewStore(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// OrderCreated archives the order, including orders the key-value store failed to keep.
func (s *Store) OrderCreated(ctx context.Context, receipt purchase.Receipt, proof purchase.Proof) error {
	o := receipt.Order
	_, err := s.db.ExecContext(ctx, insertOrder,
		o.ID, o.UserID, o.Username, o.FirstName, o.TelegramUsername,
		o.StarsAmount, o.Price, o.Points, o.Status.String(), proof.FileID,
		!receipt.Outcome.Degraded, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive order %s: %w", o.ID, err)
	}

	s.log.DebugContext(ctx, "order archived", slog.String("order_id", o.ID))
	return nil
}

// Count returns the number of archived orders.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archived orders: %w", err)
	}
	return n, nil
}

// Ping reports whether the archive database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
