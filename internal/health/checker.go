// Package health aggregates component checks for the readiness probe.
package health

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gopkg.in/telebot.v3"
)

const checkTimeout = 2 * time.Second

// Status of a component or of the whole process.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

type registered struct {
	check    Checkable
	critical bool
}

// Report is the outcome of one Check run.
type Report struct {
	Status     Status            `json:"status"`
	Components map[string]string `json:"components"`
}

// Checker aggregates health checks for multiple components. A failing critical component
// makes the process down; any other failure only degrades it.
type Checker struct {
	log    *slog.Logger
	mu     sync.RWMutex
	checks map[string]registered
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:    log,
		checks: make(map[string]registered),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable, critical bool) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registered{check: check, critical: critical}
}

// Names lists the registered components.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all registered health checks and returns their statuses.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]registered, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{Status: StatusOK, Components: make(map[string]string, len(checks))}

	for name, r := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := r.check.HealthCheck(checkCtx)
		cancel()

		if err == nil {
			report.Components[name] = string(StatusOK)
			continue
		}

		report.Components[name] = err.Error()
		c.log.Warn("health check failed", slog.String("component", name), slog.Bool("critical", r.critical), slog.Any("error", err))

		switch {
		case r.critical:
			report.Status = StatusDown
		case report.Status == StatusOK:
			report.Status = StatusDegraded
		}
	}

	return report
}

// DBChecker verifies connectivity to the PostgreSQL archive.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker constructs a DBChecker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database to ensure it is reachable.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return sql.ErrConnDone
	}
	return c.db.PingContext(ctx)
}

// Pinger is the part of the Redis client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return errors.New("redis is not configured")
	}
	return c.pinger.Ping(ctx)
}

// TelegramChecker verifies that the bot authenticated against the Telegram API.
type TelegramChecker struct {
	bot *telebot.Bot
}

// NewTelegramChecker constructs a TelegramChecker.
func NewTelegramChecker(bot *telebot.Bot) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

// HealthCheck ensures the underlying bot is initialized.
func (c *TelegramChecker) HealthCheck(context.Context) error {
	if c == nil || c.bot == nil || c.bot.Me == nil {
		return errors.New("telegram bot is not initialized")
	}
	return nil
}
