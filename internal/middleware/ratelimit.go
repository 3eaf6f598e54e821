package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/handlers"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	tr      i18n.Translator
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, tr i18n.Translator, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		tr:      tr,
		log:     log,
		now:     time.Now,
	}
}

// Handle returns a telebot middleware that enforces per-user rate limits.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		limit, window := m.rules.PerUser()
		if limit <= 0 {
			return next(c)
		}

		key := fmt.Sprintf("user:%d", userID)
		result, err := m.limiter.Check(handlers.Context(c), key, limit, window)
		switch {
		case errors.Is(err, ratelimit.ErrLimitExceeded), err == nil && result != nil && !result.Allowed:
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
			return m.reject(c, result)
		case err != nil:
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) reject(c telebot.Context, result *ratelimit.Result) error {
	seconds := 1
	if result != nil {
		if wait := result.ResetAt.Sub(m.now()); wait > 0 {
			seconds = int(math.Ceil(wait.Seconds()))
		}
	}

	text := fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds)
	if m.tr != nil {
		text = m.tr.Tf("errors.rate_limited", i18n.Vars{"seconds": seconds})
	}

	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
