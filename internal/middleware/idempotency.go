package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/handlers"
	"github.com/Kamron201111/telegram-stars-bot/internal/idempotency"
)

// UpdateTTL is how long a handled update is remembered. Telegram stops redelivering long before.
const UpdateTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram update.
// When the idempotency store is unreachable the handler runs unguarded.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := UpdateKey(c)
			if key == "" {
				return next(c)
			}

			ctx := handlers.Context(c)
			ran := false
			var handlerErr error

			result, err := manager.Execute(ctx, key, UpdateTTL, func(context.Context) (interface{}, error) {
				ran = true
				handlerErr = next(c)
				return nil, handlerErr
			})
			if ran {
				return handlerErr
			}

			switch {
			case errors.Is(err, idempotency.ErrRequestInProgress):
				log.DebugContext(ctx, "duplicate update dropped while in progress", slog.String("key", key))
				return nil
			case err != nil:
				log.WarnContext(ctx, "idempotency check failed, handling update anyway", slog.String("key", key), slog.Any("error", err))
				return next(c)
			case result != nil && result.FromCache:
				log.DebugContext(ctx, "duplicate update dropped", slog.String("key", key))
			}

			return nil
		}
	}
}

// UpdateKey derives the idempotency key of the update carried by c, or "" when there is none.
func UpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if id := c.Update().ID; id != 0 {
		return idempotency.GenerateKey("update", id)
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return idempotency.GenerateKey("callback", cb.ID)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return idempotency.GenerateKey("message", chatID, msg.ID)
	}

	return ""
}
