package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/handlers"
	errors "github.com/Kamron201111/telegram-stars-bot/internal/errors"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
	"github.com/Kamron201111/telegram-stars-bot/internal/repository"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
	"github.com/Kamron201111/telegram-stars-bot/pkg/logger"
	"github.com/Kamron201111/telegram-stars-bot/pkg/metrics"
)

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, tr i18n.Translator) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := handlers.Context(c)
					log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
					metrics.RecordError("panic", string(errors.SeverityCritical))

					userMsg := userMessage(ctx, errHandler, tr, fmt.Errorf("panic recovered: %v", r))
					if sendErr := c.Send(userMsg); sendErr != nil {
						log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *errors.Handler, tr i18n.Translator) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			ctx := handlers.Context(c)
			var userMsg string
			if stdErrors.Is(err, state.ErrStateLocked) {
				userMsg = tr.T("errors.busy")
			} else {
				userMsg = userMessage(ctx, errHandler, tr, err)
				metrics.RecordError(errorType(err), severityOf(err))
			}

			if c.Callback() != nil {
				_ = c.Respond(&telebot.CallbackResponse{Text: userMsg, ShowAlert: true})
				return nil
			}
			_ = c.Send(userMsg)
			return nil
		}
	}
}

func userMessage(ctx context.Context, errHandler *errors.Handler, tr i18n.Translator, err error) string {
	msg := ""
	if errHandler != nil {
		msg = errHandler.Handle(ctx, err)
	}
	if msg == "" || msg == errors.DefaultUserMessage {
		msg = tr.T("errors.generic")
	}
	return msg
}

func errorType(err error) string {
	var appErr *errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code
	}
	return "unknown"
}

func severityOf(err error) string {
	var appErr *errors.AppError
	if stdErrors.As(err, &appErr) {
		return string(appErr.Severity)
	}
	return string(errors.SeverityHigh)
}

// LoggingMiddleware tags the update with a correlation id and logs basic telemetry about it.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			ctx := logger.WithCorrelationID(handlers.Context(c))
			handlers.WithContext(c, ctx)

			userID := int64(0)
			if c.Sender() != nil {
				userID = c.Sender().ID
			}

			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("route", handlers.RouteName(c)),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// ProfileToucher refreshes a user's last activity, creating the profile on first contact.
type ProfileToucher interface {
	Touch(ctx context.Context, userID int64) repository.Outcome
}

// LastActiveMiddleware records user activity before the handler runs.
// Storage problems are absorbed by the store and never block the update.
func LastActiveMiddleware(profiles ProfileToucher) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if profiles != nil && c.Sender() != nil {
				profiles.Touch(handlers.Context(c), c.Sender().ID)
			}
			return next(c)
		}
	}
}

// AdminOnlyMiddleware ensures that only the administrator can invoke downstream handlers.
func AdminOnlyMiddleware(roles identity.Resolver, tr i18n.Translator) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if c.Sender() == nil || !roles.IsAdmin(c.Sender().ID) {
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: tr.T("admin.forbidden"), ShowAlert: true})
				}
				return c.Send(tr.T("admin.forbidden"))
			}
			return next(c)
		}
	}
}
