package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Kamron201111/telegram-stars-bot/pkg/logger"
)

// Handler logs errors, reports serious ones to Sentry and picks the user-facing text.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle returns the message to show the user. Validation errors are returned without logging.
func (h *Handler) Handle(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}

	if ctx == nil {
		ctx = context.Background()
	}

	attrs := make([]any, 0, 4)
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		attrs = append(attrs, slog.Any("error", err), slog.String("severity", string(SeverityHigh)))
		h.log.ErrorContext(ctx, "unknown error", attrs...)
		if h.sentryEnabled {
			h.sendToSentry(err)
		}
		return DefaultUserMessage
	}

	if appErr.Severity != SeverityLow {
		attrs = append(attrs,
			slog.String("code", appErr.Code),
			slog.String("severity", string(appErr.Severity)),
			slog.Any("error", err),
		)
		h.log.ErrorContext(ctx, "application error", attrs...)
	}

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.sendToSentry(err)
	}

	if appErr.UserMessage == "" {
		return DefaultUserMessage
	}
	return appErr.UserMessage
}

func (h *Handler) sendToSentry(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			scope.SetTag("code", appErr.Code)
			scope.SetTag("severity", string(appErr.Severity))
		}

		sentry.CaptureException(err)
	})
}
