package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

const (
	contextKey = "ctx"
	routeKey   = "route"
)

// WithContext attaches ctx to the update so downstream handlers share its values.
func WithContext(c telebot.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// Context returns the context attached by WithContext, or context.Background.
func Context(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// SetRoute names the handler chosen for the update.
func SetRoute(c telebot.Context, name string) {
	c.Set(routeKey, name)
}

// RouteName returns the name set by SetRoute, or "unknown".
func RouteName(c telebot.Context) string {
	if c != nil {
		if name, ok := c.Get(routeKey).(string); ok && name != "" {
			return name
		}
	}
	return "unknown"
}
