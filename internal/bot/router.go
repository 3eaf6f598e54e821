package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/handlers"
)

type route struct {
	name    string
	handler handlers.Handler
}

type callbackRoute struct {
	prefix string
	route
}

// Router dispatches commands, menu texts, callbacks and state-aware updates, in that order.
// Middlewares wrap the whole resolution, so they see every update once.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]route
	texts          map[string]route
	callbacks      []callbackRoute
	dispatcher     *Dispatcher
	defaultHandler *route
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]route),
		texts:       make(map[string]route),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/start".
func (r *Router) RegisterCommand(cmd, name string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = route{name: name, handler: h}
}

// RegisterText registers a handler for an exact message text, e.g. a reply menu button.
func (r *Router) RegisterText(text, name string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts[text] = route{name: name, handler: h}
}

// RegisterCallback registers a handler for callback data prefixes. Earlier registrations win.
func (r *Router) RegisterCallback(prefix, name string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, callbackRoute{prefix: prefix, route: route{name: name, handler: handlers.Handler(h)}})
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for unmatched text messages.
func (r *Router) SetDefault(name string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = &route{name: name, handler: h}
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	wrapped := r.applyMiddlewares(r.resolve)
	return wrapped(c)
}

func (r *Router) resolve(c telebot.Context) error {
	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}
	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	rt, ok := r.findCallback(data)
	if !ok {
		r.log.Info("no callback handler found", "data", data)
		handlers.SetRoute(c, RouteUnmatched)
		return c.Respond()
	}
	return r.run(c, rt)
}

func (r *Router) handleMessage(c telebot.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		if rt, ok := r.command(text); ok {
			return r.run(c, rt)
		}
	}

	if text != "" {
		if rt, ok := r.text(text); ok {
			return r.run(c, rt)
		}
	}

	if r.dispatcher != nil {
		name, h, err := r.dispatcher.Resolve(c)
		if err != nil {
			return err
		}
		if h != nil {
			return r.run(c, route{name: name, handler: h})
		}
	}

	if text != "" {
		if rt := r.getDefault(); rt != nil {
			return r.run(c, *rt)
		}
	}

	handlers.SetRoute(c, RouteUnmatched)
	return nil
}

func (r *Router) run(c telebot.Context, rt route) error {
	handlers.SetRoute(c, rt.name)
	if rt.handler == nil {
		return nil
	}
	return rt.handler(c)
}

// command matches "/cmd", "/cmd args" and "/cmd@botname".
func (r *Router) command(text string) (route, bool) {
	cmd := strings.Fields(text)[0]
	cmd, _, _ = strings.Cut(cmd, "@")

	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.commands[cmd]
	return rt, ok
}

func (r *Router) text(text string) (route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.texts[text]
	return rt, ok
}

func (r *Router) findCallback(data string) (route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cb := range r.callbacks {
		if strings.HasPrefix(data, cb.prefix) {
			return cb.route, true
		}
	}
	return route{}, false
}

func (r *Router) getDefault() *route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultHandler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		if next := middlewares[i](wrapped); next != nil {
			wrapped = next
		}
	}
	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
