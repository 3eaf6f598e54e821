package bot

import (
	"context"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/handlers"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
)

// StepReader reports a user's conversation step. purchase.Flow and state.Machine implement it.
type StepReader interface {
	Step(ctx context.Context, userID int64) (state.Step, error)
}

// Content is the kind of message a state handler accepts.
type Content uint8

const (
	ContentText Content = iota
	ContentPhoto
)

type stateRoute struct {
	name    string
	handler handlers.Handler
}

type stateKey struct {
	step    state.Step
	content Content
}

// Dispatcher routes messages to the handler registered for the sender's step and the message
// content. Messages of any other content are left unhandled.
type Dispatcher struct {
	steps  StepReader
	routes map[stateKey]stateRoute
	log    *slog.Logger
	mu     sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(steps StepReader, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		steps:  steps,
		routes: make(map[stateKey]stateRoute),
		log:    log,
	}
}

// RegisterStateHandler registers a handler for messages of content received at step.
func (d *Dispatcher) RegisterStateHandler(step state.Step, content Content, name string, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[stateKey{step: step, content: content}] = stateRoute{name: name, handler: h}
}

// Resolve returns the route for the update, or a nil handler when none applies.
func (d *Dispatcher) Resolve(c telebot.Context) (string, handlers.Handler, error) {
	if d.steps == nil || c == nil || c.Sender() == nil {
		return "", nil, nil
	}

	msg := c.Message()
	if msg == nil {
		return "", nil, nil
	}

	content := ContentText
	switch {
	case msg.Photo != nil:
		content = ContentPhoto
	case msg.Text == "":
		return "", nil, nil
	}

	step, err := d.steps.Step(handlers.Context(c), c.Sender().ID)
	if err != nil {
		return "", nil, err
	}
	if step == state.StepIdle {
		return "", nil, nil
	}

	d.mu.RLock()
	route, ok := d.routes[stateKey{step: step, content: content}]
	d.mu.RUnlock()
	if !ok {
		d.log.Debug("no handler registered for step", "step", step, "user_id", c.Sender().ID)
		return "", nil, nil
	}

	return route.name, route.handler, nil
}
