// Package purchase drives the Stars purchase dialogue: package selection, username capture and
// payment screenshot capture.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/repository"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
)

var (
	// ErrInvalidUsername is returned when the submitted username fails validation.
	// The conversation stays at the username step.
	ErrInvalidUsername = errors.New("invalid storefront username")
	// ErrUnknownPackage is returned for a callback naming no catalog package.
	ErrUnknownPackage = errors.New("unknown package")
	// ErrNotExpected is returned when an event does not match the user's current step.
	ErrNotExpected = state.ErrInvalidTransition
)

// Buyer identifies the Telegram account sending an event.
type Buyer struct {
	ID        int64
	Username  string
	FirstName string
}

// Proof references the payment screenshot received from the buyer.
type Proof struct {
	FileID string
}

// Receipt is the result of a completed purchase.
type Receipt struct {
	Order   *domain.Order
	Outcome repository.Outcome
}

// OrderCreator persists a new order. repository.OrderStore implements it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in repository.NewOrder) (*domain.Order, repository.Outcome)
}

// OrderListener observes created orders, including ones the store could not persist.
// Errors are logged and never fail the purchase.
type OrderListener interface {
	OrderCreated(ctx context.Context, receipt Receipt, proof Proof) error
}

// Validator accepts or rejects free text.
type Validator interface {
	Valid(text string) bool
}

// Flow wires the conversation state machine to the catalog and order store.
type Flow struct {
	machine   *state.Machine
	catalog   *catalog.Catalog
	orders    OrderCreator
	validator Validator
	listeners []OrderListener
	log       *slog.Logger
}

// NewFlow builds a Flow. Listeners run in order after every order is created.
func NewFlow(machine *state.Machine, cat *catalog.Catalog, orders OrderCreator, validator Validator, log *slog.Logger, listeners ...OrderListener) *Flow {
	if log == nil {
		log = slog.Default()
	}

	return &Flow{
		machine:   machine,
		catalog:   cat,
		orders:    orders,
		validator: validator,
		listeners: listeners,
		log:       log,
	}
}

// Step returns the user's current conversation step.
func (f *Flow) Step(ctx context.Context, userID int64) (state.Step, error) {
	return f.machine.Step(ctx, userID)
}

// SelectByCallback resolves a buy_<key> callback payload and starts the purchase.
func (f *Flow) SelectByCallback(ctx context.Context, userID int64, data string) (catalog.Package, error) {
	pkg, ok := f.catalog.FromCallback(data)
	if !ok {
		return catalog.Package{}, fmt.Errorf("%w: %q", ErrUnknownPackage, data)
	}
	return pkg, f.Select(ctx, userID, pkg)
}

// Select starts a purchase of pkg, replacing any unfinished one.
func (f *Flow) Select(ctx context.Context, userID int64, pkg catalog.Package) error {
	if _, err := f.machine.Start(ctx, userID, pkg); err != nil {
		return err
	}

	f.log.InfoContext(ctx, "package selected", slog.Int64("user_id", userID), slog.String("package", pkg.Key))
	return nil
}

// SubmitUsername validates text as the buyer's public username and moves on to payment.
// A single leading "@" is stripped from accepted input.
func (f *Flow) SubmitUsername(ctx context.Context, userID int64, text string) (*state.Conversation, error) {
	text = strings.TrimSpace(text)

	return f.machine.Advance(ctx, userID, state.StepAwaitingUsername, state.StepAwaitingPayment, func(conv *state.Conversation) error {
		if !f.validator.Valid(text) {
			return ErrInvalidUsername
		}
		conv.TelegramUsername = strings.TrimPrefix(text, "@")
		return nil
	})
}

// SubmitPayment records an order for the buyer's pending purchase and ends the conversation.
// The conversation is cleared even when creating the order fails.
func (f *Flow) SubmitPayment(ctx context.Context, buyer Buyer, proof Proof) (*Receipt, error) {
	var receipt *Receipt

	err := f.machine.Complete(ctx, buyer.ID, state.StepAwaitingPayment, func(conv state.Conversation) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic while creating order: %v", r)
			}
		}()

		order, outcome := f.orders.CreateOrder(ctx, repository.NewOrder{
			UserID:           buyer.ID,
			Username:         buyer.Username,
			FirstName:        buyer.FirstName,
			TelegramUsername: conv.TelegramUsername,
			StarsAmount:      conv.Package.Amount,
			Price:            conv.Package.Price,
			Points:           conv.Package.Points,
		})
		if order == nil {
			return errors.New("order store returned no order")
		}

		receipt = &Receipt{Order: order, Outcome: outcome}
		return nil
	})
	if err != nil {
		if !errors.Is(err, state.ErrInvalidTransition) {
			f.log.ErrorContext(ctx, "payment processing failed", slog.Int64("user_id", buyer.ID), slog.Any("error", err))
		}
		return nil, err
	}

	for _, listener := range f.listeners {
		if err := listener.OrderCreated(ctx, *receipt, proof); err != nil {
			f.log.WarnContext(ctx, "order listener failed",
				slog.String("order_id", receipt.Order.ID),
				slog.String("listener", fmt.Sprintf("%T", listener)),
				slog.Any("error", err),
			)
		}
	}

	return receipt, nil
}

// Cancel abandons the purchase in progress and reports whether there was one.
func (f *Flow) Cancel(ctx context.Context, userID int64) (bool, error) {
	return f.machine.Cancel(ctx, userID)
}
