package handlers

import (
	"errors"
	"html"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
)

// NewUsernameHandler captures the buyer's storefront username and shows payment instructions.
func NewUsernameHandler(flow Purchases, tr i18n.Translator, cardNumber string) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		conv, err := flow.SubmitUsername(Context(c), sender.ID, c.Text())
		switch {
		case errors.Is(err, purchase.ErrInvalidUsername):
			return c.Send(tr.T("username.invalid"))
		case errors.Is(err, purchase.ErrNotExpected):
			return nil
		case err != nil:
			return err
		}

		return c.Send(tr.Tf("payment.instructions", i18n.Vars{
			"amount":   conv.Package.Amount,
			"price":    conv.Package.Price,
			"username": html.EscapeString(conv.TelegramUsername),
			"points":   conv.Package.Points,
			"card":     html.EscapeString(cardNumber),
		}), telebot.ModeHTML)
	}
}

// NewPaymentHandler turns the payment screenshot into an order.
func NewPaymentHandler(flow Purchases, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender, msg := c.Sender(), c.Message()
		if sender == nil || msg == nil || msg.Photo == nil {
			return nil
		}
		ctx := Context(c)

		receipt, err := flow.SubmitPayment(ctx, purchase.Buyer{
			ID:        sender.ID,
			Username:  sender.Username,
			FirstName: sender.FirstName,
		}, purchase.Proof{FileID: msg.Photo.FileID})
		switch {
		case errors.Is(err, purchase.ErrNotExpected):
			return nil
		case errors.Is(err, state.ErrStateLocked):
			return err
		case err != nil:
			log.ErrorContext(ctx, "payment screenshot not processed", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			return c.Send(tr.T("payment.failed"))
		}

		return c.Send(tr.Tf("payment.received", i18n.Vars{"order_id": receipt.Order.ID}), telebot.ModeHTML)
	}
}
