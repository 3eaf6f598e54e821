package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

// NewCancelHandler abandons the purchase in progress, if any.
func NewCancelHandler(flow Purchases, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}

		cancelled, err := flow.Cancel(Context(c), sender.ID)
		if err != nil {
			return err
		}

		if !cancelled {
			return c.Send(tr.T("cancel.nothing"))
		}
		return c.Send(tr.T("cancel.done"))
	}
}
