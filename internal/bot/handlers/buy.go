package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
)

// NewBuyMenuHandler lists the catalog as inline buttons.
func NewBuyMenuHandler(cat *catalog.Catalog, kb *keyboard.Builder, tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(tr.T("buy.title"), kb.Packages(cat.Packages()), telebot.ModeHTML)
	}
}

// NewPackageHandler starts a purchase from a buy_<key> callback and asks for the username.
func NewPackageHandler(flow Purchases, tr i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender, cb := c.Sender(), c.Callback()
		if sender == nil || cb == nil {
			return nil
		}
		ctx := Context(c)

		if err := c.Respond(); err != nil {
			log.DebugContext(ctx, "failed to answer callback", slog.Any("error", err))
		}

		pkg, err := flow.SelectByCallback(ctx, sender.ID, cb.Data)
		switch {
		case errors.Is(err, purchase.ErrUnknownPackage):
			log.WarnContext(ctx, "unknown package selected", slog.Int64("user_id", sender.ID), slog.String("data", cb.Data))
			return c.Edit(tr.T("buy.unknown_package"))
		case err != nil:
			return err
		}

		return c.Edit(SelectionText(tr, pkg), telebot.ModeHTML)
	}
}

// SelectionText summarizes the chosen package and prompts for the storefront username.
func SelectionText(tr i18n.Translator, pkg catalog.Package) string {
	text := tr.Tf("buy.selected", i18n.Vars{
		"amount": pkg.Amount,
		"price":  pkg.Price,
		"points": pkg.Points,
	})
	if pkg.Discount > 0 {
		text += "\n" + tr.Tf("buy.selected_discount", i18n.Vars{"discount": pkg.Discount})
	}
	return text + "\n\n" + tr.T("buy.username_prompt")
}
