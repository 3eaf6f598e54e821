package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

const (
	// SettingsAction prefixes settings callbacks, e.g. "settings:notifications".
	SettingsAction = "settings"
	// SettingsNotifications toggles the notification preference.
	SettingsNotifications = "notifications"
	// OrdersPageAction prefixes admin order list page callbacks, e.g. "orders_page:2".
	OrdersPageAction = "orders_page"
)

// Builder creates the bot's inline keyboards.
type Builder struct {
	tr  i18n.Translator
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(tr i18n.Translator, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{tr: tr, log: log}
}

// Packages lists every package, one per row, in catalog order.
func (b *Builder) Packages(packages []catalog.Package) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, pkg := range packages {
		kb.AddRow(InlineButton{
			Text:   b.PackageLabel(pkg),
			Unique: pkg.CallbackData(),
		})
	}
	return b.build(kb)
}

// PackageLabel renders the buy button text, with the discount suffix when there is one.
func (b *Builder) PackageLabel(pkg catalog.Package) string {
	label := b.tr.Tf("buy.button", i18n.Vars{"amount": pkg.Amount, "price": pkg.Price})
	if pkg.Discount > 0 {
		label += b.tr.Tf("buy.discount_suffix", i18n.Vars{"discount": pkg.Discount})
	}
	return label
}

// Settings builds the notification toggle.
func (b *Builder) Settings(notifications bool) *telebot.ReplyMarkup {
	key := "settings.enable"
	if notifications {
		key = "settings.disable"
	}

	return b.build(NewInlineKeyboard().AddRow(InlineButton{
		Text:   b.tr.T(key),
		Unique: SettingsAction,
		Data:   SettingsNotifications,
	}))
}

// OrdersPage builds the pagination row of the admin order list, or nil for a single page.
func (b *Builder) OrdersPage(page, totalPages int) *telebot.ReplyMarkup {
	if totalPages <= 1 {
		return nil
	}
	return b.build(NewInlineKeyboard().AddRow(PaginationButtons(b.tr, OrdersPageAction, page, totalPages)...))
}

func (b *Builder) build(kb *InlineKeyboardBuilder) *telebot.ReplyMarkup {
	markup, err := kb.Build()
	if err != nil {
		b.log.Error("failed to build inline keyboard", slog.Any("error", err))
		return &telebot.ReplyMarkup{}
	}
	return markup
}
