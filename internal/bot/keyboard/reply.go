package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

// MenuKeys lists the translation keys of every reply menu button, per role.
var MenuKeys = map[domain.Role][][]string{
	domain.RoleUser: {
		{"menu.buy", "menu.profile"},
		{"menu.help"},
	},
	domain.RoleAdmin: {
		{"menu.stats", "menu.orders"},
		{"menu.users"},
	},
}

// MainMenu builds a localized reply keyboard for the role's main menu.
func MainMenu(t i18n.Translator, role domain.Role) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	layout, ok := MenuKeys[role]
	if !ok {
		layout = MenuKeys[domain.RoleUser]
	}

	rows := make([]telebot.Row, 0, len(layout))
	for _, keys := range layout {
		buttons := make([]telebot.Btn, 0, len(keys))
		for _, key := range keys {
			buttons = append(buttons, markup.Text(lookup(key)))
		}
		rows = append(rows, markup.Row(buttons...))
	}
	markup.Reply(rows...)

	return markup
}
