package handlers

import (
	"html"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
)

// NewStartHandler records the sender's Telegram names and shows the role's main menu.
func NewStartHandler(profiles Profiles, roles identity.Resolver, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		username, firstName := sender.Username, sender.FirstName
		profiles.UpdateProfile(Context(c), sender.ID, domain.ProfileUpdate{
			Username:  &username,
			FirstName: &firstName,
		})

		name := firstName
		if name == "" {
			name = username
		}

		text := tr.Tf("start.welcome", i18n.Vars{"name": html.EscapeString(name)})
		return c.Send(text, keyboard.MainMenu(tr, roles.Role(sender.ID)), telebot.ModeHTML)
	}
}

// NewMenuHintHandler answers unmatched messages by pointing at the main menu.
func NewMenuHintHandler(roles identity.Resolver, tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		return c.Send(tr.T("menu.hint"), keyboard.MainMenu(tr, roles.Role(sender.ID)))
	}
}
