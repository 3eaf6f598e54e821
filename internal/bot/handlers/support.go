package handlers

import (
	"html"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

// NewSupportHandler shows the support contact.
func NewSupportHandler(tr i18n.Translator, supportUsername string) Handler {
	contact := "@" + strings.TrimPrefix(strings.TrimSpace(supportUsername), "@")

	return func(c telebot.Context) error {
		return c.Send(tr.Tf("support.view", i18n.Vars{"support": html.EscapeString(contact)}), telebot.ModeHTML)
	}
}

// NewHelpHandler lists the available commands.
func NewHelpHandler(tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(tr.T("help.view"), telebot.ModeHTML)
	}
}
