package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

const registrationLayout = "2006-01-02T15:04"

// NewProfileHandler shows the sender's loyalty level and totals.
func NewProfileHandler(profiles Profiles, tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		profile, _ := profiles.GetProfile(Context(c), sender.ID)
		return c.Send(ProfileText(tr, profile), telebot.ModeHTML)
	}
}

// ProfileText renders the profile card.
func ProfileText(tr i18n.Translator, p *domain.Profile) string {
	return tr.Tf("profile.view", i18n.Vars{
		"level":      tr.T("profile.level." + string(p.Level())),
		"stars":      p.TotalStars,
		"spent":      p.TotalSpent,
		"points":     p.Points,
		"orders":     p.OrdersCount,
		"registered": p.RegistrationDate.Format(registrationLayout),
	})
}
