package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

// NewSettingsHandler returns the /settings command handler.
func NewSettingsHandler(profiles Profiles, kb *keyboard.Builder, tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		profile, _ := profiles.GetProfile(Context(c), sender.ID)
		return c.Send(settingsText(tr, profile.Notifications), kb.Settings(profile.Notifications), telebot.ModeHTML)
	}
}

// NewSettingsCallbackHandler handles "settings:<action>" callbacks.
func NewSettingsCallbackHandler(profiles Profiles, kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender, cb := c.Sender(), c.Callback()
		if sender == nil || cb == nil {
			return nil
		}
		ctx := Context(c)

		_, action, err := keyboard.DecodeCallback(cb.Data)
		if err != nil || action != keyboard.SettingsNotifications {
			log.WarnContext(ctx, "unknown settings action", slog.String("data", cb.Data))
			return respondCallback(c, tr.T("errors.generic"), true)
		}

		profile, _ := profiles.GetProfile(ctx, sender.ID)
		enabled := !profile.Notifications

		if outcome := profiles.UpdateProfile(ctx, sender.ID, domain.ProfileUpdate{Notifications: &enabled}); outcome.Degraded {
			return respondCallback(c, tr.T("errors.generic"), true)
		}

		status := "settings.disabled"
		if enabled {
			status = "settings.enabled"
		}
		if err := respondCallback(c, tr.T(status), false); err != nil {
			log.DebugContext(ctx, "failed to answer callback", slog.Any("error", err))
		}

		return c.Edit(settingsText(tr, enabled), kb.Settings(enabled), telebot.ModeHTML)
	}
}

func settingsText(tr i18n.Translator, notifications bool) string {
	state := tr.T("settings.off")
	if notifications {
		state = tr.T("settings.on")
	}
	return tr.Tf("settings.view", i18n.Vars{"notifications": state})
}

func respondCallback(c telebot.Context, text string, alert bool) error {
	return c.Respond(&telebot.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}
