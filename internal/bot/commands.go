package bot

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
)

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandHelp     = "/help"
	CommandCancel   = "/cancel"
	CommandBuy      = "/buy"
	CommandProfile  = "/profile"
	CommandSettings = "/settings"
)

// Callback prefix constants for inline button interactions.
const (
	CallbackBuy        = catalog.CallbackPrefix
	CallbackSettings   = keyboard.SettingsAction + keyboard.CallbackDataSeparator
	CallbackOrdersPage = keyboard.OrdersPageAction + keyboard.CallbackDataSeparator
)

// Route names used as low-cardinality metric and log labels.
const (
	RouteStart        = "start"
	RouteHelp         = "help"
	RouteCancel       = "cancel"
	RouteBuyMenu      = "buy_menu"
	RouteProfile      = "profile"
	RouteSettings     = "settings"
	RouteSupport      = "support"
	RouteAdminStats   = "admin_stats"
	RouteAdminOrders  = "admin_orders"
	RouteAdminUsers   = "admin_users"
	RouteBuyCallback  = "buy_callback"
	RouteSettingsCB   = "settings_callback"
	RouteOrdersPageCB = "orders_page_callback"
	RouteUsername     = "username"
	RoutePayment      = "payment"
	RouteMenuHint     = "menu_hint"
	RouteUnmatched    = "unmatched"
)

// MenuCommands is the command list published to Telegram.
func MenuCommands() []telebot.Command {
	return []telebot.Command{
		{Text: "start", Description: "Start the bot"},
		{Text: "help", Description: "Help"},
		{Text: "cancel", Description: "Cancel the current action"},
		{Text: "settings", Description: "Notification settings"},
	}
}
