package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/handlers"
	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	errors "github.com/Kamron201111/telegram-stars-bot/internal/errors"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/idempotency"
	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
	"github.com/Kamron201111/telegram-stars-bot/internal/middleware"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
	"github.com/Kamron201111/telegram-stars-bot/pkg/config"
)

// ProfileStore is everything the bot needs from profile storage.
type ProfileStore interface {
	handlers.Profiles
	handlers.ProfileCounter
	ProfileToucher
}

// PurchaseFlow is the purchase dialogue plus the step lookup used for routing.
type PurchaseFlow interface {
	handlers.Purchases
	StepReader
}

// Deps are the application services the bot routes updates to.
type Deps struct {
	Catalog       *catalog.Catalog
	Roles         identity.Resolver
	Profiles      ProfileStore
	Orders        handlers.OrderReader
	Flow          PurchaseFlow
	Conversations handlers.ConversationLister
	Translator    i18n.Translator
	Idempotency   idempotency.Manager
	RateLimit     *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	deps       Deps
	router     *Router
	dispatcher *Dispatcher
	keyboard   *keyboard.Builder
	errHandler *errors.Handler
}

// NewTelebot builds the Telegram client described by cfg. Errors surfacing outside
// a handler chain are logged.
func NewTelebot(cfg config.BotConfig, log *slog.Logger) (*telebot.Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telegram update failed", slog.Any("error", err))
		},
	}

	if cfg.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}
	return tb, nil
}

// New registers every route of the storefront on tb.
func New(tb *telebot.Bot, cfg config.Config, deps Deps, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}

	dispatcher := NewDispatcher(deps.Flow, log)
	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		deps:       deps,
		router:     NewRouter(dispatcher, log),
		dispatcher: dispatcher,
		keyboard:   keyboard.NewBuilder(deps.Translator, log),
		errHandler: errors.NewHandler(log, cfg.Sentry.Enabled),
	}

	b.setupRouter()

	if tb != nil {
		if deps.RateLimit != nil {
			tb.Use(deps.RateLimit.Handle)
		}
		b.registerTelebotHandlers()
	}

	return b
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	if err := b.telebot.SetCommands(MenuCommands()); err != nil {
		b.log.Warn("failed to publish bot commands", slog.Any("error", err))
	}
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router exposes the update router.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupRouter() {
	d := b.deps
	tr := d.Translator

	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler, tr))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler, tr))
	b.router.Use(middleware.Idempotency(d.Idempotency, b.log))
	b.router.Use(LastActiveMiddleware(d.Profiles))
	b.router.Use(middleware.Metrics)

	buyMenu := handlers.NewBuyMenuHandler(d.Catalog, b.keyboard, tr)
	profile := handlers.NewProfileHandler(d.Profiles, tr)
	support := handlers.NewSupportHandler(tr, b.cfg.Support.Username)

	b.router.RegisterCommand(CommandStart, RouteStart, handlers.NewStartHandler(d.Profiles, d.Roles, tr, b.log))
	b.router.RegisterCommand(CommandHelp, RouteHelp, handlers.NewHelpHandler(tr))
	b.router.RegisterCommand(CommandCancel, RouteCancel, handlers.NewCancelHandler(d.Flow, tr, b.log))
	b.router.RegisterCommand(CommandBuy, RouteBuyMenu, buyMenu)
	b.router.RegisterCommand(CommandProfile, RouteProfile, profile)
	b.router.RegisterCommand(CommandSettings, RouteSettings, handlers.NewSettingsHandler(d.Profiles, b.keyboard, tr))

	b.router.RegisterText(tr.T("menu.buy"), RouteBuyMenu, buyMenu)
	b.router.RegisterText(tr.T("menu.profile"), RouteProfile, profile)
	b.router.RegisterText(tr.T("menu.help"), RouteSupport, support)

	admin := handlers.NewAdmin(d.Profiles, d.Orders, d.Conversations, b.keyboard, tr, b.log)
	adminOnly := AdminOnlyMiddleware(d.Roles, tr)
	b.router.RegisterText(tr.T("menu.stats"), RouteAdminStats, adminOnly(admin.Stats))
	b.router.RegisterText(tr.T("menu.orders"), RouteAdminOrders, adminOnly(admin.Orders))
	b.router.RegisterText(tr.T("menu.users"), RouteAdminUsers, adminOnly(admin.Users))

	b.router.RegisterCallback(CallbackBuy, RouteBuyCallback, handlers.NewPackageHandler(d.Flow, tr, b.log))
	b.router.RegisterCallback(CallbackSettings, RouteSettingsCB, handlers.NewSettingsCallbackHandler(d.Profiles, b.keyboard, tr, b.log))
	b.router.RegisterCallback(CallbackOrdersPage, RouteOrdersPageCB, handlers.CallbackHandler(adminOnly(admin.OrdersPage)))

	b.dispatcher.RegisterStateHandler(state.StepAwaitingUsername, ContentText, RouteUsername, handlers.NewUsernameHandler(d.Flow, tr, b.cfg.Payment.CardNumber))
	b.dispatcher.RegisterStateHandler(state.StepAwaitingPayment, ContentPhoto, RoutePayment, handlers.NewPaymentHandler(d.Flow, tr, b.log))

	b.router.SetDefault(RouteMenuHint, handlers.NewMenuHintHandler(d.Roles, tr))
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnPhoto, b.router.Route)
}
