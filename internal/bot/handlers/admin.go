package handlers

import (
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

// OrdersPerPage is the page size of the admin order list.
const OrdersPerPage = 10

const orderTimeLayout = "2006-01-02 15:04"

// Admin serves the read-only administrator views.
type Admin struct {
	profiles      ProfileCounter
	orders        OrderReader
	conversations ConversationLister
	kb            *keyboard.Builder
	tr            i18n.Translator
	log           *slog.Logger
}

// NewAdmin builds the admin views. conversations may be nil.
func NewAdmin(profiles ProfileCounter, orders OrderReader, conversations ConversationLister, kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) *Admin {
	if log == nil {
		log = slog.Default()
	}

	return &Admin{
		profiles:      profiles,
		orders:        orders,
		conversations: conversations,
		kb:            kb,
		tr:            tr,
		log:           log,
	}
}

// Stats shows profile, order and conversation counts.
func (a *Admin) Stats(c telebot.Context) error {
	ctx := Context(c)

	profiles, err := a.profiles.CountProfiles(ctx)
	if err != nil {
		return err
	}

	orders, err := a.orders.RecentOrders(ctx, 0, nil)
	if err != nil {
		return err
	}

	pending := 0
	for _, order := range orders {
		if order.Status == domain.StatusPending {
			pending++
		}
	}

	conversations := 0
	if a.conversations != nil {
		active, err := a.conversations.List(ctx)
		if err != nil {
			a.log.WarnContext(ctx, "failed to list conversations", slog.Any("error", err))
		}
		conversations = len(active)
	}

	return c.Send(a.tr.Tf("admin.stats", i18n.Vars{
		"profiles":      profiles,
		"orders":        len(orders),
		"pending":       pending,
		"conversations": conversations,
	}), telebot.ModeHTML)
}

// Users shows the number of profiles touched within their 30-day retention.
func (a *Admin) Users(c telebot.Context) error {
	count, err := a.profiles.CountProfiles(Context(c))
	if err != nil {
		return err
	}
	return c.Send(a.tr.Tf("admin.users", i18n.Vars{"count": count}), telebot.ModeHTML)
}

// Orders shows the first page of pending orders.
func (a *Admin) Orders(c telebot.Context) error {
	text, markup, err := a.ordersPage(c, 1)
	if err != nil {
		return err
	}
	if markup == nil {
		return c.Send(text, telebot.ModeHTML)
	}
	return c.Send(text, markup, telebot.ModeHTML)
}

// OrdersPage handles "orders_page:<n>" callbacks.
func (a *Admin) OrdersPage(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}

	page := 1
	if _, data, err := keyboard.DecodeCallback(cb.Data); err == nil {
		if n, err := strconv.Atoi(data); err == nil {
			page = n
		}
	}

	_ = c.Respond()

	text, markup, err := a.ordersPage(c, page)
	if err != nil {
		return err
	}
	if markup == nil {
		return c.Edit(text, telebot.ModeHTML)
	}
	return c.Edit(text, markup, telebot.ModeHTML)
}

func (a *Admin) ordersPage(c telebot.Context, page int) (string, *telebot.ReplyMarkup, error) {
	pending := domain.StatusPending
	orders, err := a.orders.RecentOrders(Context(c), 0, &pending)
	if err != nil {
		return "", nil, err
	}
	if len(orders) == 0 {
		return a.tr.T("admin.orders_empty"), nil, nil
	}

	totalPages := keyboard.Pages(len(orders), OrdersPerPage)
	page = max(1, min(page, totalPages))
	start := (page - 1) * OrdersPerPage
	end := min(start+OrdersPerPage, len(orders))

	var b strings.Builder
	b.WriteString(a.tr.T("admin.orders_header"))
	for _, order := range orders[start:end] {
		fmt.Fprintf(&b, "\n%s", a.tr.Tf("admin.orders_item", i18n.Vars{
			"order_id": order.ID,
			"amount":   order.StarsAmount,
			"price":    order.Price,
			"username": html.EscapeString(order.TelegramUsername),
			"status":   order.Status.String(),
			"created":  order.CreatedAt.Format(orderTimeLayout),
		}))
	}

	return b.String(), a.kb.OrdersPage(page, totalPages), nil
}
