package bot

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/idempotency"
	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
	"github.com/Kamron201111/telegram-stars-bot/internal/repository"
	"github.com/Kamron201111/telegram-stars-bot/internal/security"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
	"github.com/Kamron201111/telegram-stars-bot/internal/testutil"
	"github.com/Kamron201111/telegram-stars-bot/pkg/config"
	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
)

const (
	adminID = int64(1001)
	buyerID = int64(42)
	card    = "8600 0000 0000 0000"
)

var orderIDPattern = regexp.MustCompile(`#(ORD\d+)`)

type fixture struct {
	bot      *Bot
	tr       i18n.Translator
	mr       *miniredis.Miniredis
	profiles *repository.ProfileStore
	orders   *repository.OrderStore
	storage  *state.MemoryStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := appredis.New(appredis.Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	manager, err := i18n.Load("uz")
	require.NoError(t, err)
	tr := manager.Translator("en")

	log := testutil.Logger()
	roles := identity.NewResolver(adminID)
	profiles := repository.NewProfileStore(client, roles, repository.NewBreaker(), log)
	orders := repository.NewOrderStore(client, repository.NewBreaker(), log)
	storage := state.NewMemoryStorage()
	machine := state.NewMachine(storage, nil, log)
	flow := purchase.NewFlow(machine, catalog.Default(), orders, security.NewInputValidator(), log)

	cfg := config.Config{
		Support: config.SupportConfig{Username: "stars_support"},
		Payment: config.PaymentConfig{CardNumber: card},
	}

	b := New(nil, cfg, Deps{
		Catalog:       catalog.Default(),
		Roles:         roles,
		Profiles:      profiles,
		Orders:        orders,
		Flow:          flow,
		Conversations: storage,
		Translator:    tr,
		Idempotency:   idempotency.NewManager(idempotency.NewMemoryStore(), log),
	}, log)

	return &fixture{bot: b, tr: tr, mr: mr, profiles: profiles, orders: orders, storage: storage}
}

func (f *fixture) route(t *testing.T, c *testutil.Context) *testutil.Context {
	t.Helper()
	require.NoError(t, f.bot.Router().Route(c))
	return c
}

func TestStartRecordsNamesAndShowsUserMenu(t *testing.T) {
	f := newFixture(t)
	user := testutil.User(buyerID, "buyer")

	c := f.route(t, testutil.NewText(user, "/start"))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Texts()[0], "Hello, Test!")
	markup := c.LastMarkup()
	require.NotNil(t, markup)
	require.Len(t, markup.ReplyKeyboard, 2)
	assert.Equal(t, f.tr.T("menu.buy"), markup.ReplyKeyboard[0][0].Text)

	profile, outcome := f.profiles.GetProfile(context.Background(), buyerID)
	assert.False(t, outcome.Degraded)
	assert.Equal(t, "buyer", profile.Username)
	assert.Equal(t, "Test", profile.FirstName)
}

func TestStartShowsAdminMenu(t *testing.T) {
	f := newFixture(t)

	c := f.route(t, testutil.NewText(testutil.User(adminID, "boss"), "/start@StarsBot"))

	markup := c.LastMarkup()
	require.NotNil(t, markup)
	assert.Equal(t, f.tr.T("menu.stats"), markup.ReplyKeyboard[0][0].Text)
}

func TestPurchaseEndToEnd(t *testing.T) {
	f := newFixture(t)
	user := testutil.User(buyerID, "buyer")

	menu := f.route(t, testutil.NewText(user, f.tr.T("menu.buy")))
	markup := menu.LastMarkup()
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, len(catalog.Default().Packages()))
	assert.Equal(t, "buy_100", markup.InlineKeyboard[2][0].Data)
	assert.Contains(t, markup.InlineKeyboard[2][0].Text, "-10%")

	selected := f.route(t, testutil.NewCallback(user, "buy_100"))
	require.Len(t, selected.EditedTexts(), 1)
	assert.Contains(t, selected.EditedTexts()[0], "100 Telegram Stars")
	assert.NotEmpty(t, selected.Responses)

	invalid := f.route(t, testutil.NewText(user, "drop;table"))
	assert.Equal(t, []string{f.tr.T("username.invalid")}, invalid.Texts())

	username := f.route(t, testutil.NewText(user, "@myhandle"))
	require.Len(t, username.Texts(), 1)
	assert.Contains(t, username.Texts()[0], "@myhandle")
	assert.Contains(t, username.Texts()[0], card)

	paid := f.route(t, testutil.NewPhoto(user, "file-1"))
	require.Len(t, paid.Texts(), 1)
	match := orderIDPattern.FindStringSubmatch(paid.Texts()[0])
	require.Len(t, match, 2)

	raw, err := f.mr.Get("order:" + match[1])
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.EqualValues(t, 100, stored["stars_amount"])
	assert.EqualValues(t, 160, stored["price"])
	assert.Equal(t, "pending", stored["status"])
	assert.Equal(t, "myhandle", stored["telegram_username"])

	conversations, err := f.storage.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conversations)
}

func TestPhotoWhileIdleIsIgnored(t *testing.T) {
	f := newFixture(t)

	c := f.route(t, testutil.NewPhoto(testutil.User(buyerID, "buyer"), "file-1"))

	assert.Empty(t, c.Sent)
	keys, err := f.orders.RecentOrders(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestTextWhileAwaitingPaymentFallsBackToMenuHint(t *testing.T) {
	f := newFixture(t)
	user := testutil.User(buyerID, "buyer")

	f.route(t, testutil.NewCallback(user, "buy_50"))
	f.route(t, testutil.NewText(user, "myhandle"))
	c := f.route(t, testutil.NewText(user, "hello"))

	assert.Equal(t, []string{f.tr.T("menu.hint")}, c.Texts())

	conv, err := f.storage.Get(context.Background(), buyerID)
	require.NoError(t, err)
	assert.Equal(t, state.StepAwaitingPayment, conv.Step)
}

func TestUnknownPackageEditsErrorNotice(t *testing.T) {
	f := newFixture(t)

	c := f.route(t, testutil.NewCallback(testutil.User(buyerID, "buyer"), "buy_999"))

	assert.Equal(t, []string{f.tr.T("buy.unknown_package")}, c.EditedTexts())
	_, err := f.storage.Get(context.Background(), buyerID)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestUnmatchedCallbackIsAnswered(t *testing.T) {
	f := newFixture(t)

	c := f.route(t, testutil.NewCallback(testutil.User(buyerID, "buyer"), "nope"))

	assert.Len(t, c.Responses, 1)
	assert.Empty(t, c.Sent)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	user := testutil.User(buyerID, "buyer")

	nothing := f.route(t, testutil.NewText(user, "/cancel"))
	assert.Equal(t, []string{f.tr.T("cancel.nothing")}, nothing.Texts())

	f.route(t, testutil.NewCallback(user, "buy_50"))
	done := f.route(t, testutil.NewText(user, "/cancel"))
	assert.Equal(t, []string{f.tr.T("cancel.done")}, done.Texts())

	_, err := f.storage.Get(context.Background(), buyerID)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestRedeliveredUpdateIsHandledOnce(t *testing.T) {
	f := newFixture(t)
	user := testutil.User(buyerID, "buyer")

	first := f.route(t, testutil.NewText(user, "/help"))
	again := f.route(t, first.Redeliver())

	assert.Len(t, first.Sent, 1)
	assert.Empty(t, again.Sent)
}

func TestAdminViewsRequireAdmin(t *testing.T) {
	f := newFixture(t)

	denied := f.route(t, testutil.NewText(testutil.User(buyerID, "buyer"), f.tr.T("menu.stats")))
	assert.Equal(t, []string{f.tr.T("admin.forbidden")}, denied.Texts())

	user := testutil.User(buyerID, "buyer")
	f.route(t, testutil.NewCallback(user, "buy_50"))
	f.route(t, testutil.NewText(user, "myhandle"))
	f.route(t, testutil.NewPhoto(user, "file-1"))

	stats := f.route(t, testutil.NewText(testutil.User(adminID, "boss"), f.tr.T("menu.stats")))
	require.Len(t, stats.Texts(), 1)
	assert.Contains(t, stats.Texts()[0], "Orders (7 days): 1")
	assert.Contains(t, stats.Texts()[0], "Under review: 1")

	orders := f.route(t, testutil.NewText(testutil.User(adminID, "boss"), f.tr.T("menu.orders")))
	require.Len(t, orders.Texts(), 1)
	assert.Contains(t, orders.Texts()[0], "@myhandle")
}

func TestErrorsAreTurnedIntoMessages(t *testing.T) {
	f := newFixture(t)
	r := f.bot.Router()
	r.RegisterCommand("/locked", "locked", func(telebot.Context) error { return state.ErrStateLocked })
	r.RegisterCommand("/boom", "boom", func(telebot.Context) error { panic("boom") })
	r.RegisterCommand("/fail", "fail", func(telebot.Context) error { return assert.AnError })

	user := testutil.User(buyerID, "buyer")

	locked := f.route(t, testutil.NewText(user, "/locked"))
	assert.Equal(t, []string{f.tr.T("errors.busy")}, locked.Texts())

	boom := f.route(t, testutil.NewText(user, "/boom"))
	assert.Equal(t, []string{f.tr.T("errors.generic")}, boom.Texts())

	fail := f.route(t, testutil.NewText(user, "/fail"))
	assert.Equal(t, []string{f.tr.T("errors.generic")}, fail.Texts())
}

func TestSettingsToggle(t *testing.T) {
	f := newFixture(t)
	user := testutil.User(buyerID, "buyer")

	view := f.route(t, testutil.NewText(user, "/settings"))
	markup := view.LastMarkup()
	require.NotNil(t, markup)
	assert.Equal(t, "settings:notifications", markup.InlineKeyboard[0][0].Data)

	toggled := f.route(t, testutil.NewCallback(user, "settings:notifications"))
	require.Len(t, toggled.Responses, 1)
	assert.Equal(t, f.tr.T("settings.disabled"), toggled.Responses[0].Text)

	profile, _ := f.profiles.GetProfile(context.Background(), buyerID)
	assert.False(t, profile.Notifications)
}

func TestRouteNamesAreRecorded(t *testing.T) {
	f := newFixture(t)

	c := f.route(t, testutil.NewText(testutil.User(buyerID, "buyer"), "some free text"))

	assert.Equal(t, RouteMenuHint, c.Get("route"))
	assert.True(t, strings.HasPrefix(c.Texts()[0], f.tr.T("menu.hint")))
}
