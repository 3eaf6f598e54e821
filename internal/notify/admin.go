// Package notify forwards new orders to the administrator chat for manual fulfillment.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
	tele "gopkg.in/telebot.v3"
)

// Sender is the part of *telebot.Bot used to reach the administrator.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AdminNotifier sends every created order to the administrator chat, with the payment
// screenshot attached when one was received.
type AdminNotifier struct {
	sender  Sender
	adminID int64
	tr      i18n.Translator
	log     *slog.Logger
}

// NewAdminNotifier builds an AdminNotifier. It implements purchase.OrderListener.
func NewAdminNotifier(sender Sender, adminID int64, tr i18n.Translator, log *slog.Logger) *AdminNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &AdminNotifier{sender: sender, adminID: adminID, tr: tr, log: log}
}

// OrderCreated delivers the order summary to the administrator.
func (n *AdminNotifier) OrderCreated(ctx context.Context, receipt purchase.Receipt, proof purchase.Proof) error {
	if n.adminID == 0 {
		return nil
	}

	order := receipt.Order
	caption := n.Caption(order, receipt.Outcome.Degraded)
	to := &tele.Chat{ID: n.adminID}

	var what interface{} = caption
	if proof.FileID != "" {
		what = &tele.Photo{File: tele.File{FileID: proof.FileID}, Caption: caption}
	}

	if _, err := n.sender.Send(to, what, tele.ModeHTML); err != nil {
		return fmt.Errorf("notify admin about %s: %w", order.ID, err)
	}

	n.log.DebugContext(ctx, "admin notified", slog.String("order_id", order.ID))
	return nil
}

// Caption renders the HTML administrator summary of order. degraded appends a not-persisted warning.
func (n *AdminNotifier) Caption(order *domain.Order, degraded bool) string {
	text := n.tr.Tf("admin.new_order", i18n.Vars{
		"order_id":          html.EscapeString(order.ID),
		"first_name":        html.EscapeString(order.FirstName),
		"username":          html.EscapeString(order.Username),
		"user_id":           order.UserID,
		"telegram_username": html.EscapeString(order.TelegramUsername),
		"amount":            order.StarsAmount,
		"price":             order.Price,
		"points":            order.Points,
	})
	if degraded {
		text += "\n\n" + n.tr.T("admin.not_persisted")
	}
	return text
}
