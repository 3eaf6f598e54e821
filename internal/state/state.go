package state

import (
	"time"

	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
)

// Step is a position in the purchase dialogue.
type Step string

const (
	// StepIdle means no purchase is in progress. It is never stored: an absent record is idle.
	StepIdle Step = "idle"
	// StepAwaitingUsername follows package selection.
	StepAwaitingUsername Step = "awaiting_username"
	// StepAwaitingPayment follows a valid username and waits for the payment screenshot.
	StepAwaitingPayment Step = "awaiting_payment"
)

// Conversation is the in-progress purchase of a single user.
type Conversation struct {
	UserID           int64           `json:"user_id"`
	Step             Step            `json:"step"`
	Package          catalog.Package `json:"package"`
	TelegramUsername string          `json:"telegram_username,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (c *Conversation) clone() *Conversation {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}
