package domain

import "time"

// Order is a purchase attempt that reached the screenshot stage, stored under order:<id>.
type Order struct {
	ID               string      `json:"order_id"`
	UserID           int64       `json:"user_id"`
	Username         string      `json:"username"`
	FirstName        string      `json:"first_name,omitempty"`
	TelegramUsername string      `json:"telegram_username"`
	StarsAmount      int64       `json:"stars_amount"`
	Price            int64       `json:"price"`
	Points           int64       `json:"points"`
	Status           OrderStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
}
