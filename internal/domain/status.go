package domain

import "fmt"

// OrderStatus tracks manual fulfillment. Only StatusPending is ever written by the bot.
type OrderStatus uint8

const (
	StatusPending OrderStatus = iota
	StatusPaid
	StatusCompleted
	StatusCancelled
	StatusPaymentError
)

var statusNames = [...]string{
	StatusPending:      "pending",
	StatusPaid:         "paid",
	StatusCompleted:    "completed",
	StatusCancelled:    "cancelled",
	StatusPaymentError: "payment_error",
}

func (s OrderStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("OrderStatus(%d)", uint8(s))
}

// ParseOrderStatus converts a persisted status name.
func ParseOrderStatus(name string) (OrderStatus, error) {
	for i, n := range statusNames {
		if n == name {
			return OrderStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", name)
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown order status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
