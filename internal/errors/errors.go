// Package errors defines the bot's error taxonomy and central reporting.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DefaultUserMessage is shown when nothing more specific is known.
const DefaultUserMessage = "❌ Xatolik yuz berdi. Iltimos, qaytadan urinib ko‘ring."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewValidationError is surfaced to the user as a re-prompt and never reported.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: "❌ Noto‘g‘ri ma’lumot. Qaytadan kiriting:",
		Severity:    SeverityLow,
	}
}

func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("storage error: %s", underlyingMsg),
		UserMessage: DefaultUserMessage,
		Severity:    SeverityHigh,
		cause:       cause,
	}
}

func NewTransportError(op string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("telegram error: %s", op),
		UserMessage: DefaultUserMessage,
		Severity:    SeverityMedium,
		cause:       cause,
	}
}

func NewStateError(msg string, cause error) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "❌ Buyurtmani qayta ishlashda xatolik. Qayta urinib ko‘ring.",
		Severity:    SeverityMedium,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("⏳ Juda ko‘p so‘rov. %d soniyadan so‘ng urinib ko‘ring.", retryAfter),
		Severity:    SeverityLow,
	}
}
