package keyboard

import (
	"strconv"
	"strings"

	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

// Pages returns the number of pages needed for total items, at least one.
func Pages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PaginationButtons returns up to three inline buttons (prev, current page, next)
// allowing the caller to paginate lists using a shared action prefix.
func PaginationButtons(t i18n.Translator, action string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	page = max(1, min(page, totalPages))

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.prev", "◀️"),
			Unique: action,
			Data:   strconv.Itoa(page - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   paginationLabel(t, page, totalPages),
		Unique: action,
		Data:   strconv.Itoa(page),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.next", "▶️"),
			Unique: action,
			Data:   strconv.Itoa(page + 1),
		})
	}

	return buttons
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}
	return text
}

func paginationLabel(t i18n.Translator, page, total int) string {
	fallback := strconv.Itoa(page) + "/" + strconv.Itoa(total)
	if t == nil {
		return fallback
	}

	label := t.Tf("pagination.page", i18n.Vars{"page": page, "total": total})
	if label == "" || label == "pagination.page" {
		return fallback
	}
	return label
}
