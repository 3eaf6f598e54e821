package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamron201111/telegram-stars-bot/internal/bot/keyboard"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
)

func newTranslator(t *testing.T) i18n.Translator {
	t.Helper()
	manager, err := i18n.Load("uz")
	require.NoError(t, err)
	return manager.Translator("en")
}

func TestPaginationButtons(t *testing.T) {
	translator := newTranslator(t)

	testCases := []struct {
		name      string
		page      int
		total     int
		wantTexts []string
		wantData  []string
	}{
		{
			name:      "first page",
			page:      1,
			total:     5,
			wantTexts: []string{"1/5", "▶️"},
			wantData:  []string{"1", "2"},
		},
		{
			name:      "middle page",
			page:      3,
			total:     5,
			wantTexts: []string{"◀️", "3/5", "▶️"},
			wantData:  []string{"2", "3", "4"},
		},
		{
			name:      "last page",
			page:      5,
			total:     5,
			wantTexts: []string{"◀️", "5/5"},
			wantData:  []string{"4", "5"},
		},
		{
			name:      "page past the end is clamped",
			page:      9,
			total:     2,
			wantTexts: []string{"◀️", "2/2"},
			wantData:  []string{"1", "2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(translator, keyboard.OrdersPageAction, tc.page, tc.total)
			require.Len(t, buttons, len(tc.wantTexts))

			for i := range tc.wantTexts {
				assert.Equal(t, tc.wantTexts[i], buttons[i].Text)
				assert.Equal(t, keyboard.OrdersPageAction, buttons[i].Unique)
				assert.Equal(t, tc.wantData[i], buttons[i].Data)
			}
		})
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 1, keyboard.Pages(0, 10))
	assert.Equal(t, 1, keyboard.Pages(10, 10))
	assert.Equal(t, 2, keyboard.Pages(11, 10))
}

func TestOrdersPage(t *testing.T) {
	b := keyboard.NewBuilder(newTranslator(t), nil)

	assert.Nil(t, b.OrdersPage(1, 1))

	markup := b.OrdersPage(2, 3)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "orders_page:1", markup.InlineKeyboard[0][0].Data)
}
