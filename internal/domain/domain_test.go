package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_JSONShape(t *testing.T) {
	created := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	order := Order{
		ID:               "ORD17606070001234",
		UserID:           42,
		TelegramUsername: "myhandle",
		StarsAmount:      100,
		Price:            160,
		Points:           2,
		Status:           StatusPending,
		CreatedAt:        created,
	}

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "ORD17606070001234", raw["order_id"])
	assert.Equal(t, "pending", raw["status"])
	assert.Equal(t, "2026-10-16T09:30:00Z", raw["created_at"])
	assert.EqualValues(t, 100, raw["stars_amount"])
}

func TestOrderStatus_RejectsUnknown(t *testing.T) {
	var s OrderStatus
	assert.Error(t, s.UnmarshalText([]byte("shipped")))

	_, err := OrderStatus(99).MarshalText()
	assert.Error(t, err)

	for _, name := range []string{"pending", "paid", "completed", "cancelled", "payment_error"} {
		parsed, err := ParseOrderStatus(name)
		require.NoError(t, err)
		assert.Equal(t, name, parsed.String())
	}
}

func TestRole_Text(t *testing.T) {
	var r Role
	require.NoError(t, r.UnmarshalText([]byte("admin")))
	assert.Equal(t, RoleAdmin, r)
	assert.Error(t, r.UnmarshalText([]byte("owner")))

	_, err := Role(7).MarshalText()
	assert.Error(t, err)
}

func TestProfileUpdate_Apply(t *testing.T) {
	p := NewProfile(RoleUser, time.Now())
	name := "myhandle"
	stars := int64(250)

	ProfileUpdate{Username: &name, TotalStars: &stars}.Apply(p)

	assert.Equal(t, "myhandle", p.Username)
	assert.Equal(t, int64(250), p.TotalStars)
	assert.Zero(t, p.TotalSpent)
	assert.True(t, p.Notifications)
}

func TestProfile_Level(t *testing.T) {
	cases := []struct {
		spent int64
		want  Level
	}{
		{0, LevelBronze},
		{499, LevelBronze},
		{500, LevelSilver},
		{2000, LevelGold},
		{5000, LevelPlatinum},
	}
	for _, tc := range cases {
		p := &Profile{TotalSpent: tc.spent}
		assert.Equal(t, tc.want, p.Level(), "spent=%d", tc.spent)
	}
}

func TestProfile_UnmarshalTimestamps(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "without offset",
			raw:  "2025-01-02T03:04:05.123456",
			want: time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC),
		},
		{
			name: "without fraction",
			raw:  "2025-01-02T03:04:05",
			want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name: "rfc3339",
			raw:  "2025-01-02T03:04:05Z",
			want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			data := `{"username":"alice","total_stars":100,"role":"user","notifications":true,` +
				`"registration_date":"` + tc.raw + `","last_activity":"` + tc.raw + `"}`

			var p Profile
			require.NoError(t, json.Unmarshal([]byte(data), &p))
			assert.Equal(t, "alice", p.Username)
			assert.Equal(t, int64(100), p.TotalStars)
			assert.True(t, p.Notifications)
			assert.True(t, tc.want.Equal(p.RegistrationDate))
			assert.True(t, tc.want.Equal(p.LastActivity))
		})
	}
}

func TestProfile_RoundTripKeepsTimestamps(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	data, err := json.Marshal(NewProfile(RoleAdmin, now))
	require.NoError(t, err)

	var p Profile
	require.NoError(t, json.Unmarshal(data, &p))
	assert.True(t, now.Equal(p.RegistrationDate))
	assert.Equal(t, RoleAdmin, p.Role)
}

func TestProfile_UnmarshalRejectsBadTimestamp(t *testing.T) {
	var p Profile
	assert.Error(t, json.Unmarshal([]byte(`{"registration_date":"yesterday"}`), &p))
}
