package identity

import (
	"testing"

	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
)

func TestResolver_Role(t *testing.T) {
	testCases := []struct {
		name    string
		adminID int64
		userID  int64
		want    domain.Role
	}{
		{name: "administrator", adminID: 6498632307, userID: 6498632307, want: domain.RoleAdmin},
		{name: "ordinary user", adminID: 6498632307, userID: 100, want: domain.RoleUser},
		{name: "no admin configured", adminID: 0, userID: 0, want: domain.RoleUser},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewResolver(tc.adminID).Role(tc.userID); got != tc.want {
				t.Errorf("Role(%d) = %s, want %s", tc.userID, got, tc.want)
			}
		})
	}
}
