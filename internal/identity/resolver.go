// Package identity maps Telegram user identifiers to storefront roles.
package identity

import "github.com/Kamron201111/telegram-stars-bot/internal/domain"

// Resolver knows the single administrator identifier.
type Resolver struct {
	adminID int64
}

// NewResolver builds a Resolver for adminID.
func NewResolver(adminID int64) Resolver {
	return Resolver{adminID: adminID}
}

// Role returns RoleAdmin for the configured administrator and RoleUser otherwise.
func (r Resolver) Role(userID int64) domain.Role {
	if r.adminID != 0 && userID == r.adminID {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// IsAdmin reports whether userID is the administrator.
func (r Resolver) IsAdmin(userID int64) bool {
	return r.Role(userID) == domain.RoleAdmin
}

// AdminID returns the configured administrator identifier.
func (r Resolver) AdminID() int64 {
	return r.adminID
}
