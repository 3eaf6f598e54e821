// Package domain holds the storefront records persisted in the key-value store.
package domain

import "fmt"

// Role distinguishes the single operator from ordinary buyers.
type Role uint8

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleUser, RoleAdmin:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("unknown role %d", uint8(r))
	}
}

func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "user":
		*r = RoleUser
	case "admin":
		*r = RoleAdmin
	default:
		return fmt.Errorf("unknown role %q", text)
	}
	return nil
}
