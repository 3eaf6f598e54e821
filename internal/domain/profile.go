package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// legacyTimestampLayout is ISO-8601 without a UTC offset. Such values are read as UTC.
const legacyTimestampLayout = "2006-01-02T15:04:05"

// Profile is the per-user record stored under user:<id>.
type Profile struct {
	Username         string    `json:"username"`
	FirstName        string    `json:"first_name,omitempty"`
	TotalStars       int64     `json:"total_stars"`
	TotalSpent       int64     `json:"total_spent"`
	Points           int64     `json:"points"`
	OrdersCount      int64     `json:"orders_count"`
	Role             Role      `json:"role"`
	RegistrationDate time.Time `json:"registration_date"`
	LastActivity     time.Time `json:"last_activity"`
	Notifications    bool      `json:"notifications"`
}

// UnmarshalJSON decodes a profile, accepting timestamps with or without a UTC offset.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	aux := struct {
		*plain
		RegistrationDate string `json:"registration_date"`
		LastActivity     string `json:"last_activity"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if p.RegistrationDate, err = parseTimestamp(aux.RegistrationDate); err != nil {
		return fmt.Errorf("registration_date: %w", err)
	}
	if p.LastActivity, err = parseTimestamp(aux.LastActivity); err != nil {
		return fmt.Errorf("last_activity: %w", err)
	}
	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(legacyTimestampLayout, value, time.UTC)
}

// NewProfile returns the zero-valued profile created on first contact.
func NewProfile(role Role, now time.Time) *Profile {
	return &Profile{
		Role:             role,
		RegistrationDate: now,
		LastActivity:     now,
		Notifications:    true,
	}
}

// ProfileUpdate lists the fields to merge into a stored profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Username      *string
	FirstName     *string
	TotalStars    *int64
	TotalSpent    *int64
	Points        *int64
	OrdersCount   *int64
	Notifications *bool
}

// Apply merges u into p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.TotalStars != nil {
		p.TotalStars = *u.TotalStars
	}
	if u.TotalSpent != nil {
		p.TotalSpent = *u.TotalSpent
	}
	if u.Points != nil {
		p.Points = *u.Points
	}
	if u.OrdersCount != nil {
		p.OrdersCount = *u.OrdersCount
	}
	if u.Notifications != nil {
		p.Notifications = *u.Notifications
	}
}

// Level is the loyalty tier derived from total spend.
type Level string

const (
	LevelBronze   Level = "bronze"
	LevelSilver   Level = "silver"
	LevelGold     Level = "gold"
	LevelPlatinum Level = "platinum"
)

// Level returns the loyalty tier for the profile.
func (p *Profile) Level() Level {
	switch {
	case p.TotalSpent >= 5000:
		return LevelPlatinum
	case p.TotalSpent >= 2000:
		return LevelGold
	case p.TotalSpent >= 500:
		return LevelSilver
	default:
		return LevelBronze
	}
}
