package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/pkg/config"
)

// Rules holds the parsed per-user limit and the users exempt from it.
type Rules struct {
	limit     int
	window    time.Duration
	whitelist map[int64]struct{}
}

// NewRules parses cfg. Extra ids (e.g. the administrator) are whitelisted as well.
func NewRules(cfg config.RateLimitConfig, extra ...int64) (*Rules, error) {
	limit, window, err := parseRule(cfg.PerUser)
	if err != nil {
		return nil, fmt.Errorf("per-user rate limit: %w", err)
	}

	whitelist := make(map[int64]struct{}, len(cfg.Whitelist)+len(extra))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}
	for _, id := range extra {
		if id != 0 {
			whitelist[id] = struct{}{}
		}
	}

	return &Rules{limit: limit, window: window, whitelist: whitelist}, nil
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	_, ok := r.whitelist[userID]
	return ok
}

// PerUser returns the per-user limit and its sliding window.
func (r *Rules) PerUser() (int, time.Duration) {
	return r.limit, r.window
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		return 0, 0, fmt.Errorf("window must be positive, got %s", rule.Window)
	}
	return rule.Limit, window, nil
}
