package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	apperrors "github.com/Kamron201111/telegram-stars-bot/internal/errors"
	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
	"github.com/Kamron201111/telegram-stars-bot/pkg/metrics"
)

// ProfileStore keeps user profiles under user:<id>. Every write renews the 30-day expiry.
//
// UpdateProfile is a read-merge-write without a transaction, so concurrent updates to
// the same user can lose fields (last writer wins).
type ProfileStore struct {
	kv      KeyValue
	roles   identity.Resolver
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
	now     func() time.Time
}

// NewProfileStore builds a ProfileStore. kv may be nil, in which case every call degrades.
func NewProfileStore(kv KeyValue, roles identity.Resolver, breaker *apperrors.CircuitBreaker, log *slog.Logger) *ProfileStore {
	if log == nil {
		log = slog.Default()
	}

	return &ProfileStore{
		kv:      kv,
		roles:   roles,
		breaker: breaker,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetProfile returns the stored profile, creating and persisting a default on first contact
// or when the stored record cannot be decoded.
// It always returns a usable profile; on storage errors the profile is an unsaved default.
func (s *ProfileStore) GetProfile(ctx context.Context, userID int64) (*domain.Profile, Outcome) {
	profile, found, err := s.load(ctx, userID)
	if err != nil {
		s.degraded(ctx, "get", userID, err)
		return s.defaultProfile(userID), Degraded(err)
	}
	if found {
		return profile, Stored()
	}

	profile = s.defaultProfile(userID)
	if err := s.save(ctx, userID, profile); err != nil {
		s.degraded(ctx, "create", userID, err)
		return profile, Degraded(err)
	}

	s.log.InfoContext(ctx, "created profile", slog.Int64("user_id", userID), slog.String("role", profile.Role.String()))
	return profile, Stored()
}

// UpdateProfile merges upd into the stored profile and refreshes last activity.
// On storage errors the update is dropped.
func (s *ProfileStore) UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate) Outcome {
	profile, found, err := s.load(ctx, userID)
	if err != nil {
		s.degraded(ctx, "update", userID, err)
		return Degraded(err)
	}
	if !found {
		profile = s.defaultProfile(userID)
	}

	upd.Apply(profile)
	profile.LastActivity = s.now()

	if err := s.save(ctx, userID, profile); err != nil {
		s.degraded(ctx, "update", userID, err)
		return Degraded(err)
	}

	return Stored()
}

// Touch refreshes last activity only.
func (s *ProfileStore) Touch(ctx context.Context, userID int64) Outcome {
	return s.UpdateProfile(ctx, userID, domain.ProfileUpdate{})
}

// CountProfiles returns the number of stored, unexpired profiles.
func (s *ProfileStore) CountProfiles(ctx context.Context) (int, error) {
	var keys []string
	err := guard(s.kv, s.breaker, func() error {
		var scanErr error
		keys, scanErr = s.kv.ScanKeys(ctx, profileKeyPrefix+"*")
		return scanErr
	})
	if err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return len(keys), nil
}

func (s *ProfileStore) load(ctx context.Context, userID int64) (*domain.Profile, bool, error) {
	var data string
	err := guard(s.kv, s.breaker, func() error {
		var getErr error
		data, getErr = s.kv.Get(ctx, profileKey(userID))
		return getErr
	})
	if isMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		// An unreadable record is replaced on the next write.
		s.log.WarnContext(ctx, "discarding undecodable profile",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return nil, false, nil
	}
	profile.Role = s.roles.Role(userID)

	return &profile, true, nil
}

func (s *ProfileStore) save(ctx context.Context, userID int64, profile *domain.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return guard(s.kv, s.breaker, func() error {
		return s.kv.Set(ctx, profileKey(userID), payload, ProfileTTL)
	})
}

func (s *ProfileStore) defaultProfile(userID int64) *domain.Profile {
	return domain.NewProfile(s.roles.Role(userID), s.now())
}

func (s *ProfileStore) degraded(ctx context.Context, op string, userID int64, err error) {
	metrics.RecordStoreDegraded("profile", op)
	s.log.ErrorContext(ctx, "profile store degraded",
		slog.String("operation", op),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}

func profileKey(userID int64) string {
	return profileKeyPrefix + strconv.FormatInt(userID, 10)
}
