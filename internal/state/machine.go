package state

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
)

var (
	// ErrInvalidTransition indicates that the user is not at the step the event expects.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that the user has no conversation, i.e. is idle.
	ErrStateNotFound = errors.New("conversation not found")
	// ErrStateLocked indicates that a concurrent event for the same user holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine owns every user's conversation. Each operation runs under the user's lock.
type Machine struct {
	storage Storage
	locker  Locker
	log     *slog.Logger
	now     func() time.Time
}

// NewMachine creates a Machine. A nil locker defaults to an in-process KeyedMutex.
func NewMachine(storage Storage, locker Locker, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	if locker == nil {
		locker = NewKeyedMutex()
	}

	return &Machine{
		storage: storage,
		locker:  locker,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Storage exposes the backing storage, e.g. for metrics.
func (m *Machine) Storage() Storage {
	return m.storage
}

// Current returns the user's conversation, or nil when the user is idle.
func (m *Machine) Current(ctx context.Context, userID int64) (*Conversation, error) {
	conv, err := m.storage.Get(ctx, userID)
	if errors.Is(err, ErrStateNotFound) {
		return nil, nil
	}
	return conv, err
}

// Step returns the user's current step.
func (m *Machine) Step(ctx context.Context, userID int64) (Step, error) {
	conv, err := m.Current(ctx, userID)
	if err != nil {
		return StepIdle, err
	}
	if conv == nil {
		return StepIdle, nil
	}
	return conv.Step, nil
}

// Start records the selected package and moves the user to StepAwaitingUsername,
// discarding any earlier unfinished purchase.
func (m *Machine) Start(ctx context.Context, userID int64, pkg catalog.Package) (*Conversation, error) {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from, err := m.Step(ctx, userID)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{
		UserID:  userID,
		Step:    StepAwaitingUsername,
		Package: pkg,
	}
	if err := m.save(ctx, from, conv); err != nil {
		return nil, err
	}
	return conv.clone(), nil
}

// Advance moves the user from step `from` to step `to` after apply accepted the conversation.
// When apply returns an error the stored conversation is left unchanged and that error is returned.
func (m *Machine) Advance(ctx context.Context, userID int64, from, to Step, apply func(*Conversation) error) (*Conversation, error) {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := m.expect(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	if !IsTransitionAllowed(from, to) {
		m.log.Warn("invalid state transition", "user_id", userID, "from", from, "to", to)
		return nil, ErrInvalidTransition
	}

	if apply != nil {
		if err := apply(conv); err != nil {
			return nil, err
		}
	}

	conv.Step = to
	if err := m.save(ctx, from, conv); err != nil {
		return nil, err
	}
	return conv.clone(), nil
}

// Complete runs fn on the conversation at step `from` and then returns the user to idle,
// whether or not fn succeeded. fn's error is returned.
func (m *Machine) Complete(ctx context.Context, userID int64, from Step, fn func(Conversation) error) error {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	conv, err := m.expect(ctx, userID, from)
	if err != nil {
		return err
	}

	defer func() {
		if clearErr := m.storage.Delete(ctx, userID); clearErr != nil {
			m.log.Error("failed to clear conversation", "user_id", userID, "error", clearErr)
			return
		}
		transitionRecorder(string(from), string(StepIdle))
	}()

	return fn(*conv)
}

// Cancel clears the user's conversation and reports whether one existed.
func (m *Machine) Cancel(ctx context.Context, userID int64) (bool, error) {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return false, err
	}
	defer unlock()

	from, err := m.Step(ctx, userID)
	if err != nil {
		return false, err
	}
	if from == StepIdle {
		return false, nil
	}

	if err := m.storage.Delete(ctx, userID); err != nil {
		return false, err
	}
	transitionRecorder(string(from), string(StepIdle))
	return true, nil
}

// ExpireIdle clears conversations untouched for longer than ttl and returns how many were cleared.
func (m *Machine) ExpireIdle(ctx context.Context, ttl time.Duration) (int, error) {
	conversations, err := m.storage.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-ttl)
	expired := 0
	for _, candidate := range conversations {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if !candidate.UpdatedAt.Before(cutoff) {
			continue
		}

		ok, err := m.expireOne(ctx, candidate.UserID, cutoff)
		if err != nil {
			m.log.Warn("failed to expire conversation", "user_id", candidate.UserID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (m *Machine) expireOne(ctx context.Context, userID int64, cutoff time.Time) (bool, error) {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return false, err
	}
	defer unlock()

	// Re-read under the lock: the user may have moved on since List.
	conv, err := m.Current(ctx, userID)
	if err != nil || conv == nil || !conv.UpdatedAt.Before(cutoff) {
		return false, err
	}

	if err := m.storage.Delete(ctx, userID); err != nil {
		return false, err
	}
	transitionRecorder(string(conv.Step), string(StepIdle))
	return true, nil
}

func (m *Machine) expect(ctx context.Context, userID int64, step Step) (*Conversation, error) {
	conv, err := m.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := StepIdle
	if conv != nil {
		current = conv.Step
	}
	if conv == nil || current != step {
		m.log.Debug("event does not match conversation step", "user_id", userID, "step", current, "expected", step)
		return nil, ErrInvalidTransition
	}
	return conv, nil
}

func (m *Machine) save(ctx context.Context, from Step, conv *Conversation) error {
	conv.UpdatedAt = m.now()
	if err := m.storage.Save(ctx, conv); err != nil {
		return err
	}

	transitionRecorder(string(from), string(conv.Step))
	return nil
}
