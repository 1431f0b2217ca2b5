package usage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// Tracker counts consumption of quota-bound limits per user and period.
// It is safe for concurrent use.
type Tracker struct {
	store        Store
	conditional  ConditionalStore // nil when store cannot check-and-increment itself
	now          func() time.Time
	resets       map[plan.Limit]plan.Reset
	defaultReset plan.Reset
	locks        keyLocks
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used to compute period keys.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithResets sets the reset window per limit, typically plan.Catalog.Resets().
func WithResets(resets map[plan.Limit]plan.Reset) Option {
	return func(t *Tracker) {
		maps.Copy(t.resets, resets)
	}
}

// WithLimitReset sets the reset window of a single limit.
func WithLimitReset(limit plan.Limit, reset plan.Reset) Option {
	return func(t *Tracker) {
		t.resets[limit] = reset
	}
}

// WithDefaultReset sets the window for limits without an explicit reset. Defaults to monthly.
func WithDefaultReset(reset plan.Reset) Option {
	return func(t *Tracker) {
		if reset.Valid() {
			t.defaultReset = reset
		}
	}
}

// NewTracker creates a Tracker on top of store. Panics if store is nil.
func NewTracker(store Store, opts ...Option) *Tracker {
	if store == nil {
		panic("usage: store cannot be nil")
	}

	t := &Tracker{
		store:        store,
		now:          time.Now,
		resets:       make(map[plan.Limit]plan.Reset),
		defaultReset: plan.ResetMonthly,
		locks:        keyLocks{m: make(map[Key]*keyLock)},
	}
	if cs, ok := store.(ConditionalStore); ok {
		t.conditional = cs
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// CurrentUsage returns the user's usage of limit in the current period.
// It returns 0 when nothing has been recorded yet and never writes.
func (t *Tracker) CurrentUsage(ctx context.Context, userID uuid.UUID, limit plan.Limit) (int64, error) {
	key, _ := t.key(userID, limit)

	count, _, err := t.store.Get(ctx, key)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return count, nil
}

// Record returns the current period's usage record, including when it started and
// when it resets. Nothing is written when no record exists.
func (t *Tracker) Record(ctx context.Context, userID uuid.UUID, limit plan.Limit) (Record, error) {
	key, period := t.key(userID, limit)

	count, _, err := t.store.Get(ctx, key)
	if err != nil {
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}

	return Record{
		UserID:      userID,
		Limit:       limit,
		Period:      period.Key,
		Count:       count,
		ResetAt:     period.Start,
		NextResetAt: period.Next,
	}, nil
}

// CheckAndIncrement consumes one unit of limit for the user if that stays within max.
//
// It returns the new count on success. When current+1 would exceed max it returns a
// *QuotaExceededError (matching ErrQuotaExceeded) and leaves usage untouched.
// max == plan.Unlimited never fails on quota. Storage failures are joined with
// ErrStoreUnavailable. The check and the increment happen as one atomic step per
// user, limit and period.
func (t *Tracker) CheckAndIncrement(ctx context.Context, userID uuid.UUID, limit plan.Limit, max int64) (int64, error) {
	if max < plan.Unlimited {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMax, max)
	}

	key, _ := t.key(userID, limit)

	if max == plan.Unlimited {
		count, err := t.store.Increment(ctx, key)
		if err != nil {
			return 0, errors.Join(ErrStoreUnavailable, err)
		}
		return count, nil
	}

	if t.conditional != nil {
		count, ok, err := t.conditional.IncrementIfBelow(ctx, key, max)
		if err != nil {
			return 0, errors.Join(ErrStoreUnavailable, err)
		}
		if !ok {
			return 0, &QuotaExceededError{Limit: limit, Current: count, Max: max}
		}
		return count, nil
	}

	unlock := t.locks.lock(key)
	defer unlock()

	current, _, err := t.store.Get(ctx, key)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	if current+1 > max {
		return 0, &QuotaExceededError{Limit: limit, Current: current, Max: max}
	}

	count, err := t.store.Increment(ctx, key)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return count, nil
}

// key normalizes the period for "now" so a new period addresses a fresh record.
func (t *Tracker) key(userID uuid.UUID, limit plan.Limit) (Key, Period) {
	reset, ok := t.resets[limit]
	if !ok {
		reset = t.defaultReset
	}
	period := PeriodAt(reset, t.now())
	return Key{UserID: userID, Limit: limit, Period: period.Key}, period
}

// keyLocks hands out one mutex per key and forgets it once nobody holds it.
type keyLocks struct {
	mu sync.Mutex
	m  map[Key]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (l *keyLocks) lock(key Key) (unlock func()) {
	l.mu.Lock()
	kl, ok := l.m[key]
	if !ok {
		kl = &keyLock{}
		l.m[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.m, key)
		}
		l.mu.Unlock()
	}
}
