package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// Key addresses one usage record: a user's counter for a limit within one period.
type Key struct {
	UserID uuid.UUID
	Limit  plan.Limit
	Period string
}

// String renders the key as "usage:<user>:<limit>:<period>".
func (k Key) String() string {
	return "usage:" + k.UserID.String() + ":" + string(k.Limit) + ":" + k.Period
}

// Store is the persistence contract of the tracker.
// The engine does not dictate the storage technology.
type Store interface {
	// Get returns the counter for key. found is false when no record exists yet.
	Get(ctx context.Context, key Key) (count int64, found bool, err error)

	// Increment atomically adds one to the counter, creating the record if needed,
	// and returns the new value.
	Increment(ctx context.Context, key Key) (int64, error)
}

// ConditionalStore is a Store that can check and increment in one atomic step.
// The tracker prefers it over its own per-key locking, which only covers a single process.
type ConditionalStore interface {
	Store

	// IncrementIfBelow increments the counter only when it is below max.
	// It returns the new count and true on increment, or the unchanged count and false.
	IncrementIfBelow(ctx context.Context, key Key, max int64) (count int64, incremented bool, err error)
}

// Record is the current-period view of a usage counter.
type Record struct {
	UserID      uuid.UUID  `json:"user_id"`
	Limit       plan.Limit `json:"limit"`
	Period      string     `json:"period"`
	Count       int64      `json:"count"`
	ResetAt     time.Time  `json:"reset_at,omitzero"`      // when this period's counter started
	NextResetAt time.Time  `json:"next_reset_at,omitzero"` // when the counter starts over
}
