package usage

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

var (
	// ErrQuotaExceeded is matched by every *QuotaExceededError.
	ErrQuotaExceeded = errors.New("usage quota exceeded")

	// ErrStoreUnavailable wraps any storage failure. Callers must treat it as
	// "quota headroom could not be confirmed" and deny.
	ErrStoreUnavailable = errors.New("usage store unavailable")

	ErrInvalidMax = errors.New("max must be -1 (unlimited) or non-negative")
)

// QuotaExceededError reports a rejected increment together with the usage that caused it.
type QuotaExceededError struct {
	Limit   plan.Limit
	Current int64
	Max     int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %s used %d of %d", ErrQuotaExceeded, e.Limit, e.Current, e.Max)
}

// Is makes errors.Is(err, ErrQuotaExceeded) true.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
