package usage

import (
	"time"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// LifetimePeriod is the period key of limits that never reset.
const LifetimePeriod = "all"

// Period is a normalized quota window.
type Period struct {
	Key   string    // e.g. "2024-06" for monthly, "2024-06-17" for daily
	Start time.Time // zero for lifetime
	Next  time.Time // start of the next window; zero for lifetime
}

// PeriodAt normalizes t into the window of the given reset kind. All windows are UTC.
// Unknown reset kinds fall back to monthly.
func PeriodAt(reset plan.Reset, t time.Time) Period {
	t = t.UTC()
	switch reset {
	case plan.ResetLifetime:
		return Period{Key: LifetimePeriod}
	case plan.ResetDaily:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return Period{
			Key:   start.Format(time.DateOnly),
			Start: start,
			Next:  start.AddDate(0, 0, 1),
		}
	default:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Key:   start.Format("2006-01"),
			Start: start,
			Next:  start.AddDate(0, 1, 0),
		}
	}
}
