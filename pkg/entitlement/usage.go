package entitlement

import (
	"context"
	"time"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// UsageInfo is the read-only view of one limit for a subject.
type UsageInfo struct {
	Limit       plan.Limit `json:"limit"`
	Current     int64      `json:"current"`
	Max         int64      `json:"max"`       // -1 for unlimited
	Remaining   int64      `json:"remaining"` // -1 for unlimited
	Period      string     `json:"period"`
	ResetAt     time.Time  `json:"reset_at,omitzero"`
	NextResetAt time.Time  `json:"next_reset_at,omitzero"`
}

// Unlimited reports whether the plan puts no cap on the limit.
func (u UsageInfo) Unlimited() bool {
	return u.Max == plan.Unlimited
}

// Usage reports current usage of every limit of the subject's plan.
// It never consumes quota. Store failures are returned as errors joined with
// usage.ErrStoreUnavailable.
func (e *Engine) Usage(ctx context.Context, subj Subject) (map[plan.Limit]UsageInfo, error) {
	p, err := e.catalog.Plan(subj.PlanID)
	if err != nil {
		return nil, err
	}

	limits := e.catalog.Schema().Limits()
	out := make(map[plan.Limit]UsageInfo, len(limits))
	for _, limit := range limits {
		rec, err := e.tracker.Record(ctx, subj.UserID, limit)
		if err != nil {
			return nil, err
		}

		q := Quota{Limit: limit, Current: rec.Count, Max: p.Limits[limit]}
		out[limit] = UsageInfo{
			Limit:       limit,
			Current:     rec.Count,
			Max:         q.Max,
			Remaining:   q.Remaining(),
			Period:      rec.Period,
			ResetAt:     rec.ResetAt,
			NextResetAt: rec.NextResetAt,
		}
	}
	return out, nil
}
