// Package usage tracks per-user consumption of quota-bound plan limits.
//
// Usage accumulates per (user, limit, period). The period key is derived from the
// tracker clock on every call, so when the window rolls over (a new month for monthly
// limits) the tracker simply addresses a fresh record; stale records are left for
// external retention jobs.
//
// The central operation is Tracker.CheckAndIncrement, which consumes one unit only
// when that keeps usage within the cap. Check and increment are a single atomic step:
//
//   - stores implementing ConditionalStore (MemoryStore, RedisStore, PostgresStore)
//     do it natively, which also holds across processes
//   - plain Stores are serialized with a per-key lock inside the tracker
//
// Basic usage:
//
//	tracker := usage.NewTracker(usage.NewRedisStore(client), usage.WithResets(catalog.Resets()))
//
//	count, err := tracker.CheckAndIncrement(ctx, userID, plan.LimitAIRequests, 100)
//	var exceeded *usage.QuotaExceededError
//	switch {
//	case errors.As(err, &exceeded):
//	    // exceeded.Current of exceeded.Max used
//	case errors.Is(err, usage.ErrStoreUnavailable):
//	    // fail closed: deny
//	}
package usage
