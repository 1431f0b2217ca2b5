// Package guard turns entitlement decisions into what consumers render or serve.
//
// Resolve maps a Decision to an Outcome: content on Allowed, an upgrade prompt
// naming the lowest plan that unlocks the feature on DeniedByPlan, a billing
// prompt on DeniedBySubscriptionInactive, and a quota prompt carrying the used and
// maximum counts on QuotaExceeded.
//
// Require is net/http middleware that evaluates on every request:
//
//	r.With(guard.Require(engine, plan.CategoryAITools, plan.FeatureAdvancedAI,
//	    guard.WithLimit(plan.LimitAIRequests),
//	)).Post("/ai/summarize", summarize)
//
// The subject is read from the request context (entitlement.WithSubject), which
// an authentication middleware upstream is expected to populate.
//
// Routes mounts a small JSON API over the engine for services that evaluate
// remotely.
package guard
