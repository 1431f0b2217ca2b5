// Package entitlement decides whether a user may use a feature of their plan.
//
// Engine.Evaluate is the single entry point. It combines the plan catalog with
// the usage tracker and returns a Decision:
//
//	engine, err := entitlement.New(catalog, tracker,
//	    entitlement.WithLogger(log),
//	    entitlement.WithRecorder(entitlement.NewPrometheusRecorder(nil)),
//	)
//
//	d, err := engine.Evaluate(ctx, subject, plan.CategoryAITools, plan.FeatureBasicAI,
//	    entitlement.WithLimit(plan.LimitAIRequests))
//	if err != nil {
//	    // broken deployment: unknown plan or limit
//	}
//	switch d.Kind {
//	case entitlement.Allowed:
//	case entitlement.DeniedByPlan:                 // upgrade prompt
//	case entitlement.DeniedBySubscriptionInactive: // billing prompt
//	case entitlement.QuotaExceeded:                // d.Quota.Current of d.Quota.Max used
//	}
//
// Checks run in a fixed order: super-admin override, subscription status, plan
// features, then quota. Quota is only consumed when WithLimit is passed, so
// visibility checks (Can) never spend usage. When the usage store fails the
// engine denies with QuotaExceeded and Quota.Unverified set.
//
// Decisions are values computed on every call; nothing is cached.
package entitlement
