// Package plan defines the subscription plan catalog: which features and usage
// limits each of the four canonical plans (free, basic, professional, enterprise) grants.
//
// A Catalog is built once at startup from a Source and is immutable afterwards,
// so it can be shared by reference between goroutines without locking.
// Loading validates the catalog: all four plans must be present with unique ranks,
// and every plan must define exactly the same categories, features and limits.
// A catalog that fails validation is a broken deployment; New returns an error
// wrapped with ErrInvalidCatalog and the process should not start.
//
// Key concepts:
//
//   - Category / Feature: a two-level feature matrix (e.g. aiTools.advancedAI)
//   - Limit: a numeric quota (e.g. maxAIRequests); Unlimited (-1) disables the cap
//   - Reset: the window a limit's usage accumulates over (monthly, daily, lifetime)
//   - Schema: the closed set of keys derived from the plans, used to tell
//     "absent from this plan" apart from "not a feature at all"
//
// Basic usage:
//
//	catalog, err := plan.New(ctx, plan.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if catalog.IsFeatureEnabled(plan.Basic, plan.CategoryContacts, plan.FeatureContactImport) {
//	    // show the import button
//	}
//
//	max, err := catalog.Limit(plan.Free, plan.LimitAIRequests) // 10
//
// Catalogs can also be loaded from YAML files with NewFileSource; see
// default_catalog.yaml for the document layout.
package plan
