package plan

import (
	"maps"
	"slices"
)

// Plan describes a subscription tier: its feature matrix and usage limits.
// Plans handed out by a Catalog are copies; mutating them has no effect on the catalog.
type Plan struct {
	ID          ID                            `json:"id"`
	Name        string                        `json:"name"`
	Description string                        `json:"description,omitempty"`
	Rank        int                           `json:"rank"`     // higher rank includes more; used for "at least" checks
	Features    map[Category]map[Feature]bool `json:"features"` // category -> feature -> enabled
	Limits      map[Limit]int64               `json:"limits"`   // -1 represents unlimited
}

// Lookup returns the enabled state of a feature and whether the plan defines it at all.
func (p Plan) Lookup(category Category, feature Feature) (enabled, defined bool) {
	features, ok := p.Features[category]
	if !ok {
		return false, false
	}
	enabled, defined = features[feature]
	return enabled, defined
}

// IsFeatureEnabled reports whether the feature is available on this plan.
// Absent categories or features are reported as disabled.
func (p Plan) IsFeatureEnabled(category Category, feature Feature) bool {
	enabled, _ := p.Lookup(category, feature)
	return enabled
}

// LimitOf returns the plan's value for a limit and whether the plan defines it.
func (p Plan) LimitOf(limit Limit) (int64, bool) {
	v, ok := p.Limits[limit]
	return v, ok
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	out.Limits = maps.Clone(p.Limits)
	if p.Features != nil {
		out.Features = make(map[Category]map[Feature]bool, len(p.Features))
		for category, features := range p.Features {
			out.Features[category] = maps.Clone(features)
		}
	}
	return out
}

// FeatureRef addresses a feature inside its category.
type FeatureRef struct {
	Category Category `json:"category"`
	Feature  Feature  `json:"feature"`
}

// LimitChange represents a change in a limit value.
type LimitChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Comparison contains the differences between two plans.
// Used to communicate what an upgrade unlocks or a downgrade takes away.
type Comparison struct {
	GainedFeatures  []FeatureRef          `json:"gained_features"`
	LostFeatures    []FeatureRef          `json:"lost_features"`
	IncreasedLimits map[Limit]LimitChange `json:"increased_limits"`
	DecreasedLimits map[Limit]LimitChange `json:"decreased_limits"`
}

// HasLosses returns true if moving to the target plan removes a feature or lowers a limit.
func (c *Comparison) HasLosses() bool {
	return len(c.LostFeatures) > 0 || len(c.DecreasedLimits) > 0
}

// Compare returns the differences between the current and target plans.
// Feature lists are sorted by category, then feature name.
func Compare(current, target *Plan) *Comparison {
	if current == nil || target == nil {
		return nil
	}

	comparison := &Comparison{
		GainedFeatures:  make([]FeatureRef, 0),
		LostFeatures:    make([]FeatureRef, 0),
		IncreasedLimits: make(map[Limit]LimitChange),
		DecreasedLimits: make(map[Limit]LimitChange),
	}

	for category, features := range target.Features {
		for feature, enabled := range features {
			if enabled && !current.IsFeatureEnabled(category, feature) {
				comparison.GainedFeatures = append(comparison.GainedFeatures, FeatureRef{category, feature})
			}
		}
	}

	for category, features := range current.Features {
		for feature, enabled := range features {
			if enabled && !target.IsFeatureEnabled(category, feature) {
				comparison.LostFeatures = append(comparison.LostFeatures, FeatureRef{category, feature})
			}
		}
	}

	slices.SortFunc(comparison.GainedFeatures, compareRefs)
	slices.SortFunc(comparison.LostFeatures, compareRefs)

	for limit, targetLimit := range target.Limits {
		currentLimit, exists := current.Limits[limit]
		if !exists || currentLimit == targetLimit {
			continue
		}

		change := LimitChange{From: currentLimit, To: targetLimit}
		if isHigher(targetLimit, currentLimit) {
			comparison.IncreasedLimits[limit] = change
		} else {
			comparison.DecreasedLimits[limit] = change
		}
	}

	return comparison
}

// isHigher reports whether limit a grants more than limit b.
// Unlimited beats any finite value.
func isHigher(a, b int64) bool {
	switch {
	case a == b:
		return false
	case a == Unlimited:
		return true
	case b == Unlimited:
		return false
	default:
		return a > b
	}
}

func compareRefs(a, b FeatureRef) int {
	if a.Category != b.Category {
		if a.Category < b.Category {
			return -1
		}
		return 1
	}
	switch {
	case a.Feature < b.Feature:
		return -1
	case a.Feature > b.Feature:
		return 1
	}
	return 0
}
