package plan

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Schema is the closed set of categories, features and limits a catalog defines.
// It is derived from the plans at load time and never changes afterwards.
type Schema struct {
	features map[Category]map[Feature]struct{}
	limits   map[Limit]Reset
}

// HasCategory reports whether the category exists in the catalog.
func (s Schema) HasCategory(category Category) bool {
	_, ok := s.features[category]
	return ok
}

// HasFeature reports whether the feature exists in the catalog under the given category.
// A false result for a feature that callers use usually means a typo in the caller.
func (s Schema) HasFeature(category Category, feature Feature) bool {
	_, ok := s.features[category][feature]
	return ok
}

// HasLimit reports whether the limit exists in the catalog.
func (s Schema) HasLimit(limit Limit) bool {
	_, ok := s.limits[limit]
	return ok
}

// Reset returns the reset window of a limit.
func (s Schema) Reset(limit Limit) (Reset, bool) {
	r, ok := s.limits[limit]
	return r, ok
}

// Categories returns all categories, sorted.
func (s Schema) Categories() []Category {
	return slices.Sorted(maps.Keys(s.features))
}

// Features returns the features of a category, sorted.
func (s Schema) Features(category Category) []Feature {
	return slices.Sorted(maps.Keys(s.features[category]))
}

// Limits returns all limit names, sorted.
func (s Schema) Limits() []Limit {
	return slices.Sorted(maps.Keys(s.limits))
}

// buildSchema takes the union of all keys used by the plans.
func buildSchema(plans []Plan, resets map[Limit]Reset) (Schema, error) {
	s := Schema{
		features: make(map[Category]map[Feature]struct{}),
		limits:   make(map[Limit]Reset),
	}

	var errs []error
	for _, p := range plans {
		for category, features := range p.Features {
			if category == "" {
				errs = append(errs, fmt.Errorf("plan %s: %w", p.ID, ErrEmptyName))
				continue
			}
			if s.features[category] == nil {
				s.features[category] = make(map[Feature]struct{})
			}
			for feature := range features {
				if feature == "" {
					errs = append(errs, fmt.Errorf("plan %s, category %s: %w", p.ID, category, ErrEmptyName))
					continue
				}
				s.features[category][feature] = struct{}{}
			}
		}
		for limit := range p.Limits {
			if limit == "" {
				errs = append(errs, fmt.Errorf("plan %s: %w", p.ID, ErrEmptyName))
				continue
			}
			s.limits[limit] = ResetMonthly
		}
	}

	for limit, reset := range resets {
		if _, ok := s.limits[limit]; !ok {
			errs = append(errs, fmt.Errorf("reset window for %s: %w", limit, ErrUnknownLimit))
			continue
		}
		if !reset.Valid() {
			errs = append(errs, fmt.Errorf("limit %s: %w: %q", limit, ErrInvalidReset, reset))
			continue
		}
		s.limits[limit] = reset
	}

	return s, errors.Join(errs...)
}

// checkParity verifies that the plan defines exactly the schema's keys.
func (s Schema) checkParity(p Plan) error {
	var errs []error

	for _, category := range s.Categories() {
		for _, feature := range s.Features(category) {
			if _, defined := p.Lookup(category, feature); !defined {
				errs = append(errs, fmt.Errorf("plan %s is missing feature %s.%s: %w", p.ID, category, feature, ErrSchemaMismatch))
			}
		}
	}

	for _, limit := range s.Limits() {
		v, defined := p.LimitOf(limit)
		if !defined {
			errs = append(errs, fmt.Errorf("plan %s is missing limit %s: %w", p.ID, limit, ErrSchemaMismatch))
			continue
		}
		if v < Unlimited {
			errs = append(errs, fmt.Errorf("plan %s, limit %s = %d: %w", p.ID, limit, v, ErrInvalidLimitValue))
		}
	}

	return errors.Join(errs...)
}
