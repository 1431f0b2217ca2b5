package plan

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
)

// Catalog is the authoritative, read-only set of plans.
// It is built once at startup by New and is safe for concurrent use without locking.
type Catalog struct {
	plans  map[ID]Plan
	order  []ID // ascending rank
	schema Schema
}

// New loads the definition from src, validates it and freezes it into a Catalog.
// Every failure is a configuration error and is joined with ErrInvalidCatalog
// or ErrFailedToLoadCatalog; callers should abort startup on error.
func New(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, errors.New("nil source"))
	}

	def, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	return fromDefinition(cloneDefinition(def))
}

func fromDefinition(def Definition) (*Catalog, error) {
	var errs []error

	plans := make(map[ID]Plan, len(def.Plans))
	ranks := make(map[int]ID, len(def.Plans))
	for _, p := range def.Plans {
		if !p.ID.Valid() {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownPlan, p.ID))
			continue
		}
		if _, dup := plans[p.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.ID))
			continue
		}
		if other, dup := ranks[p.Rank]; dup {
			errs = append(errs, fmt.Errorf("%w: %s and %s have rank %d", ErrDuplicateRank, other, p.ID, p.Rank))
		}
		ranks[p.Rank] = p.ID
		plans[p.ID] = p
	}

	for _, id := range IDs() {
		if _, ok := plans[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingPlan, id))
		}
	}

	loaded := make([]Plan, 0, len(plans))
	for _, p := range plans {
		loaded = append(loaded, p)
	}
	slices.SortFunc(loaded, func(a, b Plan) int { return cmp.Compare(a.Rank, b.Rank) })

	schema, err := buildSchema(loaded, def.Resets)
	if err != nil {
		errs = append(errs, err)
	}
	for _, p := range loaded {
		if err := schema.checkParity(p); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrInvalidCatalog}, errs...)...)
	}

	order := make([]ID, 0, len(loaded))
	for _, p := range loaded {
		order = append(order, p.ID)
	}

	return &Catalog{
		plans:  plans,
		order:  order,
		schema: schema,
	}, nil
}

// Plan returns a copy of the plan with the given ID.
// ErrUnknownPlan means the caller holds a plan ID that the deployment does not know.
func (c *Catalog) Plan(id ID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p.Clone(), nil
}

// Plans returns copies of all plans in ascending rank order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id].Clone())
	}
	return out
}

// Schema returns the closed set of categories, features and limits.
func (c *Catalog) Schema() Schema {
	return c.schema
}

// IsFeatureEnabled reports whether the plan enables the feature.
// Unknown plans, categories and features all report false: absence means locked.
func (c *Catalog) IsFeatureEnabled(id ID, category Category, feature Feature) bool {
	p, ok := c.plans[id]
	if !ok {
		return false
	}
	return p.IsFeatureEnabled(category, feature)
}

// Limit returns the plan's value for a limit: -1 for unlimited, otherwise non-negative.
// A limit that no plan defines yields ErrUnknownLimit; a plan that sets it to 0 does not.
func (c *Catalog) Limit(id ID, limit Limit) (int64, error) {
	p, ok := c.plans[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	if !c.schema.HasLimit(limit) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLimit, limit)
	}
	return p.Limits[limit], nil
}

// Reset returns the reset window of a limit.
func (c *Catalog) Reset(limit Limit) (Reset, error) {
	r, ok := c.schema.Reset(limit)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLimit, limit)
	}
	return r, nil
}

// Resets returns the reset window of every limit.
func (c *Catalog) Resets() map[Limit]Reset {
	out := make(map[Limit]Reset, len(c.schema.limits))
	for _, limit := range c.schema.Limits() {
		out[limit], _ = c.schema.Reset(limit)
	}
	return out
}

// AtLeast reports whether plan id ranks at or above plan minimum.
func (c *Catalog) AtLeast(id, minimum ID) (bool, error) {
	p, ok := c.plans[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	m, ok := c.plans[minimum]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownPlan, minimum)
	}
	return p.Rank >= m.Rank, nil
}

// UpgradeFor returns the lowest-ranked plan above current that enables the feature.
func (c *Catalog) UpgradeFor(current ID, category Category, feature Feature) (Plan, bool) {
	return c.firstAbove(current, func(p Plan) bool {
		return p.IsFeatureEnabled(category, feature)
	})
}

// UpgradeForLimit returns the lowest-ranked plan above current that grants more of the limit.
func (c *Catalog) UpgradeForLimit(current ID, limit Limit) (Plan, bool) {
	cur, ok := c.plans[current]
	if !ok {
		return Plan{}, false
	}
	have := cur.Limits[limit]
	return c.firstAbove(current, func(p Plan) bool {
		v, ok := p.LimitOf(limit)
		return ok && isHigher(v, have)
	})
}

func (c *Catalog) firstAbove(current ID, match func(Plan) bool) (Plan, bool) {
	cur, ok := c.plans[current]
	if !ok {
		return Plan{}, false
	}
	for _, id := range c.order {
		p := c.plans[id]
		if p.Rank > cur.Rank && match(p) {
			return p.Clone(), true
		}
	}
	return Plan{}, false
}
