package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlements/pkg/logger"
	"github.com/dmitrymomot/entitlements/pkg/plan"
	"github.com/dmitrymomot/entitlements/pkg/usage"
)

// Tracker is the usage side of the engine; *usage.Tracker implements it.
type Tracker interface {
	Record(ctx context.Context, userID uuid.UUID, limit plan.Limit) (usage.Record, error)
	CheckAndIncrement(ctx context.Context, userID uuid.UUID, limit plan.Limit, max int64) (int64, error)
}

// Engine is the single decision point for feature access and quota consumption.
// It holds no mutable state of its own and is safe for concurrent use.
type Engine struct {
	catalog  *plan.Catalog
	tracker  Tracker
	log      *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for overrides, storage failures and configuration errors.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// New creates an engine over catalog and tracker.
// The tracker should be built with usage.WithResets(catalog.Resets()) so each
// limit rolls over on its catalog period.
func New(catalog *plan.Catalog, tracker Tracker, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if tracker == nil {
		return nil, ErrNilTracker
	}

	e := &Engine{
		catalog:  catalog,
		tracker:  tracker,
		log:      logger.Discard(),
		recorder: NopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog returns the catalog the engine decides against.
func (e *Engine) Catalog() *plan.Catalog {
	return e.catalog
}

// EvalOption adjusts a single evaluation.
type EvalOption func(*Request)

// WithLimit makes the evaluation consume one unit of limit once the feature is
// granted. Without it, evaluations never touch usage.
func WithLimit(limit plan.Limit) EvalOption {
	return func(r *Request) { r.Limit = limit }
}

// Evaluate decides whether subj may use feature of category.
//
// The checks run in a fixed order and the first one that decides wins:
//  1. a super-admin is allowed outright;
//  2. a subscription that is not active or trial is DeniedBySubscriptionInactive;
//  3. a feature the plan does not enable is DeniedByPlan;
//  4. with WithLimit, one unit is consumed, or QuotaExceeded when the cap is reached.
//
// Policy outcomes are returned as the Decision. The error is non-nil only for
// configuration errors (plan.ErrUnknownPlan, plan.ErrUnknownLimit); the Decision
// is then the zero value, which is not allowed. A failing usage store yields
// QuotaExceeded with Quota.Unverified set.
func (e *Engine) Evaluate(ctx context.Context, subj Subject, category plan.Category, feature plan.Feature, opts ...EvalOption) (Decision, error) {
	req := Request{
		UserID:     subj.UserID,
		PlanID:     subj.PlanID,
		SuperAdmin: subj.SuperAdmin,
		Status:     subj.Status,
		Category:   category,
		Feature:    feature,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return e.evaluate(ctx, req)
}

// Check evaluates a flat request. Category and feature are required.
func (e *Engine) Check(ctx context.Context, req Request) (Decision, error) {
	if req.Category == "" || req.Feature == "" {
		return Decision{}, fmt.Errorf("%w: category and feature are required", ErrInvalidRequest)
	}
	return e.evaluate(ctx, req)
}

// Can is the read-only form of Evaluate for visibility checks. It never consumes
// quota and reports false on any error.
func (e *Engine) Can(ctx context.Context, subj Subject, category plan.Category, feature plan.Feature) bool {
	d, err := e.Evaluate(ctx, subj, category, feature)
	return err == nil && d.Allowed()
}

func (e *Engine) evaluate(ctx context.Context, req Request) (Decision, error) {
	start := e.now()

	d, err := e.decide(ctx, req)
	if err != nil {
		e.log.ErrorContext(ctx, "entitlement evaluation failed",
			logger.UserID(req.UserID),
			logger.PlanID(req.PlanID),
			logger.Category(req.Category),
			logger.Feature(req.Feature),
			logger.Error(err),
		)
		e.recorder.ObserveError(e.boundedRequest(req))
		return Decision{}, err
	}

	e.recorder.ObserveDecision(e.boundedDecision(d), e.now().Sub(start))
	return d, nil
}

// UndefinedLabel replaces category, feature and limit names outside the catalog
// schema in everything handed to the Recorder, keeping label values to a closed set.
const UndefinedLabel = "undefined"

func (e *Engine) boundedRequest(req Request) Request {
	schema := e.catalog.Schema()
	if !schema.HasFeature(req.Category, req.Feature) {
		req.Category, req.Feature = UndefinedLabel, UndefinedLabel
	}
	if req.Limit != "" && !schema.HasLimit(req.Limit) {
		req.Limit = UndefinedLabel
	}
	return req
}

func (e *Engine) boundedDecision(d Decision) Decision {
	schema := e.catalog.Schema()
	if !schema.HasFeature(d.Category, d.Feature) {
		d.Category, d.Feature = UndefinedLabel, UndefinedLabel
	}
	if d.Quota != nil && !schema.HasLimit(d.Quota.Limit) {
		q := *d.Quota
		q.Limit = UndefinedLabel
		d.Quota = &q
	}
	return d
}

func (e *Engine) decide(ctx context.Context, req Request) (Decision, error) {
	if req.SuperAdmin {
		return e.override(ctx, req), nil
	}

	d := Decision{
		PlanID:   req.PlanID,
		Category: req.Category,
		Feature:  req.Feature,
	}

	if !req.Status.Active() {
		d.Kind = DeniedBySubscriptionInactive
		return d, nil
	}

	p, err := e.catalog.Plan(req.PlanID)
	if err != nil {
		return Decision{}, err
	}

	enabled, defined := p.Lookup(req.Category, req.Feature)
	if !defined {
		e.log.WarnContext(ctx, "feature is not defined in the catalog",
			logger.Category(req.Category),
			logger.Feature(req.Feature),
		)
	}
	if !enabled {
		d.Kind = DeniedByPlan
		return d, nil
	}

	if req.Limit == "" {
		d.Kind = Allowed
		return d, nil
	}

	limit, err := e.catalog.Limit(req.PlanID, req.Limit)
	if err != nil {
		return Decision{}, err
	}
	d.Quota = &Quota{Limit: req.Limit, Max: limit}

	count, err := e.tracker.CheckAndIncrement(ctx, req.UserID, req.Limit, limit)
	var exceeded *usage.QuotaExceededError
	switch {
	case err == nil:
		d.Kind = Allowed
		d.Quota.Current = count
	case errors.As(err, &exceeded):
		d.Kind = QuotaExceeded
		d.Quota.Current = exceeded.Current
	default:
		e.log.ErrorContext(ctx, "usage check failed, denying",
			logger.UserID(req.UserID),
			logger.Limit(req.Limit),
			logger.Error(err),
		)
		d.Kind = QuotaExceeded
		d.Quota.Unverified = true
	}
	return d, nil
}
