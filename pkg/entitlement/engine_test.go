package entitlement_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlements/pkg/entitlement"
	"github.com/dmitrymomot/entitlements/pkg/logger"
	"github.com/dmitrymomot/entitlements/pkg/plan"
	"github.com/dmitrymomot/entitlements/pkg/usage"
)

var june = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	catalog, err := plan.New(context.Background(), plan.Default())
	require.NoError(t, err)
	return catalog
}

func newTracker(catalog *plan.Catalog) *usage.Tracker {
	return usage.NewTracker(usage.NewMemoryStore(),
		usage.WithResets(catalog.Resets()),
		usage.WithClock(func() time.Time { return june }),
	)
}

func newEngine(t *testing.T, opts ...entitlement.Option) (*entitlement.Engine, *usage.Tracker) {
	t.Helper()
	catalog := newCatalog(t)
	tracker := newTracker(catalog)
	engine, err := entitlement.New(catalog, tracker, opts...)
	require.NoError(t, err)
	return engine, tracker
}

func subject(id plan.ID) entitlement.Subject {
	return entitlement.Subject{UserID: uuid.New(), PlanID: id, Status: entitlement.StatusActive}
}

var errConnRefused = errors.New("dial tcp: connection refused")

type brokenTracker struct{}

func (brokenTracker) Record(context.Context, uuid.UUID, plan.Limit) (usage.Record, error) {
	return usage.Record{}, errors.Join(usage.ErrStoreUnavailable, errConnRefused)
}

func (brokenTracker) CheckAndIncrement(context.Context, uuid.UUID, plan.Limit, int64) (int64, error) {
	return 0, errors.Join(usage.ErrStoreUnavailable, errConnRefused)
}

func TestNew(t *testing.T) {
	t.Parallel()

	catalog := newCatalog(t)

	_, err := entitlement.New(nil, newTracker(catalog))
	assert.ErrorIs(t, err, entitlement.ErrNilCatalog)

	_, err = entitlement.New(catalog, nil)
	assert.ErrorIs(t, err, entitlement.ErrNilTracker)

	engine, err := entitlement.New(catalog, newTracker(catalog), entitlement.WithLogger(nil), entitlement.WithRecorder(nil))
	require.NoError(t, err)
	assert.Same(t, catalog, engine.Catalog())
}

func TestEngine_SuperAdmin(t *testing.T) {
	t.Parallel()

	t.Run("allowed on free for an enterprise-only feature", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := entitlement.Subject{UserID: uuid.New(), PlanID: plan.Free, SuperAdmin: true, Status: entitlement.StatusActive}

		d, err := engine.Evaluate(context.Background(), subj, plan.CategorySystem, plan.FeatureWhiteLabeling)

		require.NoError(t, err)
		assert.Equal(t, entitlement.Allowed, d.Kind)
		assert.True(t, d.Override)
	})

	t.Run("dominates every other check", func(t *testing.T) {
		t.Parallel()

		engine, tracker := newEngine(t)

		for _, id := range []plan.ID{plan.Free, plan.Enterprise, "legacy"} {
			for _, status := range []entitlement.Status{entitlement.StatusActive, entitlement.StatusExpired, ""} {
				subj := entitlement.Subject{UserID: uuid.New(), PlanID: id, SuperAdmin: true, Status: status}

				d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, "noSuchFeature",
					entitlement.WithLimit("noSuchLimit"))

				require.NoError(t, err)
				assert.True(t, d.Allowed(), "plan %s status %q", id, status)
				assert.Nil(t, d.Quota)
			}
		}

		subj := entitlement.Subject{UserID: uuid.New(), PlanID: plan.Free, SuperAdmin: true}
		for range 20 {
			d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureBasicAI,
				entitlement.WithLimit(plan.LimitAIRequests))
			require.NoError(t, err)
			require.True(t, d.Allowed())
		}
		used, err := tracker.CurrentUsage(context.Background(), subj.UserID, plan.LimitAIRequests)
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("bypass is audited", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		engine, _ := newEngine(t, entitlement.WithLogger(logger.New(logger.WithOutput(buf))))
		subj := entitlement.Subject{UserID: uuid.New(), PlanID: plan.Free, SuperAdmin: true}

		_, err := engine.Evaluate(context.Background(), subj, plan.CategorySystem, plan.FeatureAuditLogs)
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "super-admin override")
		assert.Contains(t, out, `"audit":true`)
		assert.Contains(t, out, subj.UserID.String())
		assert.Contains(t, out, `"feature":"auditLogs"`)
	})
}

func TestEngine_SubscriptionStatus(t *testing.T) {
	t.Parallel()

	t.Run("expired enterprise is denied", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := subject(plan.Enterprise)
		subj.Status = entitlement.StatusExpired

		d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureAdvancedAI)

		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedBySubscriptionInactive, d.Kind)
		assert.False(t, d.Allowed())
	})

	t.Run("expired never consumes quota", func(t *testing.T) {
		t.Parallel()

		engine, tracker := newEngine(t)
		subj := subject(plan.Professional)
		subj.Status = entitlement.StatusExpired

		d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureBasicAI,
			entitlement.WithLimit(plan.LimitAIRequests))
		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedBySubscriptionInactive, d.Kind)
		assert.Nil(t, d.Quota)

		used, err := tracker.CurrentUsage(context.Background(), subj.UserID, plan.LimitAIRequests)
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("inactive dominates plan lookup", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := entitlement.Subject{UserID: uuid.New(), PlanID: "legacy", Status: entitlement.StatusExpired}

		d, err := engine.Evaluate(context.Background(), subj, plan.CategoryContacts, plan.FeatureBasicContacts)

		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedBySubscriptionInactive, d.Kind)
	})

	t.Run("unset status is inactive", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := entitlement.Subject{UserID: uuid.New(), PlanID: plan.Enterprise}

		d, err := engine.Evaluate(context.Background(), subj, plan.CategoryContacts, plan.FeatureBasicContacts)

		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedBySubscriptionInactive, d.Kind)
	})

	t.Run("trial grants plan features", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := subject(plan.Professional)
		subj.Status = entitlement.StatusTrial

		d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureAdvancedAI)

		require.NoError(t, err)
		assert.Equal(t, entitlement.Allowed, d.Kind)
	})
}

func TestEngine_PlanFeatures(t *testing.T) {
	t.Parallel()

	t.Run("disabled on free, enabled on enterprise", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		userID := uuid.New()

		free := entitlement.Subject{UserID: userID, PlanID: plan.Free, Status: entitlement.StatusActive}
		d, err := engine.Evaluate(context.Background(), free, plan.CategorySystem, plan.FeatureWhiteLabeling)
		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedByPlan, d.Kind)
		assert.Equal(t, plan.Free, d.PlanID)

		enterprise := entitlement.Subject{UserID: userID, PlanID: plan.Enterprise, Status: entitlement.StatusActive}
		d, err = engine.Evaluate(context.Background(), enterprise, plan.CategorySystem, plan.FeatureWhiteLabeling)
		require.NoError(t, err)
		assert.Equal(t, entitlement.Allowed, d.Kind)
		assert.False(t, d.Override)
	})

	t.Run("matches the catalog for every schema feature and is stable", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		catalog := engine.Catalog()
		schema := catalog.Schema()

		for _, id := range plan.IDs() {
			subj := subject(id)
			for _, category := range schema.Categories() {
				for _, feature := range schema.Features(category) {
					want := catalog.IsFeatureEnabled(id, category, feature)

					first, err := engine.Evaluate(context.Background(), subj, category, feature)
					require.NoError(t, err)
					second, err := engine.Evaluate(context.Background(), subj, category, feature)
					require.NoError(t, err)

					assert.Equal(t, first, second)
					assert.Equal(t, want, first.Allowed(), "%s %s.%s", id, category, feature)
					assert.Equal(t, want, engine.Can(context.Background(), subj, category, feature))
				}
			}
		}
	})

	t.Run("undefined feature is denied and reported", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		engine, _ := newEngine(t, entitlement.WithLogger(logger.New(logger.WithOutput(buf))))

		d, err := engine.Evaluate(context.Background(), subject(plan.Enterprise), plan.CategoryAITools, "advancedAl")

		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedByPlan, d.Kind)
		assert.Contains(t, buf.String(), "feature is not defined in the catalog")
		assert.Contains(t, buf.String(), `"level":"WARN"`)
	})

	t.Run("denied by plan never consumes quota", func(t *testing.T) {
		t.Parallel()

		engine, tracker := newEngine(t)
		subj := subject(plan.Free)

		d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureAdvancedAI,
			entitlement.WithLimit(plan.LimitAIRequests))
		require.NoError(t, err)
		assert.Equal(t, entitlement.DeniedByPlan, d.Kind)

		used, err := tracker.CurrentUsage(context.Background(), subj.UserID, plan.LimitAIRequests)
		require.NoError(t, err)
		assert.Zero(t, used)
	})
}

func TestEngine_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		engine, _ := newEngine(t, entitlement.WithLogger(logger.New(logger.WithOutput(buf))))

		d, err := engine.Evaluate(context.Background(), subject("legacy"), plan.CategoryContacts, plan.FeatureBasicContacts)

		require.ErrorIs(t, err, plan.ErrUnknownPlan)
		assert.False(t, d.Allowed())
		assert.Equal(t, entitlement.Decision{}, d)
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})

	t.Run("unknown limit", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)

		d, err := engine.Evaluate(context.Background(), subject(plan.Basic), plan.CategoryContacts, plan.FeatureBasicContacts,
			entitlement.WithLimit("maxWidgets"))

		require.ErrorIs(t, err, plan.ErrUnknownLimit)
		assert.False(t, d.Allowed())
	})

	t.Run("can treats errors as denial", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		assert.False(t, engine.Can(context.Background(), subject("legacy"), plan.CategoryContacts, plan.FeatureBasicContacts))
	})
}

func TestEngine_Quota(t *testing.T) {
	t.Parallel()

	t.Run("boundary", func(t *testing.T) {
		t.Parallel()

		engine, tracker := newEngine(t)
		subj := subject(plan.Free)
		eval := func() entitlement.Decision {
			d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureBasicAI,
				entitlement.WithLimit(plan.LimitAIRequests))
			require.NoError(t, err)
			return d
		}

		for i := range 10 {
			d := eval()
			require.Equal(t, entitlement.Allowed, d.Kind)
			require.NotNil(t, d.Quota)
			assert.Equal(t, int64(i+1), d.Quota.Current)
			assert.Equal(t, int64(10), d.Quota.Max)
		}

		d := eval()
		assert.Equal(t, entitlement.QuotaExceeded, d.Kind)
		assert.Equal(t, &entitlement.Quota{Limit: plan.LimitAIRequests, Current: 10, Max: 10}, d.Quota)
		assert.Zero(t, d.Quota.Remaining())

		used, err := tracker.CurrentUsage(context.Background(), subj.UserID, plan.LimitAIRequests)
		require.NoError(t, err)
		assert.Equal(t, int64(10), used)
	})

	t.Run("unlimited", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := subject(plan.Enterprise)

		for range 250 {
			d, err := engine.Evaluate(context.Background(), subj, plan.CategoryCommunication, plan.FeatureEmail,
				entitlement.WithLimit(plan.LimitEmailsPerMonth))
			require.NoError(t, err)
			require.Equal(t, entitlement.Allowed, d.Kind)
			assert.Equal(t, plan.Unlimited, d.Quota.Remaining())
		}
	})

	t.Run("storage failure fails closed", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		engine, err := entitlement.New(newCatalog(t), brokenTracker{},
			entitlement.WithLogger(logger.New(logger.WithOutput(buf))))
		require.NoError(t, err)

		d, err := engine.Evaluate(context.Background(), subject(plan.Enterprise), plan.CategoryAITools, plan.FeatureBasicAI,
			entitlement.WithLimit(plan.LimitAIRequests))

		require.NoError(t, err)
		assert.Equal(t, entitlement.QuotaExceeded, d.Kind)
		assert.False(t, d.Allowed())
		require.NotNil(t, d.Quota)
		assert.True(t, d.Quota.Unverified)
		assert.Contains(t, buf.String(), "usage check failed, denying")
	})

	t.Run("storage failure does not affect checks without a limit", func(t *testing.T) {
		t.Parallel()

		engine, err := entitlement.New(newCatalog(t), brokenTracker{})
		require.NoError(t, err)

		d, err := engine.Evaluate(context.Background(), subject(plan.Free), plan.CategoryAITools, plan.FeatureBasicAI)

		require.NoError(t, err)
		assert.True(t, d.Allowed())
	})

	t.Run("can never consumes quota", func(t *testing.T) {
		t.Parallel()

		engine, tracker := newEngine(t)
		subj := subject(plan.Free)

		for range 20 {
			assert.True(t, engine.Can(context.Background(), subj, plan.CategoryAITools, plan.FeatureBasicAI))
		}

		used, err := tracker.CurrentUsage(context.Background(), subj.UserID, plan.LimitAIRequests)
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("concurrent evaluations", func(t *testing.T) {
		t.Parallel()

		const goroutines = 50

		engine, tracker := newEngine(t)
		subj := subject(plan.Free)

		var wg sync.WaitGroup
		var allowed, exceeded atomic.Int64
		wg.Add(goroutines)
		for range goroutines {
			go func() {
				defer wg.Done()
				d, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureBasicAI,
					entitlement.WithLimit(plan.LimitAIRequests))
				if err != nil {
					return
				}
				switch d.Kind {
				case entitlement.Allowed:
					allowed.Add(1)
				case entitlement.QuotaExceeded:
					exceeded.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(10), allowed.Load())
		assert.Equal(t, int64(goroutines-10), exceeded.Load())

		used, err := tracker.CurrentUsage(context.Background(), subj.UserID, plan.LimitAIRequests)
		require.NoError(t, err)
		assert.Equal(t, int64(10), used)
	})
}

func TestEngine_Check(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)

	t.Run("requires category and feature", func(t *testing.T) {
		t.Parallel()

		_, err := engine.Check(context.Background(), entitlement.Request{UserID: uuid.New(), PlanID: plan.Free})
		assert.ErrorIs(t, err, entitlement.ErrInvalidRequest)
	})

	t.Run("evaluates with limit", func(t *testing.T) {
		t.Parallel()

		req := entitlement.Request{
			UserID:   uuid.New(),
			PlanID:   plan.Basic,
			Status:   entitlement.StatusActive,
			Category: plan.CategoryContacts,
			Feature:  plan.FeatureContactImport,
			Limit:    plan.LimitContacts,
		}

		d, err := engine.Check(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, entitlement.Allowed, d.Kind)
		assert.Equal(t, int64(1), d.Quota.Current)
		assert.Equal(t, int64(1000), d.Quota.Max)
		assert.Equal(t, req.Subject(), entitlement.Subject{
			UserID: req.UserID, PlanID: plan.Basic, Status: entitlement.StatusActive,
		})
	})
}

func TestEngine_Usage(t *testing.T) {
	t.Parallel()

	t.Run("reports every limit without consuming", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)
		subj := subject(plan.Free)

		for range 3 {
			_, err := engine.Evaluate(context.Background(), subj, plan.CategoryAITools, plan.FeatureBasicAI,
				entitlement.WithLimit(plan.LimitAIRequests))
			require.NoError(t, err)
		}

		info, err := engine.Usage(context.Background(), subj)
		require.NoError(t, err)
		require.Len(t, info, 4)

		ai := info[plan.LimitAIRequests]
		assert.Equal(t, int64(3), ai.Current)
		assert.Equal(t, int64(10), ai.Max)
		assert.Equal(t, int64(7), ai.Remaining)
		assert.Equal(t, "2024-06", ai.Period)
		assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), ai.ResetAt)
		assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), ai.NextResetAt)

		contacts := info[plan.LimitContacts]
		assert.Equal(t, usage.LifetimePeriod, contacts.Period)
		assert.Zero(t, contacts.Current)
		assert.Equal(t, int64(100), contacts.Remaining)

		again, err := engine.Usage(context.Background(), subj)
		require.NoError(t, err)
		assert.Equal(t, info, again)
	})

	t.Run("unlimited plan", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)

		info, err := engine.Usage(context.Background(), subject(plan.Enterprise))
		require.NoError(t, err)
		for limit, u := range info {
			assert.True(t, u.Unlimited(), limit)
			assert.Equal(t, plan.Unlimited, u.Remaining)
		}
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(t)

		_, err := engine.Usage(context.Background(), subject("legacy"))
		assert.ErrorIs(t, err, plan.ErrUnknownPlan)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		engine, err := entitlement.New(newCatalog(t), brokenTracker{})
		require.NoError(t, err)

		_, err = engine.Usage(context.Background(), subject(plan.Free))
		assert.ErrorIs(t, err, usage.ErrStoreUnavailable)
	})
}
