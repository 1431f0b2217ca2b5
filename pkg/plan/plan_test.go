package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

func TestPlan_Lookup(t *testing.T) {
	t.Parallel()

	p := plan.Plan{
		ID: plan.Free,
		Features: map[plan.Category]map[plan.Feature]bool{
			plan.CategoryAITools: {plan.FeatureBasicAI: true, plan.FeatureAdvancedAI: false},
		},
	}

	enabled, defined := p.Lookup(plan.CategoryAITools, plan.FeatureBasicAI)
	assert.True(t, enabled)
	assert.True(t, defined)

	enabled, defined = p.Lookup(plan.CategoryAITools, plan.FeatureAdvancedAI)
	assert.False(t, enabled)
	assert.True(t, defined)

	enabled, defined = p.Lookup(plan.CategorySystem, plan.FeatureAuditLogs)
	assert.False(t, enabled)
	assert.False(t, defined)
}

func TestCompare(t *testing.T) {
	t.Parallel()

	t.Run("identifies gained and lost features", func(t *testing.T) {
		t.Parallel()

		current := &plan.Plan{
			ID: plan.Professional,
			Features: map[plan.Category]map[plan.Feature]bool{
				plan.CategoryAITools: {plan.FeatureAdvancedAI: true, plan.FeatureAIInsights: false},
				plan.CategorySystem:  {plan.FeatureAPIAccess: true, plan.FeatureWhiteLabeling: false},
			},
		}
		target := &plan.Plan{
			ID: plan.Basic,
			Features: map[plan.Category]map[plan.Feature]bool{
				plan.CategoryAITools: {plan.FeatureAdvancedAI: false, plan.FeatureAIInsights: true},
				plan.CategorySystem:  {plan.FeatureAPIAccess: false, plan.FeatureWhiteLabeling: true},
			},
		}

		comparison := plan.Compare(current, target)
		require.NotNil(t, comparison)

		assert.Equal(t, []plan.FeatureRef{
			{Category: plan.CategoryAITools, Feature: plan.FeatureAIInsights},
			{Category: plan.CategorySystem, Feature: plan.FeatureWhiteLabeling},
		}, comparison.GainedFeatures)
		assert.Equal(t, []plan.FeatureRef{
			{Category: plan.CategoryAITools, Feature: plan.FeatureAdvancedAI},
			{Category: plan.CategorySystem, Feature: plan.FeatureAPIAccess},
		}, comparison.LostFeatures)
		assert.True(t, comparison.HasLosses())
	})

	t.Run("classifies limit changes", func(t *testing.T) {
		t.Parallel()

		current := &plan.Plan{
			Limits: map[plan.Limit]int64{
				plan.LimitAIRequests:     10,
				plan.LimitContacts:       plan.Unlimited,
				plan.LimitTeamMembers:    3,
				plan.LimitEmailsPerMonth: 100,
			},
		}
		target := &plan.Plan{
			Limits: map[plan.Limit]int64{
				plan.LimitAIRequests:     plan.Unlimited,
				plan.LimitContacts:       1000,
				plan.LimitTeamMembers:    1,
				plan.LimitEmailsPerMonth: 100,
			},
		}

		comparison := plan.Compare(current, target)

		assert.Equal(t, map[plan.Limit]plan.LimitChange{
			plan.LimitAIRequests: {From: 10, To: plan.Unlimited},
		}, comparison.IncreasedLimits)
		assert.Equal(t, map[plan.Limit]plan.LimitChange{
			plan.LimitContacts:    {From: plan.Unlimited, To: 1000},
			plan.LimitTeamMembers: {From: 3, To: 1},
		}, comparison.DecreasedLimits)
		assert.True(t, comparison.HasLosses())
	})

	t.Run("upgrade has no losses", func(t *testing.T) {
		t.Parallel()

		current := &plan.Plan{Limits: map[plan.Limit]int64{plan.LimitAIRequests: 10}}
		target := &plan.Plan{Limits: map[plan.Limit]int64{plan.LimitAIRequests: 100}}

		assert.False(t, plan.Compare(current, target).HasLosses())
	})

	t.Run("nil plans", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, plan.Compare(nil, &plan.Plan{}))
		assert.Nil(t, plan.Compare(&plan.Plan{}, nil))
	})
}
