package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlements/pkg/logger"
	"github.com/dmitrymomot/entitlements/pkg/plan"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value string
	}{
		{"plan", logger.PlanID(plan.Professional), "plan_id", "professional"},
		{"category", logger.Category(plan.CategoryAITools), "category", "aiTools"},
		{"feature", logger.Feature(plan.FeatureAdvancedAI), "feature", "advancedAI"},
		{"limit", logger.Limit(plan.LimitAIRequests), "limit", string(plan.LimitAIRequests)},
		{"decision", logger.Decision("quota_exceeded"), "decision", "quota_exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.value, tt.attr.Value.String())
		})
	}
}

func TestQuota(t *testing.T) {
	attr := logger.Quota(5, 10)
	require.Equal(t, "quota", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, int64(5), g[0].Value.Int64())
	assert.Equal(t, int64(10), g[1].Value.Int64())
}

func TestUserID(t *testing.T) {
	attr := logger.UserID("123")
	require.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "123", attr.Value.Any())

	assert.True(t, logger.UserID(nil).Equal(slog.Attr{}))
}

func TestParseEnvironment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logger.Production, logger.ParseEnvironment("prod"))
	assert.Equal(t, logger.Production, logger.ParseEnvironment(" Production "))
	assert.Equal(t, logger.Staging, logger.ParseEnvironment("stage"))
	assert.Equal(t, logger.Development, logger.ParseEnvironment("dev"))
	assert.Equal(t, logger.Development, logger.ParseEnvironment(""))
}
