package entitlement

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/entitlements/pkg/logger"
)

// override grants a super-admin access without consulting the subscription,
// the catalog or the usage store. Every bypass leaves an audit record.
func (e *Engine) override(ctx context.Context, req Request) Decision {
	e.log.InfoContext(ctx, "super-admin override",
		slog.Bool("audit", true),
		logger.UserID(req.UserID),
		logger.PlanID(req.PlanID),
		logger.Category(req.Category),
		logger.Feature(req.Feature),
		logger.Limit(req.Limit),
	)

	return Decision{
		Kind:     Allowed,
		PlanID:   req.PlanID,
		Category: req.Category,
		Feature:  req.Feature,
		Override: true,
	}
}
