// Package logger builds *slog.Logger instances for the entitlement service.
//
// New takes functional options for format, level, output, static attributes and
// ContextExtractor callbacks. The returned logger wraps its handler in a
// ContextHandler, which runs the extractors on every record so values such as
// the evaluated subject are attached without threading them through each call.
//
//	log := logger.New(
//	    logger.WithEnvironment(logger.ParseEnvironment(cfg.Env), "entitlements"),
//	    logger.WithContextExtractors(entitlement.SubjectLogAttrs),
//	)
//	log.WarnContext(ctx, "quota check failed closed",
//	    logger.Limit(plan.LimitAIRequests),
//	    logger.Error(err),
//	)
//
// The attribute helpers in attr.go keep key names consistent across packages.
// Error and Errors return an empty Attr for nil errors, which slog drops.
package logger
