package entitlement

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/entitlements/pkg/logger"
)

type subjectCtxKey struct{}

// WithSubject stores the subject in the context for middleware downstream.
func WithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, subjectCtxKey{}, s)
}

// SubjectFromContext returns the subject stored by WithSubject.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(subjectCtxKey{}).(Subject)
	return s, ok
}

// SubjectLogAttrs is a logger.ContextExtractor adding the subject's user and plan
// to every record logged with a context carrying one.
func SubjectLogAttrs(ctx context.Context) (slog.Attr, bool) {
	s, ok := SubjectFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.Group("subject", logger.UserID(s.UserID), logger.PlanID(s.PlanID)), true
}
