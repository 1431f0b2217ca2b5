package guard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/entitlements/pkg/entitlement"
	"github.com/dmitrymomot/entitlements/pkg/logger"
	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// SubjectFunc extracts the subject of a request.
type SubjectFunc func(r *http.Request) (entitlement.Subject, bool)

// SubjectFromRequest reads the subject stored by entitlement.WithSubject.
func SubjectFromRequest(r *http.Request) (entitlement.Subject, bool) {
	return entitlement.SubjectFromContext(r.Context())
}

// DeniedHandler writes the response for a request that was not allowed.
type DeniedHandler func(w http.ResponseWriter, r *http.Request, d entitlement.Decision, o Outcome)

// ErrorHandler writes the response for a failed evaluation or a missing subject.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type options struct {
	limit   plan.Limit
	subject SubjectFunc
	denied  DeniedHandler
	onError ErrorHandler
	log     *slog.Logger
}

// Option configures Require.
type Option func(*options)

// WithLimit consumes one unit of limit for every request the feature check lets through.
func WithLimit(limit plan.Limit) Option {
	return func(o *options) { o.limit = limit }
}

// WithSubjectFunc replaces SubjectFromRequest.
func WithSubjectFunc(fn SubjectFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.subject = fn
		}
	}
}

// WithDeniedHandler replaces the default JSON denial response.
func WithDeniedHandler(h DeniedHandler) Option {
	return func(o *options) {
		if h != nil {
			o.denied = h
		}
	}
}

// WithErrorHandler replaces the default JSON error response.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

type decisionCtxKey struct{}

// DecisionFromContext returns the decision that let the request through.
func DecisionFromContext(ctx context.Context) (entitlement.Decision, bool) {
	d, ok := ctx.Value(decisionCtxKey{}).(entitlement.Decision)
	return d, ok
}

// Require gates a handler on feature of category.
// Every request is evaluated afresh, so a plan change or a consumed quota applies
// to the very next request.
//
// Default responses are JSON: 401 without a subject, 402 with an upgrade or
// billing prompt, 429 when the quota is used up, 503 when usage could not be
// verified, 500 on configuration errors.
func Require(engine *entitlement.Engine, category plan.Category, feature plan.Feature, opts ...Option) func(http.Handler) http.Handler {
	o := &options{
		subject: SubjectFromRequest,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.denied == nil {
		o.denied = defaultDenied
	}
	if o.onError == nil {
		o.onError = defaultError(o.log)
	}

	var evalOpts []entitlement.EvalOption
	if o.limit != "" {
		evalOpts = append(evalOpts, entitlement.WithLimit(o.limit))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subj, ok := o.subject(r)
			if !ok {
				o.onError(w, r, ErrMissingSubject)
				return
			}

			d, err := engine.Evaluate(r.Context(), subj, category, feature, evalOpts...)
			if err != nil {
				o.onError(w, r, err)
				return
			}

			if d.Quota != nil && !d.Quota.Unverified {
				w.Header().Set("X-Quota-Limit", strconv.FormatInt(d.Quota.Max, 10))
				w.Header().Set("X-Quota-Remaining", strconv.FormatInt(d.Quota.Remaining(), 10))
			}

			if !d.Allowed() {
				o.denied(w, r, d, Resolve(engine.Catalog(), d))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), decisionCtxKey{}, d)))
		})
	}
}

// StatusCode returns the HTTP status for a decision.
func StatusCode(d entitlement.Decision) int {
	switch d.Kind {
	case entitlement.Allowed:
		return http.StatusOK
	case entitlement.DeniedByPlan, entitlement.DeniedBySubscriptionInactive:
		return http.StatusPaymentRequired
	case entitlement.QuotaExceeded:
		if d.Quota != nil && d.Quota.Unverified {
			return http.StatusServiceUnavailable
		}
		return http.StatusTooManyRequests
	}
	return http.StatusForbidden
}

type deniedResponse struct {
	Error    string               `json:"error"`
	Decision entitlement.Decision `json:"decision"`
	Outcome  Outcome              `json:"outcome"`
}

func defaultDenied(w http.ResponseWriter, _ *http.Request, d entitlement.Decision, o Outcome) {
	writeJSON(w, StatusCode(d), deniedResponse{
		Error:    string(d.Kind),
		Decision: d,
		Outcome:  o,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// defaultError hides configuration errors from clients; operators get them in the log.
func defaultError(log *slog.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if errors.Is(err, ErrMissingSubject) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		log.ErrorContext(r.Context(), "entitlement check failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
