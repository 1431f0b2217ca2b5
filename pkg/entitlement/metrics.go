package entitlement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder observes evaluations. Implementations must be safe for concurrent use.
type Recorder interface {
	// ObserveDecision is called once per successful evaluation.
	ObserveDecision(d Decision, took time.Duration)
	// ObserveError is called when an evaluation fails with a configuration error.
	ObserveError(req Request)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObserveDecision(Decision, time.Duration) {}
func (NopRecorder) ObserveError(Request)                    {}

// PrometheusRecorder exports evaluation metrics under the
// entitlements_engine_* names.
type PrometheusRecorder struct {
	decisions  *prometheus.CounterVec
	errors     *prometheus.CounterVec
	overrides  prometheus.Counter
	unverified *prometheus.CounterVec
	latency    prometheus.Histogram
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entitlements",
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Total evaluations by outcome.",
		}, []string{"kind", "category", "feature"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entitlements",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Total evaluations aborted by a configuration error.",
		}, []string{"category", "feature"}),

		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlements",
			Subsystem: "engine",
			Name:      "overrides_total",
			Help:      "Total super-admin bypasses.",
		}),

		unverified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entitlements",
			Subsystem: "engine",
			Name:      "quota_unverified_total",
			Help:      "Total quota checks denied because the usage store failed.",
		}, []string{"limit"}),

		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "entitlements",
			Subsystem: "engine",
			Name:      "evaluation_duration_seconds",
			Help:      "Evaluation latency in seconds, including the usage store round trip.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	reg.MustRegister(r.decisions, r.errors, r.overrides, r.unverified, r.latency)
	return r
}

func (r *PrometheusRecorder) ObserveDecision(d Decision, took time.Duration) {
	r.decisions.WithLabelValues(string(d.Kind), string(d.Category), string(d.Feature)).Inc()
	r.latency.Observe(took.Seconds())
	if d.Override {
		r.overrides.Inc()
	}
	if d.Quota != nil && d.Quota.Unverified {
		r.unverified.WithLabelValues(string(d.Quota.Limit)).Inc()
	}
}

func (r *PrometheusRecorder) ObserveError(req Request) {
	r.errors.WithLabelValues(string(req.Category), string(req.Feature)).Inc()
}
