// Package metrics provides Prometheus instrumentation for aidmatch.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification and matching engines.
type Metrics struct {
	// Verdicts by subject kind and status
	Verdicts *prometheus.CounterVec

	// Alerts by type and severity
	Alerts *prometheus.CounterVec

	// Verification latency by subject kind
	VerifyLatency *prometheus.HistogramVec

	// Number of suggestions returned per Suggest call
	SuggestionCount prometheus.Histogram

	// Reviewer-notes drafts by outcome: "drafted", "fallback", "skipped"
	ReviewNotes *prometheus.CounterVec

	// HTTP requests by route, method and status code
	HTTPRequests *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aidmatch_verification_verdicts_total",
			Help: "Total verification verdicts by subject kind and status",
		}, []string{"kind", "status"}),

		Alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aidmatch_fraud_alerts_total",
			Help: "Total fraud alerts attached to verification results",
		}, []string{"type", "severity"}),

		VerifyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aidmatch_verify_duration_seconds",
			Help:    "Duration of a single verification including reviewer notes",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 20},
		}, []string{"kind"}),

		SuggestionCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "aidmatch_suggestions_returned",
			Help:    "Number of provider suggestions returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		ReviewNotes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aidmatch_review_notes_total",
			Help: "Reviewer notes by outcome",
		}, []string{"outcome"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aidmatch_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
	}
}

// IncrementVerdict records a verification verdict.
func (m *Metrics) IncrementVerdict(kind, status string) {
	if m != nil {
		m.Verdicts.WithLabelValues(kind, status).Inc()
	}
}

// IncrementAlert records an attached fraud alert.
func (m *Metrics) IncrementAlert(alertType, severity string) {
	if m != nil {
		m.Alerts.WithLabelValues(alertType, severity).Inc()
	}
}

// ObserveVerifyLatency records the duration of one verification.
func (m *Metrics) ObserveVerifyLatency(kind string, d time.Duration) {
	if m != nil {
		m.VerifyLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// ObserveSuggestions records the length of a suggestion list.
func (m *Metrics) ObserveSuggestions(n int) {
	if m != nil {
		m.SuggestionCount.Observe(float64(n))
	}
}

// IncrementReviewNotes records how reviewer notes were produced.
func (m *Metrics) IncrementReviewNotes(outcome string) {
	if m != nil {
		m.ReviewNotes.WithLabelValues(outcome).Inc()
	}
}

// IncrementHTTPRequest records a served HTTP request.
func (m *Metrics) IncrementHTTPRequest(route, method, code string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, method, code).Inc()
	}
}
