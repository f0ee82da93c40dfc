package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementVerdict("identity_document", "verified")
	m.IncrementVerdict("identity_document", "verified")
	m.IncrementVerdict("cost_line_item", "pending")
	m.IncrementAlert("cost-outlier", "medium")
	m.ObserveVerifyLatency("identity_document", 3*time.Millisecond)
	m.ObserveSuggestions(4)
	m.IncrementReviewNotes("fallback")
	m.IncrementHTTPRequest("/api/v1/verify", "POST", "200")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("identity_document", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("cost_line_item", "pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Alerts.WithLabelValues("cost-outlier", "medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewNotes.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/verify", "POST", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "aidmatch_verify_duration_seconds")
	assert.Contains(t, names, "aidmatch_suggestions_returned")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncrementVerdict("identity_document", "verified")
		m.IncrementAlert("duplicate-identity", "critical")
		m.ObserveVerifyLatency("crisis_claim", time.Second)
		m.ObserveSuggestions(0)
		m.IncrementReviewNotes("skipped")
		m.IncrementHTTPRequest("/health", "GET", "200")
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
