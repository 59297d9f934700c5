package utils

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectorCounts(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordAnalysis(OutcomeSuccess, 3*time.Millisecond)
	m.RecordAnalysis(OutcomeSuccess, time.Millisecond)
	m.RecordAnalysis(OutcomeInputTooShort, 0)
	m.RecordDream(55, []string{"flying", "being-chased"})
	m.RecordDream(20, []string{"flying"})
	m.RecordError("analysis_failure", "analyzer")
	m.RecordHTTPRequest("POST", "/api/analyze", 200, 5*time.Millisecond)
	m.SetFeedClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeInputTooShort)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.patternsFound.WithLabelValues("flying")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("analysis_failure", "analyzer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/analyze", "200")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.feedClients))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := NewMetricsCollector()
	m.RecordAnalysis(OutcomeFailure, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dreambank_analyses_total{outcome="failure"} 1`)
	assert.Contains(t, string(body), "dreambank_analysis_duration_seconds")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := NewMetricsCollector(), NewMetricsCollector()
	a.RecordAnalysis(OutcomeSuccess, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.analyses.WithLabelValues(OutcomeSuccess)))
	assert.Same(t, GetMetricsCollector(), GetMetricsCollector())
}
