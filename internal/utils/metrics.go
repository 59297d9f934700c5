// internal/utils/metrics.go
package utils

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeInputTooShort = "input_too_short"
	OutcomeFailure       = "failure"
	OutcomeCached        = "cached"
)

// MetricsCollector owns a private Prometheus registry with the service metrics
type MetricsCollector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	patternsFound    *prometheus.CounterVec
	intensity        prometheus.Histogram
	errors           *prometheus.CounterVec
	feedClients      prometheus.Gauge
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

// NewMetricsCollector builds a collector with its own registry
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreambank_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dreambank_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreambank_analyses_total",
			Help: "Dream analyses by outcome.",
		}, []string{"outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dreambank_analysis_duration_seconds",
			Help:    "Time spent in the analysis pipeline.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		patternsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreambank_patterns_found_total",
			Help: "Narrative patterns detected, by pattern.",
		}, []string{"pattern"}),
		intensity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dreambank_dream_intensity_score",
			Help:    "Distribution of dream intensity scores.",
			Buckets: []float64{20, 40, 60, 80, 100},
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreambank_errors_total",
			Help: "Errors by type and component.",
		}, []string{"type", "component"}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreambank_feed_clients",
			Help: "Connected live feed clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.analyses, m.analysisDuration, m.patternsFound, m.intensity,
		m.errors, m.feedClients,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAnalysis counts one pipeline run
func (m *MetricsCollector) RecordAnalysis(outcome string, duration time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCached {
		m.analysisDuration.Observe(duration.Seconds())
	}
}

// RecordDream records the scored features of a successful analysis
func (m *MetricsCollector) RecordDream(intensity float64, patterns []string) {
	m.intensity.Observe(intensity)
	for _, p := range patterns {
		m.patternsFound.WithLabelValues(p).Inc()
	}
}

func (m *MetricsCollector) RecordError(errType, component string) {
	m.errors.WithLabelValues(errType, component).Inc()
}

func (m *MetricsCollector) SetFeedClients(n int) {
	m.feedClients.Set(float64(n))
}
