package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Engagement metrics
	TogglesTotal     *prometheus.CounterVec
	ToggleRacesTotal *prometheus.CounterVec

	// Media ingestion metrics
	IngestionsTotal    *prometheus.CounterVec
	IngestedBytes      *prometheus.HistogramVec
	ProvisioningsTotal *prometheus.CounterVec

	// Content intelligence metrics
	IntelligenceCallsTotal   *prometheus.CounterVec
	IntelligenceCallDuration *prometheus.HistogramVec
	AnalysisCacheTotal       *prometheus.CounterVec

	// Feed metrics
	FeedGenerationTime *prometheus.HistogramVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			TogglesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_toggles_total",
					Help: "Total number of reaction toggles by kind and resulting state",
				},
				[]string{"kind", "state"},
			),
			ToggleRacesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_toggle_races_total",
					Help: "Duplicate-key races on relation insert resolved as already active",
				},
				[]string{"kind"},
			),

			IngestionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "media_ingestions_total",
					Help: "Total number of media uploads by backend and result",
				},
				[]string{"backend", "result"},
			),
			IngestedBytes: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "media_ingested_bytes",
					Help:    "Size of stored uploads in bytes",
					Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
				},
				[]string{"backend"},
			),
			ProvisioningsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "media_container_provisionings_total",
					Help: "Container provisioning attempts by backend and result",
				},
				[]string{"backend", "result"},
			),

			IntelligenceCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "intelligence_calls_total",
					Help: "Model calls by operation and outcome (ok or fallback)",
				},
				[]string{"operation", "outcome"},
			),
			IntelligenceCallDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "intelligence_call_duration_seconds",
					Help:    "Model call latency in seconds",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
				},
				[]string{"operation"},
			),
			AnalysisCacheTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analysis_cache_operations_total",
					Help: "Analysis cache lookups by result",
				},
				[]string{"result"},
			),

			FeedGenerationTime: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_generation_duration_seconds",
					Help:    "Time to assemble a feed page in seconds",
					Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"feed_type"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}

func RecordToggle(kind string, active bool) {
	state := "deactivated"
	if active {
		state = "activated"
	}
	Get().TogglesTotal.WithLabelValues(kind, state).Inc()
}

func RecordToggleRace(kind string) {
	Get().ToggleRacesTotal.WithLabelValues(kind).Inc()
}

func RecordIngestion(backend, result string, size int) {
	m := Get()
	m.IngestionsTotal.WithLabelValues(backend, result).Inc()
	if result == "stored" {
		m.IngestedBytes.WithLabelValues(backend).Observe(float64(size))
	}
}

func RecordProvisioning(backend string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	Get().ProvisioningsTotal.WithLabelValues(backend, result).Inc()
}

func RecordIntelligenceCall(operation string, duration time.Duration, err error) {
	m := Get()
	outcome := "ok"
	if err != nil {
		outcome = "fallback"
	}
	m.IntelligenceCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.IntelligenceCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordAnalysisCache(result string) {
	Get().AnalysisCacheTotal.WithLabelValues(result).Inc()
}

func RecordFeedGeneration(feedType string, duration time.Duration) {
	Get().FeedGenerationTime.WithLabelValues(feedType).Observe(duration.Seconds())
}

func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
