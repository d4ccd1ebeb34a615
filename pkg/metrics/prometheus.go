// Package metrics provides Prometheus metrics for the brawl statistics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Profiles
	profilesComputed   prometheus.Counter
	degenerateMetrics  *prometheus.CounterVec
	profileLatency     prometheus.Histogram
	gamesSubmitted     prometheus.Counter
	submissionsReplays prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream API
	upstreamRequests        *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	upstreamRetries         prometheus.Counter

	// Cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Refresh pipeline
	refreshProcessed *prometheus.CounterVec
	refreshFailed    *prometheus.CounterVec
	refreshDuplicate prometheus.Counter
	refreshLatency   prometheus.Histogram

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerActive       prometheus.Gauge

	// Population store
	storePlayers *prometheus.GaugeVec
	storeScopes  prometheus.Gauge

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record*/Update* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served by /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry, prometheus.DefaultRegisterer unless overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "brawl",
		subsystem:        "stats",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.profilesComputed = auto.NewCounter(m.counterOpts("profiles_computed_total",
		"Total number of radar profiles computed"))
	m.degenerateMetrics = auto.NewCounterVec(m.counterOpts("profile_degenerate_metrics_total",
		"Profile metrics that came out NaN or infinite, by axis"), []string{"metric"})
	m.profileLatency = auto.NewHistogram(m.histogramOpts("profile_latency_milliseconds",
		"Time to build a profile including population lookup"))
	m.gamesSubmitted = auto.NewCounter(m.counterOpts("games_submitted_total",
		"Games forwarded to the statistics API"))
	m.submissionsReplays = auto.NewCounter(m.counterOpts("games_duplicate_total",
		"Game submissions rejected as idempotent replays"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.upstreamRequests = auto.NewCounterVec(m.counterOpts("upstream_requests_total",
		"Requests sent to the statistics API"), []string{"method", "status_code"})
	m.upstreamRequestDuration = auto.NewHistogramVec(m.histogramOpts("upstream_request_duration_milliseconds",
		"Statistics API round trip in milliseconds"), []string{"method"})
	m.upstreamRetries = auto.NewCounter(m.counterOpts("upstream_retries_total",
		"Retried statistics API requests"))

	m.cacheHits = auto.NewCounterVec(m.counterOpts("cache_hits_total",
		"Upstream response cache hits"), []string{"backend"})
	m.cacheMisses = auto.NewCounterVec(m.counterOpts("cache_misses_total",
		"Upstream response cache misses"), []string{"backend"})

	m.refreshProcessed = auto.NewCounterVec(m.counterOpts("refresh_jobs_processed_total",
		"Population refresh jobs completed"), []string{"reason"})
	m.refreshFailed = auto.NewCounterVec(m.counterOpts("refresh_jobs_failed_total",
		"Population refresh jobs that failed"), []string{"reason"})
	m.refreshDuplicate = auto.NewCounter(m.counterOpts("refresh_jobs_duplicate_total",
		"Refresh requests dropped as duplicates"))
	m.refreshLatency = auto.NewHistogram(m.histogramOpts("refresh_latency_milliseconds",
		"Time to fetch and store one population"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current refresh queue backlog"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Refresh queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Jobs accepted by the refresh queue"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Jobs rejected by the refresh queue (backpressure or closed)"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured refresh workers"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Refresh workers currently busy"))

	m.storePlayers = auto.NewGaugeVec(m.gaugeOpts("store_players",
		"Players held per population scope"), []string{"scope"})
	m.storeScopes = auto.NewGauge(m.gaugeOpts("store_scopes", "Population scopes held"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and kind"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause in milliseconds"))
}

func active() bool { return globalManager != nil && globalManager.enabled }

// RecordProfileComputed counts one profile and its non-finite axes.
func RecordProfileComputed(latencyMs float64, degenerate []string) {
	if !active() {
		return
	}
	globalManager.profilesComputed.Inc()
	globalManager.profileLatency.Observe(latencyMs)
	for _, metric := range degenerate {
		globalManager.degenerateMetrics.WithLabelValues(metric).Inc()
	}
}

func RecordGameSubmitted() {
	if active() {
		globalManager.gamesSubmitted.Inc()
	}
}

func RecordGameDuplicate() {
	if active() {
		globalManager.submissionsReplays.Inc()
	}
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if active() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if active() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordUpstreamRequest records one attempt against the statistics API.
// statusCode is "error" for transport failures.
func RecordUpstreamRequest(method, statusCode string, durationMs float64) {
	if !active() {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(method, statusCode).Inc()
	globalManager.upstreamRequestDuration.WithLabelValues(method).Observe(durationMs)
}

func RecordUpstreamRetry() {
	if active() {
		globalManager.upstreamRetries.Inc()
	}
}

func RecordCacheHit(backend string) {
	if active() {
		globalManager.cacheHits.WithLabelValues(backend).Inc()
	}
}

func RecordCacheMiss(backend string) {
	if active() {
		globalManager.cacheMisses.WithLabelValues(backend).Inc()
	}
}

func RecordRefreshProcessed(reason string, latencyMs float64) {
	if !active() {
		return
	}
	globalManager.refreshProcessed.WithLabelValues(reason).Inc()
	globalManager.refreshLatency.Observe(latencyMs)
}

func RecordRefreshFailed(reason string) {
	if active() {
		globalManager.refreshFailed.WithLabelValues(reason).Inc()
	}
}

func RecordRefreshDuplicate() {
	if active() {
		globalManager.refreshDuplicate.Inc()
	}
}

func UpdateQueueSize(size int) {
	if active() {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if active() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordQueueEnqueue() {
	if active() {
		globalManager.queueEnqueued.Inc()
	}
}

func RecordQueueEnqueueError() {
	if active() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

func UpdateWorkerCount(count int) {
	if active() {
		globalManager.workerCount.Set(float64(count))
	}
}

// AddWorkerActive moves the busy-worker gauge by delta.
func AddWorkerActive(delta int) {
	if active() {
		globalManager.workerActive.Add(float64(delta))
	}
}

func UpdateStorePlayers(scope string, count int) {
	if active() {
		globalManager.storePlayers.WithLabelValues(scope).Set(float64(count))
	}
}

func UpdateStoreScopes(count int) {
	if active() {
		globalManager.storeScopes.Set(float64(count))
	}
}

func RecordErrorByComponent(component, errorType string) {
	if active() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

func UpdateSystemMemoryUsage(bytes uint64) {
	if active() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if active() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

func RecordSystemGCPauseTime(pauseMs float64) {
	if active() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
