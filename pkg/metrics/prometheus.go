// Package metrics provides Prometheus metrics for the snaptrust analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the snaptrust service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Snapshot Metrics - dashboard aggregation
	snapshotBuilds      *prometheus.CounterVec
	snapshotLatency     *prometheus.HistogramVec
	snapshotUnavailable *prometheus.GaugeVec
	averagesFallbacks   *prometheus.CounterVec

	// Dataset Metrics - CSV loading and repository swaps
	entitiesLoaded        *prometheus.GaugeVec
	datasetReloads        prometheus.Counter
	datasetReloadErrors   prometheus.Counter
	datasetSkippedRows    *prometheus.GaugeVec
	datasetReloadDuration prometheus.Histogram
	datasetLastReloadUnix prometheus.Gauge

	// Repository Metrics
	repositoryQueryLatency prometheus.Histogram

	// Insight Metrics
	insightGenerations *prometheus.CounterVec
	insightLatency     *prometheus.HistogramVec

	// Remote Analytics Metrics
	remoteRequests *prometheus.CounterVec
	remoteLatency  *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "snaptrust",
		subsystem:        "analytics",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	// A disabled manager still hands out working collectors, they are just
	// never exported.
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often runtime gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether the manager's metrics are exported.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Snapshot Metrics
	m.snapshotBuilds = auto.NewCounterVec(
		m.counterOpts("snapshot_builds_total", "Total number of metrics snapshots built"),
		[]string{"kind"},
	)
	m.snapshotLatency = auto.NewHistogramVec(
		m.histogramOpts("snapshot_latency_milliseconds", "Snapshot fetch and build latency in milliseconds", m.histogramBuckets),
		[]string{"kind"},
	)
	m.snapshotUnavailable = auto.NewGaugeVec(
		m.gaugeOpts("snapshot_unavailable_metrics", "Metrics rendered as unavailable in the latest snapshot"),
		[]string{"kind"},
	)
	m.averagesFallbacks = auto.NewCounterVec(
		m.counterOpts("averages_fallbacks_total", "Averages fetches that failed and degraded to an empty record"),
		[]string{"kind"},
	)

	// Dataset Metrics
	m.entitiesLoaded = auto.NewGaugeVec(
		m.gaugeOpts("entities_loaded", "Number of entities in the current repository snapshot"),
		[]string{"kind"},
	)
	m.datasetReloads = auto.NewCounter(m.counterOpts("dataset_reloads_total", "Total number of successful dataset reloads"))
	m.datasetReloadErrors = auto.NewCounter(m.counterOpts("dataset_reload_errors_total", "Total number of failed dataset reloads"))
	m.datasetSkippedRows = auto.NewGaugeVec(
		m.gaugeOpts("dataset_skipped_rows", "Malformed rows skipped in the last load"),
		[]string{"file"},
	)
	m.datasetReloadDuration = auto.NewHistogram(
		m.histogramOpts("dataset_reload_duration_milliseconds", "Dataset load and index duration in milliseconds", m.histogramBuckets),
	)
	m.datasetLastReloadUnix = auto.NewGauge(m.gaugeOpts("dataset_last_reload_unix", "Unix timestamp of the last successful dataset reload"))

	// Repository Metrics
	m.repositoryQueryLatency = auto.NewHistogram(
		m.histogramOpts("repository_query_latency_milliseconds", "Repository query operation latency in milliseconds", m.histogramBuckets),
	)

	// Insight Metrics
	m.insightGenerations = auto.NewCounterVec(
		m.counterOpts("insight_generations_total", "Insight generations by entity kind and producing source"),
		[]string{"kind", "source"},
	)
	m.insightLatency = auto.NewHistogramVec(
		m.histogramOpts("insight_latency_milliseconds", "Insight generation latency in milliseconds", m.histogramBuckets),
		[]string{"source"},
	)

	// Remote Analytics Metrics
	m.remoteRequests = auto.NewCounterVec(
		m.counterOpts("remote_requests_total", "Requests sent to the remote analytics service"),
		[]string{"endpoint", "outcome"},
	)
	m.remoteLatency = auto.NewHistogramVec(
		m.histogramOpts("remote_latency_milliseconds", "Remote analytics request latency in milliseconds", m.histogramBuckets),
		[]string{"endpoint"},
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Snapshot Metrics Functions.

// RecordSnapshotBuild counts a snapshot build and its latency.
func RecordSnapshotBuild(kind string, latencyMs float64) {
	globalManager.snapshotBuilds.WithLabelValues(kind).Inc()
	globalManager.snapshotLatency.WithLabelValues(kind).Observe(latencyMs)
}

// UpdateSnapshotUnavailable sets how many metrics the latest snapshot could not compute.
func UpdateSnapshotUnavailable(kind string, count int) {
	globalManager.snapshotUnavailable.WithLabelValues(kind).Set(float64(count))
}

// RecordAveragesFallback counts an averages fetch that degraded to empty.
func RecordAveragesFallback(kind string) {
	globalManager.averagesFallbacks.WithLabelValues(kind).Inc()
}

// Dataset Metrics Functions.

// UpdateEntitiesLoaded sets the entity count for a kind.
func UpdateEntitiesLoaded(kind string, count int) {
	globalManager.entitiesLoaded.WithLabelValues(kind).Set(float64(count))
}

// RecordDatasetReload records a successful reload and its duration.
func RecordDatasetReload(durationMs float64) {
	globalManager.datasetReloads.Inc()
	globalManager.datasetReloadDuration.Observe(durationMs)
	globalManager.datasetLastReloadUnix.Set(float64(time.Now().Unix()))
}

// RecordDatasetReloadError counts a failed reload.
func RecordDatasetReloadError() {
	globalManager.datasetReloadErrors.Inc()
}

// UpdateDatasetSkippedRows sets the number of malformed rows skipped in a file.
func UpdateDatasetSkippedRows(file string, count int) {
	globalManager.datasetSkippedRows.WithLabelValues(file).Set(float64(count))
}

// Repository Metrics Functions.

// RecordRepositoryQueryLatency records repository query operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Insight Metrics Functions.

// RecordInsightGeneration counts an insight generation by producing source.
func RecordInsightGeneration(kind, source string, latencyMs float64) {
	globalManager.insightGenerations.WithLabelValues(kind, source).Inc()
	globalManager.insightLatency.WithLabelValues(source).Observe(latencyMs)
}

// Remote Analytics Metrics Functions.

// RecordRemoteRequest counts a remote analytics request.
func RecordRemoteRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.remoteRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.remoteLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure replaces the process-wide manager with one built from opts on a
// fresh registry. Call it once at startup, before any metric is served.
func Configure(opts ...Option) *Manager {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	return globalManager
}
