// Package metrics provides Prometheus metrics for the hotrank service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hot list sources, used as label values.
const (
	SourceScoreStore = "score_store"
	SourceDurable    = "durable"
	SourceNone       = "none"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ranking
	viewsRecorded    prometheus.Counter
	viewsFailed      prometheus.Counter
	viewsIgnored     prometheus.Counter
	hotRequests      *prometheus.CounterVec
	hotLatency       *prometheus.HistogramVec
	hotResultSize    prometheus.Histogram
	hotDegraded      prometheus.Counter
	unresolvedIDs    prometheus.Counter
	malformedMembers prometheus.Counter

	// Collaborators
	scoreStoreErrors  *prometheus.CounterVec
	scoreStoreLatency *prometheus.HistogramVec
	scoreStoreUp      prometheus.Gauge
	catalogErrors     *prometheus.CounterVec
	catalogLatency    *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hotrank",
		subsystem:        "ranking",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.viewsRecorded = m.counter("views_recorded_total", "Views successfully counted in the score store")
	m.viewsFailed = m.counter("views_failed_total", "Views lost because the score store call failed")
	m.viewsIgnored = m.counter("views_ignored_total", "View calls ignored because the item id was not valid")
	m.hotRequests = m.counterVec("hot_requests_total", "Hot list requests by the source that produced the result", "source")
	m.hotLatency = m.histogramVec("hot_latency_milliseconds", "Hot list latency in milliseconds by source", "source")
	m.hotResultSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "hot_result_size",
		Help:    "Number of entries returned per hot list request",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})
	m.hotDegraded = m.counter("hot_degraded_total", "Hot list requests served without the score store")
	m.unresolvedIDs = m.counter("unresolved_ids_total", "Score store ids the catalog could not resolve")
	m.malformedMembers = m.counter("malformed_members_total", "Score store members that did not parse to an item id")

	m.scoreStoreErrors = m.counterVec("score_store_errors_total", "Score store call failures by operation", "op")
	m.scoreStoreLatency = m.histogramVec("score_store_latency_milliseconds", "Score store call latency by operation", "op")
	m.scoreStoreUp = m.gauge("score_store_up", "1 if the last score store probe succeeded, 0 otherwise")
	m.catalogErrors = m.counterVec("catalog_errors_total", "Catalog read failures by operation", "op")
	m.catalogLatency = m.histogramVec("catalog_latency_milliseconds", "Catalog read latency by operation", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "system_gc_pause_time_milliseconds",
		Help:    "Average GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordView counts a view outcome: recorded or failed.
func (m *Manager) RecordView(ok bool) {
	if !m.enabled {
		return
	}
	if ok {
		m.viewsRecorded.Inc()
		return
	}
	m.viewsFailed.Inc()
}

// RecordViewIgnored counts a view call with an invalid id.
func (m *Manager) RecordViewIgnored() {
	if m.enabled {
		m.viewsIgnored.Inc()
	}
}

// RecordHot records one hot list request.
func (m *Manager) RecordHot(source string, size int, degraded bool, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.hotRequests.WithLabelValues(source).Inc()
	m.hotLatency.WithLabelValues(source).Observe(latencyMs)
	m.hotResultSize.Observe(float64(size))
	if degraded {
		m.hotDegraded.Inc()
	}
}

// RecordUnresolved adds n score store ids missing from the catalog.
func (m *Manager) RecordUnresolved(n int) {
	if m.enabled && n > 0 {
		m.unresolvedIDs.Add(float64(n))
	}
}

// RecordMalformed adds n members that did not parse.
func (m *Manager) RecordMalformed(n int) {
	if m.enabled && n > 0 {
		m.malformedMembers.Add(float64(n))
	}
}

// RecordScoreStoreCall records latency and outcome of a score store call.
func (m *Manager) RecordScoreStoreCall(op string, latencyMs float64, err error) {
	if !m.enabled {
		return
	}
	m.scoreStoreLatency.WithLabelValues(op).Observe(latencyMs)
	if err != nil {
		m.scoreStoreErrors.WithLabelValues(op).Inc()
		m.errorRateByComponent.WithLabelValues("score_store", op).Inc()
	}
}

// UpdateScoreStoreUp stores the result of the latest probe.
func (m *Manager) UpdateScoreStoreUp(up bool) {
	if !m.enabled {
		return
	}
	if up {
		m.scoreStoreUp.Set(1)
		return
	}
	m.scoreStoreUp.Set(0)
}

// RecordCatalogCall records latency and outcome of a catalog read.
func (m *Manager) RecordCatalogCall(op string, latencyMs float64, err error) {
	if !m.enabled {
		return
	}
	m.catalogLatency.WithLabelValues(op).Observe(latencyMs)
	if err != nil {
		m.catalogErrors.WithLabelValues(op).Inc()
		m.errorRateByComponent.WithLabelValues("catalog", op).Inc()
	}
}

// RecordHTTPRequest records one HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem sets the system gauges.
func (m *Manager) UpdateSystem(heapBytes uint64, goroutines int, avgGCPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(heapBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if avgGCPauseMs > 0 {
		m.systemGCPauseTime.Observe(avgGCPauseMs)
	}
}

// Package-level helpers delegate to the global manager.

// RecordView counts a view outcome on the global manager.
func RecordView(ok bool) { globalManager.RecordView(ok) }

// RecordViewIgnored counts an ignored view on the global manager.
func RecordViewIgnored() { globalManager.RecordViewIgnored() }

// RecordHot records a hot list request on the global manager.
func RecordHot(source string, size int, degraded bool, latencyMs float64) {
	globalManager.RecordHot(source, size, degraded, latencyMs)
}

// RecordUnresolved records unresolved ids on the global manager.
func RecordUnresolved(n int) { globalManager.RecordUnresolved(n) }

// RecordMalformed records malformed members on the global manager.
func RecordMalformed(n int) { globalManager.RecordMalformed(n) }

// RecordScoreStoreCall records a score store call on the global manager.
func RecordScoreStoreCall(op string, latencyMs float64, err error) {
	globalManager.RecordScoreStoreCall(op, latencyMs, err)
}

// UpdateScoreStoreUp records a probe result on the global manager.
func UpdateScoreStoreUp(up bool) { globalManager.UpdateScoreStoreUp(up) }

// RecordCatalogCall records a catalog read on the global manager.
func RecordCatalogCall(op string, latencyMs float64, err error) {
	globalManager.RecordCatalogCall(op, latencyMs, err)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an HTTP error on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

// UpdateSystem sets system gauges on the global manager.
func UpdateSystem(heapBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(heapBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
