// Package metrics provides Prometheus metrics for the pitchtag service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
	nsToMs                 = 1e6
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets  []float64
	publishBuckets  []float64
	export          bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// Tagging
	tagsRecorded          *prometheus.CounterVec
	advisories            *prometheus.CounterVec
	clampedPoints         *prometheus.CounterVec
	classifierPassthrough prometheus.Counter
	tagOperationLatency   *prometheus.HistogramVec

	// Sessions
	activeSessions   prometheus.Gauge
	sessionsCreated  prometheus.Counter
	sessionsRejected prometheus.Counter

	// Ingestion
	ingestTags *prometheus.CounterVec

	// Publishing
	publishTotal   *prometheus.CounterVec
	publishLatency prometheus.Histogram

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Live feed
	feedClients  prometheus.Gauge
	feedMessages prometheus.Counter
	feedDropped  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "pitchtag",
		subsystem:       "tagging",
		latencyBuckets:  defaultLatencyBuckets,
		publishBuckets:  defaultPublishBuckets,
		export:          true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.export {
		// Collectors still work but are never exported.
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.constLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.tagsRecorded = auto.NewCounterVec(
		m.counterOpts("tags_recorded_total", "Tags added to a session collection"),
		[]string{"sport", "interaction", "op"},
	)
	m.advisories = auto.NewCounterVec(
		m.counterOpts("advisories_total", "Interaction inputs answered with an advisory"),
		[]string{"advisory"},
	)
	m.clampedPoints = auto.NewCounterVec(
		m.counterOpts("clamped_points_total", "Points clamped onto the pitch surface"),
		[]string{"source"},
	)
	m.classifierPassthrough = auto.NewCounter(
		m.counterOpts("classifier_passthrough_total", "Action labels no classifier rule matched"),
	)
	m.tagOperationLatency = auto.NewHistogramVec(
		m.histogramOpts("operation_latency_milliseconds", "Session operation latency in milliseconds", m.latencyBuckets),
		[]string{"operation"},
	)

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Open tagging sessions"))
	m.sessionsCreated = auto.NewCounter(m.counterOpts("sessions_created_total", "Tagging sessions created"))
	m.sessionsRejected = auto.NewCounter(m.counterOpts("sessions_rejected_total", "Session creations refused by the session cap"))

	m.ingestTags = auto.NewCounterVec(
		m.counterOpts("ingest_tags_total", "External tags by ingestion result"),
		[]string{"result"},
	)

	m.publishTotal = auto.NewCounterVec(
		m.counterOpts("publish_total", "Tag records handed to the publisher by result"),
		[]string{"result"},
	)
	m.publishLatency = auto.NewHistogram(
		m.histogramOpts("publish_latency_milliseconds", "Publisher latency in milliseconds", m.publishBuckets),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the publish queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum publish queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Publish queue utilization ratio (size / capacity)"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Tag records enqueued for publishing"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Tag records dequeued for publishing"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Tag records that could not be enqueued"))
	m.queueProcessingLatency = auto.NewHistogram(
		m.histogramOpts("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.latencyBuckets),
	)

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running publish workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.latencyBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Worker processing errors"))

	m.feedClients = auto.NewGauge(m.gaugeOpts("feed_clients", "Connected live feed clients"))
	m.feedMessages = auto.NewCounter(m.counterOpts("feed_messages_total", "Live feed messages delivered to clients"))
	m.feedDropped = auto.NewCounter(m.counterOpts("feed_dropped_total", "Live feed clients dropped for being slow"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.latencyBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Tagging.

// RecordTag counts a tag added to a collection.
func (m *Manager) RecordTag(sport, interaction, op string) {
	m.tagsRecorded.WithLabelValues(sport, interaction, op).Inc()
}

// RecordAdvisory counts an advisory outcome.
func (m *Manager) RecordAdvisory(advisory string) {
	m.advisories.WithLabelValues(advisory).Inc()
}

// RecordClamped counts a clamped point from source ("click" or "ingest").
func (m *Manager) RecordClamped(source string) {
	m.clampedPoints.WithLabelValues(source).Inc()
}

// RecordPassthrough counts unclassified labels.
func (m *Manager) RecordPassthrough(n int) {
	m.classifierPassthrough.Add(float64(n))
}

// RecordOperationLatency observes a session operation latency.
func (m *Manager) RecordOperationLatency(operation string, latencyMs float64) {
	m.tagOperationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// Sessions.

// UpdateActiveSessions sets the open session count.
func (m *Manager) UpdateActiveSessions(n int) { m.activeSessions.Set(float64(n)) }

// RecordSessionCreated counts a created session.
func (m *Manager) RecordSessionCreated() { m.sessionsCreated.Inc() }

// RecordSessionRejected counts a session refused by the cap.
func (m *Manager) RecordSessionRejected() { m.sessionsRejected.Inc() }

// RecordIngest counts n external tags with result accepted, rejected or duplicate.
func (m *Manager) RecordIngest(result string, n int) {
	if n > 0 {
		m.ingestTags.WithLabelValues(result).Add(float64(n))
	}
}

// RecordPublish counts one publish attempt and its latency.
func (m *Manager) RecordPublish(err error, latencyMs float64) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.publishTotal.WithLabelValues(result).Inc()
	m.publishLatency.Observe(latencyMs)
}

// Observe runs fn and records its latency under operation.
func (m *Manager) Observe(operation string, fn func()) {
	start := time.Now()
	fn()
	m.RecordOperationLatency(operation, float64(time.Since(start).Nanoseconds())/nsToMs)
}

// Global helpers used by the adapters.

func RecordTag(sport, interaction, op string)     { globalManager.RecordTag(sport, interaction, op) }
func RecordAdvisory(advisory string)               { globalManager.RecordAdvisory(advisory) }
func RecordClamped(source string)                  { globalManager.RecordClamped(source) }
func RecordPassthrough(n int)                      { globalManager.RecordPassthrough(n) }
func RecordOperationLatency(op string, ms float64) { globalManager.RecordOperationLatency(op, ms) }
func UpdateActiveSessions(n int)                   { globalManager.UpdateActiveSessions(n) }
func RecordSessionCreated()                        { globalManager.RecordSessionCreated() }
func RecordSessionRejected()                       { globalManager.RecordSessionRejected() }
func RecordIngest(result string, n int)            { globalManager.RecordIngest(result, n) }
func RecordPublish(err error, latencyMs float64)   { globalManager.RecordPublish(err, latencyMs) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateFeedClients sets the connected feed client count.
func UpdateFeedClients(n int) {
	globalManager.feedClients.Set(float64(n))
}

// RecordFeedMessage counts a delivered feed message.
func RecordFeedMessage() {
	globalManager.feedMessages.Inc()
}

// RecordFeedDropped counts a feed client dropped for falling behind.
func RecordFeedDropped() {
	globalManager.feedDropped.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

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

// CollectSystem samples runtime memory, goroutine and GC figures once.
func (m *Manager) CollectSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		m.systemGCPauseTime.Observe(float64(ms.PauseNs[(ms.NumGC+255)%256]) / nsToMs)
	}
}

// RunSystemCollector samples system metrics every refresh interval until
// ctx is done.
func (m *Manager) RunSystemCollector(ctx context.Context) {
	t := time.NewTicker(m.refreshInterval)
	defer t.Stop()
	m.CollectSystem()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.CollectSystem()
		}
	}
}

// Default returns the manager registered on the service registry.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
