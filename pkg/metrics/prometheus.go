// Package metrics provides Prometheus metrics for the ALSIP learning tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the ALSIP service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Learning activity
	sessionsCompleted   prometheus.Counter
	duplicatePractice   prometheus.Counter
	practiceLogged      prometheus.Counter
	reflectionsRecorded prometheus.Counter
	recoveryEntered     prometheus.Counter
	trackedOwners       prometheus.Gauge

	// Suggestions
	suggestionLatency   prometheus.Histogram
	suggestionFailures  prometheus.Counter
	suggestionFallbacks prometheus.Counter

	// Record store
	storeLatency        *prometheus.HistogramVec
	persistenceFailures *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	validationErrors    *prometheus.CounterVec

	// Recovery sweep queue
	sweepJobs          *prometheus.CounterVec
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "alsip",
		subsystem:        "tracker",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.sessionsCompleted = m.counter("sessions_completed_total", "Learning sessions completed end to end")
	m.duplicatePractice = m.counter("practice_duplicate_total", "Practice logs ignored because the day was already logged")
	m.practiceLogged = m.counter("practice_logged_total", "Practice days recorded on skills")
	m.reflectionsRecorded = m.counter("reflections_recorded_total", "Learning outcomes stored")
	m.recoveryEntered = m.counter("recovery_entered_total", "Streaks that entered recovery mode")
	m.trackedOwners = m.gauge("tracked_owners", "Owners with a streak record at the last sweep")

	m.suggestionLatency = m.histogram("suggestion_latency_milliseconds", "Suggestion service latency in milliseconds")
	m.suggestionFailures = m.counter("suggestion_failures_total", "Suggestion service transport or upstream failures")
	m.suggestionFallbacks = m.counter("suggestion_fallbacks_total", "Suggestion answers replaced by the fallback set")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Record store operation latency in milliseconds", "operation")
	m.persistenceFailures = m.counterVec("persistence_failures_total", "Record store failures by operation", "operation")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.validationErrors = m.counterVec("validation_errors_total", "Rejected inputs by field", "field")

	m.sweepJobs = m.counterVec("sweep_jobs_total", "Recovery sweep jobs by result", "result")
	m.queueSize = m.gauge("queue_size", "Current size of the sweep queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the sweep queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Sweep queue utilization ratio (size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Configured number of sweep workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Sweep job processing latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Sweep jobs that failed")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and kind", "component", "error_type")
}

// RecordSessionCompleted increments the completed sessions counter.
func RecordSessionCompleted() { globalManager.sessionsCompleted.Inc() }

// RecordDuplicatePractice counts a LogPractice that was already logged today.
func RecordDuplicatePractice() { globalManager.duplicatePractice.Inc() }

// RecordPracticeLogged counts a practice day added to a skill.
func RecordPracticeLogged() { globalManager.practiceLogged.Inc() }

// RecordReflection counts a stored learning outcome.
func RecordReflection() { globalManager.reflectionsRecorded.Inc() }

// RecordRecoveryEntered counts a streak flagged as in recovery.
func RecordRecoveryEntered() { globalManager.recoveryEntered.Inc() }

// UpdateTrackedOwners sets the number of owners seen by the last sweep.
func UpdateTrackedOwners(count int) { globalManager.trackedOwners.Set(float64(count)) }

// RecordSuggestionLatency records suggestion latency in milliseconds.
func RecordSuggestionLatency(latencyMs float64) { globalManager.suggestionLatency.Observe(latencyMs) }

// RecordSuggestionFailure counts a failed suggestion call.
func RecordSuggestionFailure() { globalManager.suggestionFailures.Inc() }

// RecordSuggestionFallback counts an answer replaced by the fallback set.
func RecordSuggestionFallback() { globalManager.suggestionFallbacks.Inc() }

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordPersistenceFailure counts a failed store operation.
func RecordPersistenceFailure(operation string) {
	globalManager.persistenceFailures.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordValidationError counts rejected input for field.
func RecordValidationError(field string) {
	globalManager.validationErrors.WithLabelValues(field).Inc()
}

// RecordSweepJob counts a processed sweep job; result is "flagged",
// "unchanged" or "failed".
func RecordSweepJob(result string) { globalManager.sweepJobs.WithLabelValues(result).Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records job processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordErrorByComponent counts an error by component and kind.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
