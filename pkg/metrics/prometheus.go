// Package metrics provides Prometheus metrics for the Battle Grounds contest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Contest business metrics
	dealsSubmitted         prometheus.Counter
	dealsDuplicate         prometheus.Counter
	dealStatusUpdates      *prometheus.CounterVec
	leaderboardComputes    prometheus.Counter
	leaderboardLatency     prometheus.Histogram
	notifications          *prometheus.CounterVec
	badgesAwarded          *prometheus.CounterVec
	battlesSettled         prometheus.Counter
	contestsClosed         prometheus.Counter
	tvRotations            prometheus.Counter
	schedulerJobRuns       *prometheus.CounterVec
	schedulerJobFailures   *prometheus.CounterVec
	storeRecords           *prometheus.GaugeVec
	storeUnreadNotices     prometheus.Gauge
	storeUpdateLatency     prometheus.Histogram
	storeQueryLatency      prometheus.Histogram
	currentContestSelected prometheus.Gauge

	// Submission queue
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError prometheus.Counter
	queueLatency      prometheus.Histogram

	// Workers
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter
	workerDealsTotal prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics singleton

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "battlegrounds",
		subsystem:        "contest",
		histogramBuckets: prometheus.DefBuckets,
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

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.dealsSubmitted = m.counter("deals_submitted_total", "Deals accepted into the submission queue")
	m.dealsDuplicate = m.counter("deals_duplicate_total", "Deal submissions rejected as duplicates")
	m.dealStatusUpdates = m.counterVec("deal_status_updates_total", "Deal status transitions by resulting status", "status")
	m.leaderboardComputes = m.counter("leaderboard_computations_total", "Leaderboard computations")
	m.leaderboardLatency = m.histogram("leaderboard_compute_latency_milliseconds", "Leaderboard computation latency in milliseconds", nil)
	m.notifications = m.counterVec("notifications_total", "Notifications appended by type", "type")
	m.badgesAwarded = m.counterVec("badges_awarded_total", "Badges newly earned after a status change", "badge")
	m.battlesSettled = m.counter("battles_settled_total", "Battles moved to completed by the scheduler")
	m.contestsClosed = m.counter("contests_closed_total", "Contests closed out after their end date")
	m.tvRotations = m.counter("tv_rotations_total", "TV mode view rotations")
	m.schedulerJobRuns = m.counterVec("scheduler_job_runs_total", "Scheduled job executions", "job")
	m.schedulerJobFailures = m.counterVec("scheduler_job_failures_total", "Scheduled job executions that failed", "job")
	m.storeRecords = m.gaugeVec("store_records", "Records held by the state store by collection", "collection")
	m.storeUnreadNotices = m.gauge("store_unread_notifications", "Unread notifications in the feed")
	m.storeUpdateLatency = m.histogram("store_update_latency_milliseconds", "State store mutation latency in milliseconds", nil)
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "State store query latency in milliseconds", nil)
	m.currentContestSelected = m.gauge("current_contest_selected", "1 when a current contest is selected")

	m.queueSize = m.gauge("queue_size", "Current size of the submission queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the submission queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Submission queue utilization (0-1)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Submissions enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Submissions dequeued")
	m.queueEnqueueError = m.counter("queue_enqueue_errors_total", "Failed enqueue attempts")
	m.queueLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", nil)

	m.workerCount = m.gauge("worker_count", "Submission workers running")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Time to apply one submission in milliseconds", nil)
	m.workerErrors = m.counter("worker_errors_total", "Worker processing errors")
	m.workerDealsTotal = m.counter("worker_deals_applied_total", "Deals applied to the store by workers")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations in milliseconds", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Contest business metrics.

// RecordDealSubmitted counts a deal accepted for processing.
func RecordDealSubmitted() { globalManager.dealsSubmitted.Inc() }

// RecordDealDuplicate counts a duplicate submission.
func RecordDealDuplicate() { globalManager.dealsDuplicate.Inc() }

// RecordDealStatusUpdate counts a status transition.
func RecordDealStatusUpdate(status string) {
	globalManager.dealStatusUpdates.WithLabelValues(status).Inc()
}

// RecordLeaderboardComputation counts one computation and its latency.
func RecordLeaderboardComputation(latencyMs float64) {
	globalManager.leaderboardComputes.Inc()
	globalManager.leaderboardLatency.Observe(latencyMs)
}

// RecordNotification counts a notification appended to the feed.
func RecordNotification(kind string) {
	globalManager.notifications.WithLabelValues(kind).Inc()
}

// RecordBadgeAwarded counts a newly earned badge.
func RecordBadgeAwarded(badgeID string) {
	globalManager.badgesAwarded.WithLabelValues(badgeID).Inc()
}

func RecordBattleSettled() { globalManager.battlesSettled.Inc() }
func RecordContestClosed() { globalManager.contestsClosed.Inc() }
func RecordTVRotation() { globalManager.tvRotations.Inc() }

// RecordSchedulerJob counts a run of a scheduled job and, when failed, its failure.
func RecordSchedulerJob(job string, failed bool) {
	globalManager.schedulerJobRuns.WithLabelValues(job).Inc()
	if failed {
		globalManager.schedulerJobFailures.WithLabelValues(job).Inc()
	}
}

// UpdateStoreRecords sets the record count of one store collection.
func UpdateStoreRecords(collection string, count int) {
	globalManager.storeRecords.WithLabelValues(collection).Set(float64(count))
}

// UpdateUnreadNotifications sets the unread notification gauge.
func UpdateUnreadNotifications(count int) {
	globalManager.storeUnreadNotices.Set(float64(count))
}

// RecordStoreUpdateLatency records a store mutation latency.
func RecordStoreUpdateLatency(latencyMs float64) { globalManager.storeUpdateLatency.Observe(latencyMs) }

// RecordStoreQueryLatency records a store query latency.
func RecordStoreQueryLatency(latencyMs float64) { globalManager.storeQueryLatency.Observe(latencyMs) }

// UpdateCurrentContestSelected flags whether a current contest is selected.
func UpdateCurrentContestSelected(selected bool) {
	if selected {
		globalManager.currentContestSelected.Set(1)
		return
	}
	globalManager.currentContestSelected.Set(0)
}

// Queue metrics.

func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }
func RecordQueueEnqueueError() { globalManager.queueEnqueueError.Inc() }
func RecordQueueProcessingLatency(ms float64) { globalManager.queueLatency.Observe(ms) }

// Worker metrics.

func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerLatency.Observe(ms) }
func RecordWorkerError() { globalManager.workerErrors.Inc() }
func RecordWorkerDealApplied() { globalManager.workerDealsTotal.Inc() }

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Error metrics.

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
