// Package metrics provides Prometheus metrics for the eventops service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace         string
	subsystem         string
	latencyBuckets    []float64
	resolutionBuckets []float64
	registry          prometheus.Registerer

	// Task store
	taskOperations *prometheus.CounterVec
	tasksByStatus  *prometheus.GaugeVec
	tasksOverdue   prometheus.Gauge

	// Alert store
	alertOperations  *prometheus.CounterVec
	alertsByStatus   *prometheus.GaugeVec
	alertsCritical   prometheus.Gauge
	alertResponses   *prometheus.CounterVec
	alertResolution  prometheus.Histogram
	idempotencyDupes prometheus.Counter

	// Repository
	repositoryLatency *prometheus.HistogramVec

	// Notification pipeline
	notificationsPublished *prometheus.CounterVec
	notificationsDropped   prometheus.Counter
	notificationsDelivered *prometheus.CounterVec
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	workerCount            prometheus.Gauge
	workerLatency          prometheus.Histogram
	workerErrors           prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:         "eventops",
		subsystem:         "",
		latencyBuckets:    []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		resolutionBuckets: []float64{1, 5, 10, 15, 30, 45, 60, 120, 240},
		registry:          prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.taskOperations = m.counterVec("task_operations_total", "Task store operations by operation and result", "op", "result")
	m.tasksByStatus = m.gaugeVec("tasks", "Tasks currently held, by status", "status")
	m.tasksOverdue = m.gauge("tasks_overdue", "Tasks past their due date and not completed")

	m.alertOperations = m.counterVec("alert_operations_total", "Alert store operations by operation and result", "op", "result")
	m.alertsByStatus = m.gaugeVec("alerts", "SOS alerts currently held, by status", "status")
	m.alertsCritical = m.gauge("alerts_critical", "SOS alerts with critical priority")
	m.alertResponses = m.counterVec("alert_responses_total", "SOS responses appended, by response type", "type")
	m.alertResolution = m.histogram("alert_resolution_minutes", "Time from alert creation to resolution in minutes", m.resolutionBuckets)
	m.idempotencyDupes = m.counter("idempotency_duplicates_total", "Create requests rejected because the idempotency key was already used")

	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Repository operation latency in milliseconds", m.latencyBuckets, "entity", "op")

	m.notificationsPublished = m.counterVec("notifications_published_total", "Notifications accepted by the queue, by level", "level")
	m.notificationsDropped = m.counter("notifications_dropped_total", "Notifications dropped because the queue was full or closed")
	m.notificationsDelivered = m.counterVec("notifications_delivered_total", "Notifications delivered, by sink", "sink")
	m.queueSize = m.gauge("notification_queue_size", "Notifications waiting for delivery")
	m.queueCapacity = m.gauge("notification_queue_capacity", "Capacity of the notification queue")
	m.workerCount = m.gauge("notification_workers", "Notification delivery workers running")
	m.workerLatency = m.histogram("notification_delivery_milliseconds", "Time spent delivering one notification to all sinks", m.latencyBuckets)
	m.workerErrors = m.counter("notification_delivery_errors_total", "Sink delivery failures")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status code", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})
}

// Task store metrics.

// RecordTaskOperation counts a task store operation with its result ("ok" or "error").
func RecordTaskOperation(op, result string) {
	globalManager.taskOperations.WithLabelValues(op, result).Inc()
}

// UpdateTasksByStatus replaces the per-status task gauges.
func UpdateTasksByStatus(counts map[string]int) {
	for status, n := range counts {
		globalManager.tasksByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// UpdateTasksOverdue sets the overdue task gauge.
func UpdateTasksOverdue(n int) {
	globalManager.tasksOverdue.Set(float64(n))
}

// Alert store metrics.

// RecordAlertOperation counts an alert store operation with its result.
func RecordAlertOperation(op, result string) {
	globalManager.alertOperations.WithLabelValues(op, result).Inc()
}

// UpdateAlertsByStatus replaces the per-status alert gauges.
func UpdateAlertsByStatus(counts map[string]int) {
	for status, n := range counts {
		globalManager.alertsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// UpdateAlertsCritical sets the critical alert gauge.
func UpdateAlertsCritical(n int) {
	globalManager.alertsCritical.Set(float64(n))
}

// RecordAlertResponse counts an appended SOS response.
func RecordAlertResponse(responseType string) {
	globalManager.alertResponses.WithLabelValues(responseType).Inc()
}

// RecordAlertResolution observes the creation-to-resolution time of an alert.
func RecordAlertResolution(minutes float64) {
	globalManager.alertResolution.Observe(minutes)
}

// RecordIdempotencyDuplicate counts a create rejected by its idempotency key.
func RecordIdempotencyDuplicate() {
	globalManager.idempotencyDupes.Inc()
}

// Repository metrics.

// RecordRepositoryLatency observes a repository call.
func RecordRepositoryLatency(entity, op string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(entity, op).Observe(latencyMs)
}

// Notification pipeline metrics.

// RecordNotificationPublished counts a notification accepted by the queue.
func RecordNotificationPublished(level string) {
	globalManager.notificationsPublished.WithLabelValues(level).Inc()
}

// RecordNotificationDropped counts a notification the queue refused.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// RecordNotificationDelivered counts a delivery to one sink.
func RecordNotificationDelivered(sink string) {
	globalManager.notificationsDelivered.WithLabelValues(sink).Inc()
}

// UpdateQueueSize sets the number of queued notifications.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the notification queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of delivery workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes the delivery of one notification.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a sink failure.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Value returns the current value of a counter or gauge in the service
// registry. Labels must match the series exactly; histograms report their
// sample count.
func Value(name string, labels map[string]string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if !labelsMatch(metric.GetLabel(), labels) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue(), nil
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue(), nil
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount()), nil
			}
		}
	}
	return 0, fmt.Errorf("%s %v: %w", name, labels, ErrMetricNotFound)
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; !ok || v != p.GetValue() {
			return false
		}
	}
	return true
}
