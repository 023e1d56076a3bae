// Package metrics provides Prometheus metrics for the hangman service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	pointsBuckets    []float64
	registry         prometheus.Registerer

	// Game
	sessionsStarted  prometheus.Counter
	sessionsFinished prometheus.Counter
	sessionsActive   prometheus.Gauge
	guesses          *prometheus.CounterVec
	rounds           *prometheus.CounterVec
	sessionScore     prometheus.Histogram

	// Submissions
	submissions       *prometheus.CounterVec
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	workerCount       prometheus.Gauge
	storeLatency      *prometheus.HistogramVec
	storeRecordsTotal prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Collaborators
	chatRequests  *prometheus.CounterVec
	presenceCount prometheus.Gauge

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hangman",
		subsystem:        "quiz",
		histogramBuckets: prometheus.DefBuckets,
		pointsBuckets:    []float64{0, 220, 500, 1000, 2000, 3000, 4000, 5500},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.sessionsStarted = m.counter("sessions_started_total", "Total number of game sessions started")
	m.sessionsFinished = m.counter("sessions_finished_total", "Total number of game sessions that reached Finished")
	m.sessionsActive = m.gauge("sessions_active", "Number of live sessions held by the server")
	m.guesses = m.counterVec("guesses_total", "Guesses applied, by outcome", "outcome")
	m.rounds = m.counterVec("rounds_total", "Rounds completed, by result", "result")
	m.sessionScore = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_score_points",
		Help:      "Final score of finished sessions",
		Buckets:   m.pointsBuckets,
	})

	m.submissions = m.counterVec("score_submissions_total", "Score submissions, by result", "result")
	m.queueSize = m.gauge("submission_queue_size", "Current number of queued score submissions")
	m.queueCapacity = m.gauge("submission_queue_capacity", "Capacity of the score submission queue")
	m.workerCount = m.gauge("submission_workers", "Number of submission workers")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Score store operation latency", m.histogramBuckets, "op")
	m.storeRecordsTotal = m.gauge("store_records_total", "Score records held by the store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.chatRequests = m.counterVec("chat_requests_total", "Chat collaborator calls, by mode and result", "mode", "result")
	m.presenceCount = m.gauge("presence_online", "Users currently counted as online")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordSessionStarted counts a new session.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
	globalManager.sessionsActive.Inc()
}

// RecordSessionFinished counts a finished session and observes its score.
func RecordSessionFinished(score int) {
	globalManager.sessionsFinished.Inc()
	globalManager.sessionScore.Observe(float64(score))
}

// RecordSessionDiscarded decrements the live-session gauge.
func RecordSessionDiscarded() { globalManager.sessionsActive.Dec() }

// RecordGuess counts a guess by outcome: hit, miss, duplicate, rejected.
func RecordGuess(outcome string) { globalManager.guesses.WithLabelValues(outcome).Inc() }

// RecordRound counts a terminal round: won or lost.
func RecordRound(result string) { globalManager.rounds.WithLabelValues(result).Inc() }

// RecordSubmission counts a score submission: accepted, duplicate, rejected, persisted, failed.
func RecordSubmission(result string) { globalManager.submissions.WithLabelValues(result).Inc() }

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordStoreLatency observes the latency of a store operation.
func RecordStoreLatency(op string, ms float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(ms)
}

// UpdateStoreRecords sets the number of stored score records.
func UpdateStoreRecords(count int) { globalManager.storeRecordsTotal.Set(float64(count)) }

// RecordHTTPRequest counts a request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordChatRequest counts a chat call by mode (send, stream) and result.
func RecordChatRequest(mode, result string) {
	globalManager.chatRequests.WithLabelValues(mode, result).Inc()
}

// UpdatePresence sets the online gauge.
func UpdatePresence(count int) { globalManager.presenceCount.Set(float64(count)) }

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry all package-level metrics live in.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

var runtimeOnce sync.Once //nolint:gochecknoglobals // guards RegisterRuntimeCollectors

// RegisterRuntimeCollectors adds the Go runtime and process collectors to
// the package registry. Safe to call more than once.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
