package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	Stacks        prometheus.Gauge
	StacksCreated prometheus.Counter
	TaskIDs       prometheus.Counter
	TaskMoves     *prometheus.CounterVec

	// Fan-out metrics
	FanOutCalls    *prometheus.CounterVec
	FanOutDuration *prometheus.HistogramVec

	// Recovery metrics
	ProcessDeaths  prometheus.Counter
	ProcessCrashes prometheus.Counter

	// Shutdown metrics
	ShutdownTimeouts prometheus.Counter
	ShutdownDuration prometheus.Histogram

	// Diagnostics metrics
	ClientDumps *prometheus.CounterVec

	// Event feed metrics
	EventSubscribers prometheus.Gauge
	EventsDropped    prometheus.Counter
}

// NewMetrics registers the supervisor metrics on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supervisor_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "supervisor_http_request_duration_seconds",
				Help:    "Admin HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		Stacks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "supervisor_stacks",
				Help: "Number of stacks in the registry",
			},
		),
		StacksCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "supervisor_stacks_created_total",
				Help: "Total number of stacks created",
			},
		),
		TaskIDs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "supervisor_task_ids_allocated_total",
				Help: "Total number of task identities handed out",
			},
		),
		TaskMoves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supervisor_task_moves_total",
				Help: "Task move requests by outcome",
			},
			[]string{"result"},
		),

		FanOutCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supervisor_fanout_calls_total",
				Help: "Lifecycle fan-out operations by operation",
			},
			[]string{"operation"},
		),
		FanOutDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "supervisor_fanout_duration_seconds",
				Help:    "Lifecycle fan-out duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),

		ProcessDeaths: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "supervisor_process_deaths_total",
				Help: "Process deaths handled",
			},
		),
		ProcessCrashes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "supervisor_process_crashes_total",
				Help: "Process crashes handled",
			},
		),

		ShutdownTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "supervisor_shutdown_timeouts_total",
				Help: "Stacks that did not go quiescent within the shutdown window",
			},
		),
		ShutdownDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "supervisor_shutdown_duration_seconds",
				Help:    "Time spent draining stacks at shutdown",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			},
		),

		ClientDumps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supervisor_client_dumps_total",
				Help: "Live activity dump requests by result",
			},
			[]string{"result"},
		),

		EventSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "supervisor_event_subscribers",
				Help: "Connected lifecycle event subscribers",
			},
		),
		EventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "supervisor_events_dropped_total",
				Help: "Lifecycle events dropped for slow subscribers",
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFanOut records one lifecycle fan-out.
func (m *Metrics) RecordFanOut(operation string, duration time.Duration) {
	m.FanOutCalls.WithLabelValues(operation).Inc()
	m.FanOutDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTaskMove records a task move by outcome ("moved" or "no_stack").
func (m *Metrics) RecordTaskMove(result string) {
	m.TaskMoves.WithLabelValues(result).Inc()
}

// RecordClientDump records a live dump by outcome.
func (m *Metrics) RecordClientDump(result string) {
	m.ClientDumps.WithLabelValues(result).Inc()
}

// SetStacks sets the number of registered stacks.
func (m *Metrics) SetStacks(count int) {
	m.Stacks.Set(float64(count))
}
