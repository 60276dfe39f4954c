// Package metrics exposes Prometheus collectors for task execution,
// translating the instrumentation the teacher pack's SWARM orchestrator
// built around OpenTelemetry into the client_golang API the teacher
// itself depends on.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the counters and gauges the Task Executor and
// Scheduler report against.
type Collector struct {
	TaskDuration  *prometheus.HistogramVec
	TaskRetries   *prometheus.CounterVec
	TaskFailures  *prometheus.CounterVec
	TasksInFlight prometheus.Gauge
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
}

// New registers and returns a Collector. Callers register it with a
// prometheus.Registerer of their choosing (prometheus.DefaultRegisterer
// in the common case).
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskflow",
			Name:      "task_duration_seconds",
			Help:      "Duration of a single task attempt.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		TaskRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Name:      "task_retries_total",
			Help:      "Number of task attempts beyond the first.",
		}, []string{"operation"}),
		TaskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Name:      "task_failures_total",
			Help:      "Number of task attempts that exhausted retries.",
		}, []string{"operation"}),
		TasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskflow",
			Name:      "tasks_in_flight",
			Help:      "Number of tasks currently executing.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskflow",
			Name:      "cache_hits_total",
			Help:      "Number of cacheable task invocations served from cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskflow",
			Name:      "cache_misses_total",
			Help:      "Number of cacheable task invocations not found in cache.",
		}),
	}

	reg.MustRegister(c.TaskDuration, c.TaskRetries, c.TaskFailures, c.TasksInFlight, c.CacheHits, c.CacheMisses)
	return c
}

// ObserveAttempt records one task attempt's duration and outcome.
func (c *Collector) ObserveAttempt(operation, outcome string, d time.Duration) {
	c.TaskDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}
