package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus gauges/counters/histograms published after a run finishes
// (Publish), plus SchedulingLatency, which pkg/event's loop observes
// directly via Timer on every SCHEDULE_TASK dispatch — the one metric
// here that the simulation core itself feeds, since it is wall-clock
// time spent computing a decision, not a simulated quantity. Publish
// and Handler are still called only by the CLI driver.
var (
	WorkflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudsim_workflows_total",
			Help: "Total number of workflows simulated, by scheduler and constraint outcome",
		},
		[]string{"scheduler", "met"},
	)

	WorkflowCost = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudsim_workflow_cost_dollars",
			Help:    "Realized cost per workflow in dollars",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheduler"},
	)

	WorkflowConstraintOverflow = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudsim_workflow_constraint_overflow_ratio",
			Help:    "Constraint overflow ratio for workflows that missed their deadline or budget",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheduler"},
	)

	VMsInitializedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudsim_vms_initialized_total",
			Help: "Total number of VM instances initialized",
		},
		[]string{"scheduler"},
	)

	VMsLeftAtShutdown = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudsim_vms_left_at_shutdown",
			Help: "Number of VMs still idle (and then shut down) at loop termination",
		},
		[]string{"scheduler"},
	)

	RunCostTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudsim_run_cost_dollars_total",
			Help: "Total dollar cost for a completed run",
		},
		[]string{"scheduler"},
	)

	SchedulingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudsim_scheduling_latency_seconds",
			Help:    "Wall-clock time spent inside schedule_task per call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheduler"},
	)
)

func init() {
	prometheus.MustRegister(WorkflowsTotal)
	prometheus.MustRegister(WorkflowCost)
	prometheus.MustRegister(WorkflowConstraintOverflow)
	prometheus.MustRegister(VMsInitializedTotal)
	prometheus.MustRegister(VMsLeftAtShutdown)
	prometheus.MustRegister(RunCostTotal)
	prometheus.MustRegister(SchedulingLatency)
}

// Handler returns the Prometheus HTTP handler, used by `cloudsim sweep`
// to expose a live /metrics endpoint while comparing scheduler runs.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Publish reports a finished Collector's per-workflow and run-wide
// numbers to the package-level Prometheus series. Call once, after
// EvaluateConstraints.
func Publish(c *Collector) {
	for _, s := range c.Workflows {
		met := "false"
		if s.ConstraintMet {
			met = "true"
		}
		WorkflowsTotal.WithLabelValues(c.SchedulerName, met).Inc()
		WorkflowCost.WithLabelValues(c.SchedulerName).Observe(s.Cost)
		if !s.ConstraintMet {
			WorkflowConstraintOverflow.WithLabelValues(c.SchedulerName).Observe(s.ConstraintOverflow)
		}
	}
	VMsInitializedTotal.WithLabelValues(c.SchedulerName).Add(float64(c.InitializedVMs))
	VMsLeftAtShutdown.WithLabelValues(c.SchedulerName).Set(float64(c.VMsLeft))
	RunCostTotal.WithLabelValues(c.SchedulerName).Set(c.Cost)
}

// Timer is a small helper for timing operations and recording them to a
// histogram, independent of the simulation's virtual clock.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
