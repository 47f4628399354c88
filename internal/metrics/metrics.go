// Package metrics records runtime activity for tasks, scopes and refs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives runtime measurements. Implementations must be safe for concurrent use.
type Recorder interface {
	TaskTransition(task, from, to string)
	TaskRun(task, outcome string, d time.Duration)
	FinalizerRun(scope, outcome string)
	RefUpdate(ref string)
}

// Noop ignores every measurement.
var Noop Recorder = noop{}

type noop struct{}

func (noop) TaskTransition(string, string, string) {}
func (noop) TaskRun(string, string, time.Duration) {}
func (noop) FinalizerRun(string, string)           {}
func (noop) RefUpdate(string)                      {}

// Config configures the Prometheus recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "visualeffect").
	Namespace string
	// Buckets are the histogram buckets for task run duration.
	// Default: prometheus.DefBuckets
	Buckets []float64
	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

func (c *Config) defaults() {
	if c.Namespace == "" {
		c.Namespace = "visualeffect"
	}
	if len(c.Buckets) == 0 {
		c.Buckets = prometheus.DefBuckets
	}
	if c.Registry == nil {
		c.Registry = prometheus.DefaultRegisterer
	}
}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	transitions *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	finalizers  *prometheus.CounterVec
	refUpdates  *prometheus.CounterVec
}

// NewPrometheus registers the collectors on the configured registry.
func NewPrometheus(cfg Config) *Prometheus {
	cfg.defaults()
	factory := promauto.With(cfg.Registry)

	return &Prometheus{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "task_transitions_total",
			Help:      "Total number of task state transitions",
		}, []string{"task", "from", "to"}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "task_run_duration_seconds",
			Help:      "Task execution duration in seconds by terminal outcome",
			Buckets:   cfg.Buckets,
		}, []string{"task", "outcome"}),

		finalizers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "scope_finalizers_total",
			Help:      "Total number of finalizers processed by outcome",
		}, []string{"scope", "outcome"}),

		refUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "ref_updates_total",
			Help:      "Total number of observed ref value changes",
		}, []string{"ref"}),
	}
}

func (p *Prometheus) TaskTransition(task, from, to string) {
	p.transitions.WithLabelValues(task, from, to).Inc()
}

func (p *Prometheus) TaskRun(task, outcome string, d time.Duration) {
	p.runDuration.WithLabelValues(task, outcome).Observe(d.Seconds())
}

func (p *Prometheus) FinalizerRun(scope, outcome string) {
	p.finalizers.WithLabelValues(scope, outcome).Inc()
}

func (p *Prometheus) RefUpdate(ref string) {
	p.refUpdates.WithLabelValues(ref).Inc()
}
