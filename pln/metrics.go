package pln

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's prometheus collectors.
type Metrics struct {
	Steps        prometheus.Counter
	StepDuration prometheus.Histogram
	Applications *prometheus.CounterVec // by rule
	Derived      *prometheus.CounterVec // by rule, committed atoms only
	RuleFailures *prometheus.CounterVec // by rule, errors and panics
	Rejected     *prometheus.CounterVec // by rule, truth values failing validation
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "pln", Name: "steps_total",
			Help: "Inference steps executed.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atomspace", Subsystem: "pln", Name: "step_duration_seconds",
			Help:    "Wall time of one inference step.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		Applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "pln", Name: "rule_applications_total",
			Help: "Rule applications attempted.",
		}, []string{"rule"}),
		Derived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "pln", Name: "derived_atoms_total",
			Help: "Atoms committed by the engine.",
		}, []string{"rule"}),
		RuleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "pln", Name: "rule_failures_total",
			Help: "Rule applications that returned an error or panicked.",
		}, []string{"rule"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "pln", Name: "rejected_truth_values_total",
			Help: "Derived atoms discarded by truth value validation.",
		}, []string{"rule"}),
	}
	if reg != nil {
		reg.MustRegister(m.Steps, m.StepDuration, m.Applications, m.Derived, m.RuleFailures, m.Rejected)
	}
	return m
}
