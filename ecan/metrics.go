package ecan

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the bank's prometheus collectors.
type Metrics struct {
	Cycles        prometheus.Counter
	RentCollected prometheus.Counter
	FocusSize     prometheus.Gauge
	CycleDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "ecan", Name: "cycles_total",
			Help: "Attention cycles completed.",
		}),
		RentCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atomspace", Subsystem: "ecan", Name: "rent_collected_total",
			Help: "STI collected as rent.",
		}),
		FocusSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atomspace", Subsystem: "ecan", Name: "focus_size",
			Help: "Atoms funded by the last allocation.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atomspace", Subsystem: "ecan", Name: "cycle_duration_seconds",
			Help:    "Wall time of one attention cycle.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Cycles, m.RentCollected, m.FocusSize, m.CycleDuration)
	}
	return m
}
