package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for conversation turns.
type EngineMetrics struct {
	turnsTotal       *prometheus.CounterVec
	commitsTotal     *prometheus.CounterVec
	recheckFailures  prometheus.Counter
	externalFailures *prometheus.CounterVec
	turnLatency      prometheus.Histogram
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "engine",
			Name:      "turns_total",
			Help:      "Total handled conversation turns",
		}, []string{"outcome"}),
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "engine",
			Name:      "commits_total",
			Help:      "Total calendar commits by kind and status",
		}, []string{"kind", "status"}),
		recheckFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "engine",
			Name:      "recheck_failures_total",
			Help:      "Offered slots lost between offer and confirmation",
		}),
		externalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "engine",
			Name:      "external_failures_total",
			Help:      "Failed calls to external collaborators",
		}, []string{"dependency"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Subsystem: "engine",
			Name:      "turn_latency_seconds",
			Help:      "Latency of HandleTurn, external calls included",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.commitsTotal, m.recheckFailures, m.externalFailures, m.turnLatency)
	return m
}

func (m *EngineMetrics) ObserveTurn(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *EngineMetrics) ObserveCommit(kind, status string) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(kind, status).Inc()
}

func (m *EngineMetrics) ObserveRecheckFailure() {
	if m == nil {
		return
	}
	m.recheckFailures.Inc()
}

func (m *EngineMetrics) ObserveExternalFailure(dependency string) {
	if m == nil {
		return
	}
	m.externalFailures.WithLabelValues(dependency).Inc()
}
