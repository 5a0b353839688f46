package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters and histograms for the honeypot pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	turnsTotal      *prometheus.CounterVec
	oracleFailures  *prometheus.CounterVec
	capturesTotal   *prometheus.CounterVec
	selectionsTotal *prometheus.CounterVec
	rewardsTotal    *prometheus.CounterVec
	turnLatency     prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lure",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Dialogue turns answered, by persona and parse outcome",
		}, []string{"persona", "parse"}),
		oracleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lure",
			Subsystem: "oracle",
			Name:      "failures_total",
			Help:      "Oracle calls that errored or timed out, by stage",
		}, []string{"stage"}),
		capturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lure",
			Subsystem: "intel",
			Name:      "captures_total",
			Help:      "Identifiers extracted from scammer turns, by kind",
		}, []string{"kind"}),
		selectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lure",
			Subsystem: "policy",
			Name:      "selections_total",
			Help:      "Persona selections, by category, persona and mode",
		}, []string{"category", "persona", "mode"}),
		rewardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lure",
			Subsystem: "policy",
			Name:      "rewards_total",
			Help:      "Rewards applied to the affinity table",
		}, []string{"category", "persona", "status"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lure",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one dialogue turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.oracleFailures, m.capturesTotal, m.selectionsTotal, m.rewardsTotal, m.turnLatency)
	return m
}

func (m *Metrics) ObserveTurn(persona, parse string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(persona, parse).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *Metrics) ObserveOracleFailure(stage string) {
	if m == nil {
		return
	}
	m.oracleFailures.WithLabelValues(stage).Inc()
}

// ObserveCapture adds n identifiers of the given kind (upi, bank, link).
func (m *Metrics) ObserveCapture(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.capturesTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ObserveSelection(category, persona string, explored bool) {
	if m == nil {
		return
	}
	mode := "exploit"
	if explored {
		mode = "explore"
	}
	m.selectionsTotal.WithLabelValues(category, persona, mode).Inc()
}

func (m *Metrics) ObserveReward(category, persona string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.rewardsTotal.WithLabelValues(category, persona, status).Inc()
}
