package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the publisher and the outbox relay.
type Metrics struct {
	eventsEmitted   *prometheus.CounterVec
	payouts         *prometheus.CounterVec
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
	relayed         prometheus.Counter
	relayFailures   prometheus.Counter
}

// NewMetrics registers ledger event metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers metrics with reg; tests pass a fresh registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_ledger_events_emitted_total",
			Help: "Ledger events appended to the outbox by type",
		}, []string{"type"}),
		payouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_ledger_payouts_total",
			Help: "Payout records by reason",
		}, []string{"reason"}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_ledger_event_persist_failures_total",
			Help: "Ledger event appends that failed and aborted their transition",
		}),
		persistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulseaid_ledger_event_persist_duration_seconds",
			Help:    "Time spent appending a ledger event",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		relayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_outbox_relayed_total",
			Help: "Outbox entries published to Kafka",
		}),
		relayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_outbox_relay_failures_total",
			Help: "Outbox relay batches that failed to publish",
		}),
	}
}

func (m *Metrics) IncEventsEmitted(t Type) {
	m.eventsEmitted.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) IncPayout(reason PayoutReason) {
	m.payouts.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) IncPersistFailures() {
	m.persistFailures.Inc()
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	m.persistDuration.Observe(seconds)
}

func (m *Metrics) AddRelayed(n int) {
	m.relayed.Add(float64(n))
}

func (m *Metrics) IncRelayFailures() {
	m.relayFailures.Inc()
}
