package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the institution registry.
type Metrics struct {
	Registered        prometheus.Counter
	Verified          prometheus.Counter
	Slashed           prometheus.Counter
	StakeWithdrawn    prometheus.Counter
	AttestationResult *prometheus.CounterVec
	RegisterDuration  prometheus.Histogram
}

// New creates a new Metrics instance with all institution metrics registered.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_institutions_registered_total",
			Help: "Total number of institution registrations",
		}),
		Verified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_institutions_verified_total",
			Help: "Total number of institutions that reached Verified",
		}),
		Slashed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_institutions_slashed_total",
			Help: "Total number of governance slashes",
		}),
		StakeWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_institution_stake_withdrawals_total",
			Help: "Total number of stake withdrawals",
		}),
		AttestationResult: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_attestation_results_total",
			Help: "Attestor verdicts by outcome (accepted, rejected, unavailable)",
		}, []string{"outcome"}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulseaid_institution_register_duration_seconds",
			Help:    "Duration of Register operations including the attestor call",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveRegister records the duration of a Register operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}
