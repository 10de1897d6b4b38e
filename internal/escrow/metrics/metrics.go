package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the escrow vault.
type Metrics struct {
	Releases          prometheus.Counter
	Refunds           prometheus.Counter
	CollateralSettled *prometheus.CounterVec
	OutflowRejected   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Releases: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_escrow_releases_total",
			Help: "Total number of escrow releases to institutions",
		}),
		Refunds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_escrow_refunds_total",
			Help: "Total number of donor refunds paid",
		}),
		CollateralSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_escrow_collateral_settled_total",
			Help: "Campaign collateral settlements by outcome (returned, forfeited)",
		}, []string{"outcome"}),
		OutflowRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_escrow_outflow_rejected_total",
			Help: "Payouts refused because they would exceed deposits",
		}),
	}
}
