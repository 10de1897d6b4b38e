package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected   *prometheus.CounterVec
	StoreFails prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_ratelimit_rejected_total",
			Help: "Writes rejected by the rate limiter, by key kind",
		}, []string{"scope"}),
		StoreFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open because the store errored",
		}),
	}
}

func (m *Metrics) IncRejected(scope string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncStoreFail() {
	if m == nil {
		return
	}
	m.StoreFails.Inc()
}
