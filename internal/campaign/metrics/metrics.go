package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pulseaid/pkg/domain"
)

// Metrics provides observability for the campaign ledger.
type Metrics struct {
	CampaignsCreated prometheus.Counter
	CampaignsClosed  *prometheus.CounterVec
	Donations        prometheus.Counter
	DonatedWei       prometheus.Counter
}

// New creates a new Metrics instance with all campaign metrics registered.
func New() *Metrics {
	return &Metrics{
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_campaigns_created_total",
			Help: "Total number of campaigns created",
		}),
		CampaignsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_campaigns_closed_total",
			Help: "Campaign status transitions out of fundraising, by resulting status",
		}, []string{"status"}),
		Donations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_donations_total",
			Help: "Total number of accepted donations",
		}),
		DonatedWei: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_donated_wei_total",
			Help: "Sum of accepted donations in wei (float, precision loss above 2^53)",
		}),
	}
}

func (m *Metrics) ObserveDonation(amount domain.Amount) {
	m.Donations.Inc()
	f, _ := new(big.Float).SetInt(amount.Big()).Float64()
	m.DonatedWei.Add(f)
}
