package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for proof validation and disputes.
type Metrics struct {
	ProofsSubmitted  prometheus.Counter
	ProofsChallenged prometheus.Counter
	ProofsFinalized  *prometheus.CounterVec
	VotesCast        *prometheus.CounterVec
	RewardsClaimed   prometheus.Counter
	ChallengeWindow  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		ProofsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_proofs_submitted_total",
			Help: "Total number of proof submissions, including resubmissions",
		}),
		ProofsChallenged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_proofs_challenged_total",
			Help: "Total number of proofs challenged into a dispute",
		}),
		ProofsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_proofs_finalized_total",
			Help: "Finalized proofs by outcome and path (window, dispute)",
		}, []string{"outcome", "path"}),
		VotesCast: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseaid_dispute_votes_total",
			Help: "Dispute votes cast by side",
		}, []string{"side"}),
		RewardsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_voting_rewards_claimed_total",
			Help: "Total number of voting rewards claimed",
		}),
		ChallengeWindow: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulseaid_proof_challenge_offset_seconds",
			Help:    "Seconds between proof submission and challenge",
			Buckets: []float64{60, 600, 3600, 6 * 3600, 12 * 3600, 24 * 3600, 48 * 3600},
		}),
	}
}
