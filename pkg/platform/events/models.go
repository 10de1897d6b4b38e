// Package events carries the ledger event stream: every state transition and every
// outflow of funds is appended here inside the transition that caused it, then relayed
// to Kafka by the outbox relay for settlement and downstream indexing.
package events

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"pulseaid/pkg/domain"
)

// Type names a ledger event.
type Type string

const (
	// Institution events
	InstitutionRegistered Type = "institution_registered"
	InstitutionVerified   Type = "institution_verified"
	InstitutionSlashed    Type = "institution_slashed"
	StakeWithdrawn        Type = "stake_withdrawn"

	// Campaign events
	CampaignCreated   Type = "campaign_created"
	DonationReceived  Type = "donation_received"
	CampaignEnded     Type = "campaign_ended"
	CampaignCancelled Type = "campaign_cancelled"
	CampaignCompleted Type = "campaign_completed"

	// Proof events
	ProofSubmitted  Type = "proof_submitted"
	ProofChallenged Type = "proof_challenged"
	DisputeVoteCast Type = "dispute_vote_cast"
	ProofFinalized  Type = "proof_finalized"

	// Payout is an outflow the settlement consumer must transfer on-ledger.
	Payout Type = "payout"
)

// Aggregate types used as the Kafka record key namespace.
const (
	AggregateInstitution = "institution"
	AggregateCampaign    = "campaign"
	AggregateDispute     = "dispute"
)

// PayoutReason says why funds left the protocol.
type PayoutReason string

const (
	PayoutEscrowRelease     PayoutReason = "escrow_release"
	PayoutDonorRefund       PayoutReason = "donor_refund"
	PayoutStakeReturn       PayoutReason = "stake_return"
	PayoutStakeForfeit      PayoutReason = "stake_forfeit"
	PayoutCollateralReturn  PayoutReason = "collateral_return"
	PayoutCollateralForfeit PayoutReason = "collateral_forfeit"
	PayoutVotingReward      PayoutReason = "voting_reward"
	PayoutStorageFee        PayoutReason = "storage_fee"
)

// Event is one entry in the ledger stream. Keep it transport-agnostic so the
// outbox stores and the Kafka relay can fan it out unchanged.
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Type          Type              `json:"type"`
	AggregateType string            `json:"aggregate_type"`
	AggregateID   string            `json:"aggregate_id"`
	Timestamp     time.Time         `json:"timestamp"`
	RequestID     string            `json:"request_id,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// NewPayout builds the event recording an outflow of amount to recipient.
func NewPayout(aggregateType, aggregateID string, recipient common.Address, amount domain.Amount, reason PayoutReason) Event {
	return Event{
		Type:          Payout,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Attributes: map[string]string{
			"recipient": recipient.Hex(),
			"amount":    amount.String(),
			"reason":    string(reason),
		},
	}
}

// PayoutAmount returns the amount recorded on a payout event.
func (e Event) PayoutAmount() domain.Amount {
	amt, err := domain.ParseAmount(e.Attributes["amount"])
	if err != nil {
		return domain.Amount{}
	}
	return amt
}

// PayoutReason returns the reason recorded on a payout event.
func (e Event) PayoutReason() PayoutReason {
	return PayoutReason(e.Attributes["reason"])
}

// Store appends ledger events. Implementations must join the caller's transaction
// when one is present so the event commits with the state change.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Outbox is a Store whose entries are later drained by the relay.
type Outbox interface {
	Store
	Pending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
