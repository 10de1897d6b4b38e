package models

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
)

type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Dispute is opened by a challenge and settled by weighted vote.
type Dispute struct {
	ID               domain.DisputeID  `json:"id"`
	CampaignID       domain.CampaignID `json:"campaign_id"`
	Challenger       common.Address    `json:"challenger"`
	ChallengerWeight domain.Weight     `json:"challenger_weight"`
	Reason           string            `json:"reason"`
	ApproveWeight    domain.Weight     `json:"approve_weight"`
	RejectWeight     domain.Weight     `json:"reject_weight"`
	RewardPool       domain.Amount     `json:"reward_pool"`
	Outcome          Outcome           `json:"outcome,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Deadline         time.Time         `json:"deadline"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
}

func (d *Dispute) IsResolved() bool {
	return d.Outcome != OutcomeNone
}

// CanVote requires an unresolved dispute whose deadline has not passed.
func (d *Dispute) CanVote(now time.Time) error {
	if d.IsResolved() || !now.Before(d.Deadline) {
		return dErrors.New(dErrors.CodeDisputeNotOpen, "dispute is not open for voting").
			With("dispute_id", d.ID).
			With("deadline", d.Deadline.UTC().Format(time.RFC3339))
	}
	return nil
}

// ApplyVote adds weight to one side. A tally that would exceed the uint64 range is refused
// and the dispute is left unchanged.
func (d *Dispute) ApplyVote(approve bool, weight domain.Weight) error {
	tally := &d.RejectWeight
	if approve {
		tally = &d.ApproveWeight
	}
	if uint64(weight) > math.MaxUint64-uint64(*tally) {
		return dErrors.New(dErrors.CodeInvalidInput, "vote weight overflows the dispute tally").
			With("dispute_id", d.ID).
			With("approve", approve)
	}
	*tally += weight
	return nil
}

// CanResolve requires the voting deadline to have passed.
func (d *Dispute) CanResolve(now time.Time) error {
	if now.Before(d.Deadline) {
		return dErrors.New(dErrors.CodeDisputeStillOpen, "dispute voting is still open").
			With("dispute_id", d.ID).
			With("deadline", d.Deadline.UTC().Format(time.RFC3339))
	}
	return nil
}

// Resolve settles the dispute by simple weight majority. A tie rejects the proof.
func (d *Dispute) Resolve(now time.Time) Outcome {
	if d.ApproveWeight > d.RejectWeight {
		d.Outcome = OutcomeApproved
	} else {
		d.Outcome = OutcomeRejected
	}
	t := now
	d.ResolvedAt = &t
	return d.Outcome
}

// WinningWeight is the total weight on the side that won.
func (d *Dispute) WinningWeight() domain.Weight {
	if d.Outcome == OutcomeApproved {
		return d.ApproveWeight
	}
	return d.RejectWeight
}

// Vote is one voter's ballot on a dispute.
type Vote struct {
	DisputeID domain.DisputeID `json:"dispute_id"`
	Voter     common.Address   `json:"voter"`
	Approve   bool             `json:"approve"`
	Weight    domain.Weight    `json:"weight"`
	CastAt    time.Time        `json:"cast_at"`
	Reward    domain.Amount    `json:"reward"`
	ClaimedAt *time.Time       `json:"claimed_at,omitempty"`
}

// CanClaim checks resolution, side and prior claims in that order.
func (v *Vote) CanClaim(d *Dispute) error {
	if !d.IsResolved() {
		return dErrors.New(dErrors.CodeDisputeNotResolved, "dispute has not been resolved").
			With("dispute_id", d.ID)
	}
	if v == nil || v.Approve != (d.Outcome == OutcomeApproved) {
		return dErrors.New(dErrors.CodeNotOnWinningSide, "caller did not vote with the winning side").
			With("dispute_id", d.ID)
	}
	if v.ClaimedAt != nil {
		return dErrors.New(dErrors.CodeAlreadyClaimed, "voting reward already claimed").
			With("dispute_id", d.ID).
			With("voter", v.Voter.Hex())
	}
	return nil
}

// RewardFor is the voter's share of the pool: floor(pool * weight / winningWeight), computed
// in big integers. A weight above the winning tally cannot come from ApplyVote and pays nothing.
func (d *Dispute) RewardFor(v *Vote) domain.Amount {
	winning := d.WinningWeight()
	if winning == 0 || v.Weight > winning {
		return domain.Amount{}
	}
	return d.RewardPool.MulDiv(uint64(v.Weight), uint64(winning))
}

func (v *Vote) ApplyClaim(reward domain.Amount, now time.Time) {
	v.Reward = reward
	t := now
	v.ClaimedAt = &t
}

// DisputeView is a dispute with its ballots.
type DisputeView struct {
	*Dispute
	Votes []*Vote `json:"votes"`
}

// RewardResult is the response to a voting reward claim.
type RewardResult struct {
	DisputeID domain.DisputeID `json:"dispute_id"`
	Voter     common.Address   `json:"voter"`
	Amount    domain.Amount    `json:"amount"`
}
