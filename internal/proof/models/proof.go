package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
)

type Status string

const (
	StatusSubmitted     Status = "submitted"
	StatusAutoValidated Status = "auto_validated"
	StatusChallenged    Status = "challenged"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Evidence points at the off-ledger bundle and pins its parts by hash.
type Evidence struct {
	Ref          domain.EvidenceRef `json:"evidence_ref"`
	ReceiptsHash common.Hash        `json:"receipts_hash"`
	PhotosHash   common.Hash        `json:"photos_hash"`
	MetricsHash  common.Hash        `json:"metrics_hash"`
}

// Proof is the institution's claim of delivered work for one campaign. A campaign has at
// most one live proof; a Rejected proof may be replaced by a new attempt.
//
// Status never regresses except Challenged -> Approved | Rejected.
type Proof struct {
	CampaignID         domain.CampaignID `json:"campaign_id"`
	Submitter          common.Address    `json:"submitter"`
	Evidence           Evidence          `json:"evidence"`
	Fee                domain.Amount     `json:"fee"`
	Attempt            int               `json:"attempt"`
	Status             Status            `json:"status"`
	SubmittedAt        time.Time         `json:"submitted_at"`
	ChallengeWindowEnd time.Time         `json:"challenge_window_end"`
	DisputeID          *domain.DisputeID `json:"dispute_id,omitempty"`
	FinalizedAt        *time.Time        `json:"finalized_at,omitempty"`
}

// CanReplace reports whether a new proof may be submitted over p. A nil proof can
// always be replaced.
func (p *Proof) CanReplace() error {
	if p == nil || p.Status == StatusRejected {
		return nil
	}
	return dErrors.New(dErrors.CodeProofAlreadyExists, "campaign already has a live proof").
		With("campaign_id", p.CampaignID).
		With("status", p.Status)
}

// Submit records a new attempt. The proof passes through Submitted and lands in
// AutoValidated with the challenge window open.
func (p *Proof) Submit(submitter common.Address, evidence Evidence, fee domain.Amount, window time.Duration, now time.Time) {
	p.Submitter = submitter
	p.Evidence = evidence
	p.Fee = fee
	p.Attempt++
	p.SubmittedAt = now
	p.DisputeID = nil
	p.FinalizedAt = nil
	// Submitted is transient: nothing can observe it before validation starts.
	p.Status = StatusAutoValidated
	p.ChallengeWindowEnd = now.Add(window)
}

// CanChallenge checks state then window. Weight is checked by the caller.
func (p *Proof) CanChallenge(now time.Time) error {
	if p.Status != StatusAutoValidated {
		return dErrors.New(dErrors.CodeNotChallengeable, "proof is not open to challenge").
			With("campaign_id", p.CampaignID).
			With("status", p.Status)
	}
	if !now.Before(p.ChallengeWindowEnd) {
		return dErrors.New(dErrors.CodeWindowClosed, "challenge window has closed").
			With("campaign_id", p.CampaignID).
			With("window_end", p.ChallengeWindowEnd.UTC().Format(time.RFC3339))
	}
	return nil
}

func (p *Proof) ApplyChallenge(dispute domain.DisputeID) {
	p.Status = StatusChallenged
	id := dispute
	p.DisputeID = &id
}

// CanFinalizeUnchallenged reports whether an AutoValidated proof's window has elapsed.
// now == ChallengeWindowEnd is final.
func (p *Proof) CanFinalizeUnchallenged(now time.Time) error {
	if now.Before(p.ChallengeWindowEnd) {
		return dErrors.New(dErrors.CodeWindowStillOpen, "challenge window is still open").
			With("campaign_id", p.CampaignID).
			With("window_end", p.ChallengeWindowEnd.UTC().Format(time.RFC3339))
	}
	return nil
}

// CheckNotFinal returns the idempotency error for proofs that were already finalized.
func (p *Proof) CheckNotFinal() error {
	switch p.Status {
	case StatusApproved:
		return dErrors.New(dErrors.CodeAlreadyReleased, "escrow was already released for this proof").
			With("campaign_id", p.CampaignID)
	case StatusRejected:
		return dErrors.New(dErrors.CodeAlreadyFinalized, "proof was already rejected").
			With("campaign_id", p.CampaignID)
	}
	return nil
}

func (p *Proof) ApplyOutcome(approved bool, now time.Time) {
	if approved {
		p.Status = StatusApproved
	} else {
		p.Status = StatusRejected
	}
	t := now
	p.FinalizedAt = &t
}

// SubmitRequest is the body of POST /campaigns/{id}/proof.
type SubmitRequest struct {
	EvidenceRef  string        `json:"evidence_ref"`
	ReceiptsHash string        `json:"receipts_hash"`
	PhotosHash   string        `json:"photos_hash"`
	MetricsHash  string        `json:"metrics_hash"`
	Fee          domain.Amount `json:"fee"`
}

// ParseEvidence validates the request's references.
func (r SubmitRequest) ParseEvidence() (Evidence, error) {
	ref, err := domain.ParseEvidenceRef(r.EvidenceRef)
	if err != nil {
		return Evidence{}, err
	}
	receipts, err := domain.ParseHash("receipts_hash", r.ReceiptsHash)
	if err != nil {
		return Evidence{}, err
	}
	photos, err := domain.ParseHash("photos_hash", r.PhotosHash)
	if err != nil {
		return Evidence{}, err
	}
	metrics, err := domain.ParseHash("metrics_hash", r.MetricsHash)
	if err != nil {
		return Evidence{}, err
	}
	return Evidence{Ref: ref, ReceiptsHash: receipts, PhotosHash: photos, MetricsHash: metrics}, nil
}

// ChallengeRequest is the body of POST /campaigns/{id}/proof/challenge.
type ChallengeRequest struct {
	Reason string `json:"reason"`
}

// VoteRequest is the body of POST /disputes/{id}/votes.
type VoteRequest struct {
	Approve *bool `json:"approve"`
}

// FinalizeResult reports the settled proof and what was released to the institution.
type FinalizeResult struct {
	Proof    *Proof        `json:"proof"`
	Released domain.Amount `json:"released"`
}
