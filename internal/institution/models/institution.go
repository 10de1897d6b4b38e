package models

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
)

// State is the admission state of an institution.
type State string

const (
	StateUnverified          State = "unverified"
	StatePendingVerification State = "pending_verification"
	StateVerified            State = "verified"
	StateSlashed             State = "slashed"
)

// AttestationStatus records the attestor's answer for the current registration.
type AttestationStatus string

const (
	// AttestationPending means the attestor could not be reached; finalize retries it.
	AttestationPending  AttestationStatus = "pending"
	AttestationAccepted AttestationStatus = "accepted"
	AttestationRejected AttestationStatus = "rejected"
)

// Profile is the public description an institution registers with.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Country     string `json:"country"`
	Website     string `json:"website"`
}

// Normalize trims every field.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	p.Country = strings.TrimSpace(p.Country)
	p.Website = strings.TrimSpace(p.Website)
}

// Validate checks required fields and lengths.
func (p Profile) Validate() error {
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(p.Name) > 128 {
		return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	if len(p.Description) > 4096 {
		return dErrors.New(dErrors.CodeValidation, "description must be 4096 characters or less")
	}
	if len(p.Website) > 512 {
		return dErrors.New(dErrors.CodeValidation, "website must be 512 characters or less")
	}
	return nil
}

// Institution is the aggregate root for a staked organisation, keyed by wallet address.
//
// Invariants:
//   - Stake >= the configured minimum while PendingVerification or Verified
//   - Verified only after the attestor accepted the claim and the verification delay elapsed
//   - Slashed institutions hold no stake
//   - Unverified institutions hold no stake
type Institution struct {
	Address           common.Address    `json:"address"`
	Profile           Profile           `json:"profile"`
	Stake             domain.Amount     `json:"stake"`
	State             State             `json:"state"`
	Attestation       AttestationStatus `json:"attestation"`
	AttestationReason string            `json:"attestation_reason,omitempty"`
	Claim             *Claim            `json:"-"`
	Reputation        int64             `json:"reputation"`
	RegisteredAt      time.Time         `json:"registered_at"`
	VerifiedAt        *time.Time        `json:"verified_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// IsVerified is the single predicate gating campaign creation.
func (i *Institution) IsVerified() bool {
	return i != nil && i.State == StateVerified
}

// CanRegister reports whether a (re)registration may start from the current state.
func (i *Institution) CanRegister() error {
	if i == nil || i.State == StateUnverified {
		return nil
	}
	return dErrors.New(dErrors.CodeAlreadyRegistered, "institution is already registered").
		With("address", i.Address.Hex()).
		With("state", i.State)
}

// ApplyRegistration moves the institution into PendingVerification with stake locked.
func (i *Institution) ApplyRegistration(profile Profile, claim Claim, stake domain.Amount, now time.Time) {
	i.Profile = profile
	i.Claim = &claim
	i.Stake = stake
	i.State = StatePendingVerification
	i.Attestation = AttestationPending
	i.AttestationReason = ""
	i.RegisteredAt = now
	i.VerifiedAt = nil
	i.UpdatedAt = now
}

// RecordAttestation stores the attestor's verdict without touching the state.
func (i *Institution) RecordAttestation(status AttestationStatus, reason string, now time.Time) {
	i.Attestation = status
	i.AttestationReason = reason
	i.UpdatedAt = now
}

// CanFinalize checks every condition for Pending -> Verified.
func (i *Institution) CanFinalize(delay time.Duration, now time.Time) error {
	if i.State != StatePendingVerification {
		return dErrors.New(dErrors.CodeNotPending, "institution is not pending verification").
			With("address", i.Address.Hex()).
			With("state", i.State)
	}
	if i.Attestation != AttestationAccepted {
		return dErrors.New(dErrors.CodeNotPending, "attestation has not been accepted").
			With("address", i.Address.Hex()).
			With("attestation", i.Attestation)
	}
	if now.Before(i.RegisteredAt.Add(delay)) {
		return dErrors.New(dErrors.CodeNotPending, "verification delay has not elapsed").
			With("address", i.Address.Hex()).
			With("eligible_at", i.RegisteredAt.Add(delay).UTC().Format(time.RFC3339))
	}
	return nil
}

// ApplyVerification transitions to Verified. Call CanFinalize first.
func (i *Institution) ApplyVerification(now time.Time) {
	i.State = StateVerified
	verifiedAt := now
	i.VerifiedAt = &verifiedAt
	i.UpdatedAt = now
}

// CanWithdraw checks the state side of a stake withdrawal; active campaigns are
// checked by the service.
func (i *Institution) CanWithdraw() error {
	if i.State == StateUnverified {
		return dErrors.New(dErrors.CodeNothingToRefund, "institution holds no stake").
			With("address", i.Address.Hex())
	}
	return nil
}

// ApplyWithdrawal releases the stake and returns the institution to Unverified.
// It returns the amount paid back.
func (i *Institution) ApplyWithdrawal(now time.Time) domain.Amount {
	paid := i.Stake
	i.Stake = domain.Amount{}
	i.State = StateUnverified
	i.Attestation = ""
	i.AttestationReason = ""
	i.Claim = nil
	i.VerifiedAt = nil
	i.UpdatedAt = now
	return paid
}

// CanSlash reports whether governance may slash the institution.
func (i *Institution) CanSlash() error {
	if i.State == StateSlashed || i.State == StateUnverified {
		return dErrors.New(dErrors.CodeConflict, "institution has no stake to slash").
			With("address", i.Address.Hex()).
			With("state", i.State)
	}
	return nil
}

// ApplySlash forfeits the stake and returns the forfeited amount.
func (i *Institution) ApplySlash(now time.Time) domain.Amount {
	forfeited := i.Stake
	i.Stake = domain.Amount{}
	i.State = StateSlashed
	i.VerifiedAt = nil
	i.UpdatedAt = now
	return forfeited
}

// Details is an institution with the campaign aggregates computed on read.
type Details struct {
	*Institution
	CampaignsCount int           `json:"campaigns_count"`
	TotalRaised    domain.Amount `json:"total_raised"`
}
