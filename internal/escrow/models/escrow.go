package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
)

// Account is the custodial balance held for one campaign.
//
// Invariant: Released + Refunded <= Deposited.
type Account struct {
	CampaignID        domain.CampaignID `json:"campaign_id"`
	Beneficiary       common.Address    `json:"beneficiary"`
	Collateral        domain.Amount     `json:"collateral"`
	CollateralSettled bool              `json:"collateral_settled"`
	Deposited         domain.Amount     `json:"deposited"`
	Refunded          domain.Amount     `json:"refunded"`
	Released          domain.Amount     `json:"released"`
	Cancelled         bool              `json:"cancelled"`
	ReleasedAt        *time.Time        `json:"released_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Balance is what the vault still holds for donors or the beneficiary.
func (a *Account) Balance() domain.Amount {
	return a.Deposited.Sub(a.Refunded).Sub(a.Released)
}

// CheckOutflow refuses any payout that would breach the outflow invariant.
func (a *Account) CheckOutflow(amount domain.Amount) error {
	if a.Released.Add(a.Refunded).Add(amount).Cmp(a.Deposited) > 0 {
		return dErrors.New(dErrors.CodeOutflowExceeded, "payout would exceed deposits").
			With("campaign_id", a.CampaignID).
			With("amount", amount)
	}
	return nil
}

// CanRelease checks the release guards in order: idempotency, then cancellation.
func (a *Account) CanRelease() error {
	if a.ReleasedAt != nil {
		return dErrors.New(dErrors.CodeAlreadyReleased, "escrow already released").
			With("campaign_id", a.CampaignID)
	}
	if a.Cancelled {
		return dErrors.New(dErrors.CodeCampaignCancelled, "campaign was cancelled; escrow is refundable only").
			With("campaign_id", a.CampaignID)
	}
	return nil
}

// ApplyRelease pays the whole balance out and returns the amount.
func (a *Account) ApplyRelease(now time.Time) domain.Amount {
	paid := a.Balance()
	a.Released = a.Released.Add(paid)
	t := now
	a.ReleasedAt = &t
	a.UpdatedAt = now
	return paid
}

// SettleCollateral marks the collateral paid out (to the beneficiary or the treasury)
// and returns it. Settling twice returns zero.
func (a *Account) SettleCollateral(now time.Time) domain.Amount {
	if a.CollateralSettled {
		return domain.Amount{}
	}
	a.CollateralSettled = true
	a.UpdatedAt = now
	return a.Collateral
}

// ApplyRefund records a refund against the account.
func (a *Account) ApplyRefund(amount domain.Amount, now time.Time) {
	a.Refunded = a.Refunded.Add(amount)
	a.UpdatedAt = now
}

// Donation is a donor's cumulative position in one campaign.
//
// Invariant: Refunded <= Deposited.
type Donation struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Donor      common.Address    `json:"donor"`
	Deposited  domain.Amount     `json:"deposited"`
	Refunded   domain.Amount     `json:"refunded"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Refundable is what the donor can still claim.
func (d *Donation) Refundable() domain.Amount {
	return d.Deposited.Sub(d.Refunded)
}

// Balance is the read model returned by GET /campaigns/{id}/escrow.
type Balance struct {
	*Account
	Balance domain.Amount `json:"balance"`
}

// RefundResult is the response to a refund claim.
type RefundResult struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Donor      common.Address    `json:"donor"`
	Amount     domain.Amount     `json:"amount"`
}
