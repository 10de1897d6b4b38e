package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
)

func TestAccountOutflow(t *testing.T) {
	a := &Account{CampaignID: 1, Deposited: domain.NewAmount(10), Refunded: domain.NewAmount(4)}

	require.NoError(t, a.CheckOutflow(domain.NewAmount(6)))
	err := a.CheckOutflow(domain.NewAmount(7))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeOutflowExceeded))
	assert.True(t, a.Balance().Equal(domain.NewAmount(6)))
}

func TestAccountRelease(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	a := &Account{CampaignID: 1, Deposited: domain.NewAmount(11), Collateral: domain.NewAmount(5)}

	require.NoError(t, a.CanRelease())
	paid := a.ApplyRelease(now)
	assert.True(t, paid.Equal(domain.NewAmount(11)))
	assert.True(t, a.Balance().IsZero())

	err := a.CanRelease()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyReleased))

	assert.True(t, a.SettleCollateral(now).Equal(domain.NewAmount(5)))
	assert.True(t, a.SettleCollateral(now).IsZero(), "collateral settles once")
}

func TestAccountReleaseAfterCancel(t *testing.T) {
	a := &Account{CampaignID: 1, Cancelled: true}
	err := a.CanRelease()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCampaignCancelled))
}

func TestDonationRefundable(t *testing.T) {
	d := &Donation{Deposited: domain.NewAmount(7), Refunded: domain.NewAmount(7)}
	assert.True(t, d.Refundable().IsZero())
}
