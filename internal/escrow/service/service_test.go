package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"pulseaid/internal/escrow/store"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	eventstore "pulseaid/pkg/platform/events/store/memory"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/testutil"
)

// =============================================================================
// Escrow Service Test Suite
// =============================================================================
// Runs against the in-memory store and outbox so every payout is observable.

type EscrowServiceSuite struct {
	suite.Suite
	store    *store.InMemoryStore
	outbox   *eventstore.InMemoryStore
	service  *Service
	inst     common.Address
	alice    common.Address
	bob      common.Address
	treasury common.Address
	t0       time.Time
}

func TestEscrowServiceSuite(t *testing.T) {
	suite.Run(t, new(EscrowServiceSuite))
}

func (s *EscrowServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.outbox = eventstore.NewInMemoryStore()
	s.inst = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	s.alice = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	s.bob = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	s.treasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	s.t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(
		s.store,
		tx.NewShardedRunner(),
		events.NewPublisher(s.outbox),
		Config{Treasury: s.treasury},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *EscrowServiceSuite) open(id domain.CampaignID) {
	s.Require().NoError(s.service.OpenAccount(testutil.CallerAt(s.inst, s.t0), id, s.inst, domain.NewAmount(5)))
}

func (s *EscrowServiceSuite) deposit(id domain.CampaignID, donor common.Address, amount int64) bool {
	first, err := s.service.Deposit(testutil.CallerAt(donor, s.t0), id, donor, domain.NewAmount(amount))
	s.Require().NoError(err)
	return first
}

func (s *EscrowServiceSuite) payouts(reason events.PayoutReason) []events.Event {
	all, err := s.outbox.ListByType(context.Background(), events.Payout)
	s.Require().NoError(err)
	var out []events.Event
	for _, e := range all {
		if e.PayoutReason() == reason {
			out = append(out, e)
		}
	}
	return out
}

func (s *EscrowServiceSuite) TestNew() {
	_, err := New(nil, tx.NewShardedRunner(), events.NewPublisher(s.outbox), Config{})
	s.Require().Error(err)
	_, err = New(s.store, nil, events.NewPublisher(s.outbox), Config{})
	s.Require().Error(err)
	_, err = New(s.store, tx.NewShardedRunner(), nil, Config{})
	s.Require().Error(err)
}

func (s *EscrowServiceSuite) TestOpenAccountTwice() {
	s.open(1)
	err := s.service.OpenAccount(testutil.CallerAt(s.inst, s.t0), 1, s.inst, domain.NewAmount(5))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EscrowServiceSuite) TestDepositTracksFirstDonation() {
	s.open(1)
	s.True(s.deposit(1, s.alice, 4))
	s.False(s.deposit(1, s.alice, 7))
	s.True(s.deposit(1, s.bob, 1))

	bal, err := s.service.Balance(context.Background(), 1)
	s.Require().NoError(err)
	s.True(bal.Balance.Equal(domain.NewAmount(12)))

	d, err := s.service.Donation(context.Background(), 1, s.alice)
	s.Require().NoError(err)
	s.True(d.Deposited.Equal(domain.NewAmount(11)))
}

func (s *EscrowServiceSuite) TestDepositRejected() {
	s.Run("unknown campaign", func() {
		_, err := s.service.Deposit(testutil.CallerAt(s.alice, s.t0), 9, s.alice, domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("zero amount", func() {
		s.open(2)
		_, err := s.service.Deposit(testutil.CallerAt(s.alice, s.t0), 2, s.alice, domain.Amount{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})
}

func (s *EscrowServiceSuite) TestRelease() {
	s.open(1)
	s.deposit(1, s.alice, 4)
	s.deposit(1, s.alice, 7)

	paid, err := s.service.Release(testutil.CallerAt(s.inst, s.t0), 1)
	s.Require().NoError(err)
	s.True(paid.Equal(domain.NewAmount(11)))

	releases := s.payouts(events.PayoutEscrowRelease)
	s.Require().Len(releases, 1)
	s.Equal(s.inst.Hex(), releases[0].Attributes["recipient"])
	s.Len(s.payouts(events.PayoutCollateralReturn), 1)

	_, err = s.service.Release(testutil.CallerAt(s.inst, s.t0), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyReleased))
	s.Len(s.payouts(events.PayoutEscrowRelease), 1, "no second payout")
}

func (s *EscrowServiceSuite) TestReleaseAfterCancel() {
	s.open(1)
	s.deposit(1, s.alice, 3)
	s.Require().NoError(s.service.MarkCancelled(testutil.CallerAt(s.inst, s.t0), 1, false))

	_, err := s.service.Release(testutil.CallerAt(s.inst, s.t0), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeCampaignCancelled))
}

// Alice deposits 4 then 7 and Bob 2; after cancellation each refund pays exactly once.
func (s *EscrowServiceSuite) TestRefunds() {
	s.open(1)
	s.deposit(1, s.alice, 4)
	s.deposit(1, s.alice, 7)
	s.deposit(1, s.bob, 2)

	_, err := s.service.ClaimRefund(testutil.CallerAt(s.alice, s.t0), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotCancelled))

	s.Require().NoError(s.service.MarkCancelled(testutil.CallerAt(s.inst, s.t0), 1, false))

	res, err := s.service.ClaimRefund(testutil.CallerAt(s.alice, s.t0), 1)
	s.Require().NoError(err)
	s.True(res.Amount.Equal(domain.NewAmount(11)))

	_, err = s.service.ClaimRefund(testutil.CallerAt(s.alice, s.t0), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNothingToRefund))

	res, err = s.service.ClaimRefund(testutil.CallerAt(s.bob, s.t0), 1)
	s.Require().NoError(err)
	s.True(res.Amount.Equal(domain.NewAmount(2)))

	stranger := common.HexToAddress("0x00000000000000000000000000000000000000d9")
	_, err = s.service.ClaimRefund(testutil.CallerAt(stranger, s.t0), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNothingToRefund))

	bal, err := s.service.Balance(context.Background(), 1)
	s.Require().NoError(err)
	s.True(bal.Balance.IsZero())
	s.True(bal.Refunded.Equal(domain.NewAmount(13)))
	s.Len(s.payouts(events.PayoutDonorRefund), 2)
}

func (s *EscrowServiceSuite) TestRefundRequiresCaller() {
	_, err := s.service.ClaimRefund(context.Background(), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *EscrowServiceSuite) TestMarkCancelledSettlesCollateral() {
	s.Run("returned to the institution", func() {
		s.open(1)
		s.Require().NoError(s.service.MarkCancelled(testutil.CallerAt(s.inst, s.t0), 1, false))
		returned := s.payouts(events.PayoutCollateralReturn)
		s.Require().Len(returned, 1)
		s.Equal(s.inst.Hex(), returned[0].Attributes["recipient"])
	})

	s.Run("forfeited to the treasury", func() {
		s.open(2)
		s.Require().NoError(s.service.MarkCancelled(testutil.GovernanceAt(s.t0), 2, true))
		forfeited := s.payouts(events.PayoutCollateralForfeit)
		s.Require().Len(forfeited, 1)
		s.Equal(s.treasury.Hex(), forfeited[0].Attributes["recipient"])
		s.True(forfeited[0].PayoutAmount().Equal(domain.NewAmount(5)))
	})

	s.Run("deposits after cancellation are refused", func() {
		_, err := s.service.Deposit(testutil.CallerAt(s.alice, s.t0), 2, s.alice, domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeCampaignCancelled))
	})
}

func (s *EscrowServiceSuite) TestOutflowInvariantHolds() {
	s.open(1)
	s.deposit(1, s.alice, 5)
	s.Require().NoError(s.service.MarkCancelled(testutil.CallerAt(s.inst, s.t0), 1, false))
	_, err := s.service.ClaimRefund(testutil.CallerAt(s.alice, s.t0), 1)
	s.Require().NoError(err)

	account, err := s.store.FindAccount(context.Background(), 1)
	s.Require().NoError(err)
	s.LessOrEqual(account.Released.Add(account.Refunded).Cmp(account.Deposited), 0)
}
