package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pulseaid/internal/institution/models"
	"pulseaid/internal/institution/service/mocks"
	"pulseaid/internal/institution/store"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	eventstore "pulseaid/pkg/platform/events/store/memory"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/testutil"
)

// =============================================================================
// Institution Service Test Suite
// =============================================================================
// Real in-memory store and outbox; the attestor and campaign directory are
// mocked so the tests can drive verdicts and campaign counts directly.

type InstitutionServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	attestor  *mocks.MockIdentityAttestor
	campaigns *mocks.MockCampaignDirectory
	store     *store.InMemoryStore
	outbox    *eventstore.InMemoryStore
	service   *Service
	cfg       Config
	inst      common.Address
	t0        time.Time
}

func TestInstitutionServiceSuite(t *testing.T) {
	suite.Run(t, new(InstitutionServiceSuite))
}

func (s *InstitutionServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.attestor = mocks.NewMockIdentityAttestor(s.ctrl)
	s.campaigns = mocks.NewMockCampaignDirectory(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.outbox = eventstore.NewInMemoryStore()
	s.cfg = Config{
		MinStake:          domain.MustEther("0.05"),
		VerificationDelay: time.Hour,
		Treasury:          common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
	}
	_, s.inst = testutil.NewWallet(s.T())
	s.t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(
		s.store,
		s.attestor,
		tx.NewShardedRunner(),
		events.NewPublisher(s.outbox),
		s.cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCampaignDirectory(s.campaigns),
	)
	s.Require().NoError(err)
}

func (s *InstitutionServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *InstitutionServiceSuite) at(offset time.Duration) context.Context {
	return testutil.CallerAt(s.inst, s.t0.Add(offset))
}

func (s *InstitutionServiceSuite) registerRequest(stake domain.Amount) *models.RegisterRequest {
	return &models.RegisterRequest{
		Profile: models.Profile{Name: "  Red Relief  ", Category: "disaster"},
		Claim: models.Claim{
			Subject:   s.inst,
			Statement: "registered charity",
			Signature: []byte{0x01},
		},
		Stake: stake,
	}
}

func (s *InstitutionServiceSuite) register() {
	s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{Accepted: true}, nil)
	_, err := s.service.Register(s.at(0), s.registerRequest(s.cfg.MinStake))
	s.Require().NoError(err)
}

func (s *InstitutionServiceSuite) verify() {
	s.register()
	_, err := s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay), s.inst)
	s.Require().NoError(err)
}

func (s *InstitutionServiceSuite) payouts(reason events.PayoutReason) []events.Event {
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

func (s *InstitutionServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.attestor, tx.NewShardedRunner(), events.NewPublisher(s.outbox), s.cfg)
		s.Error(err)
		s.Contains(err.Error(), "institution store is required")
	})

	s.Run("nil attestor returns error", func() {
		_, err := New(s.store, nil, tx.NewShardedRunner(), events.NewPublisher(s.outbox), s.cfg)
		s.Error(err)
		s.Contains(err.Error(), "identity attestor is required")
	})
}

func (s *InstitutionServiceSuite) TestRegister() {
	s.Run("locks stake and records the verdict", func() {
		s.register()

		inst, err := s.store.FindByAddress(context.Background(), s.inst)
		s.Require().NoError(err)
		s.Equal(models.StatePendingVerification, inst.State)
		s.Equal(models.AttestationAccepted, inst.Attestation)
		s.Equal("Red Relief", inst.Profile.Name)
		s.True(inst.Stake.Equal(s.cfg.MinStake))

		registered, err := s.outbox.ListByType(context.Background(), events.InstitutionRegistered)
		s.Require().NoError(err)
		s.Len(registered, 1)
	})

	s.Run("stake below minimum is rejected before the attestor is called", func() {
		_, err := s.service.Register(s.at(0), s.registerRequest(domain.MustEther("0.01")))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientStake))
	})

	s.Run("second registration is rejected", func() {
		_, err := s.service.Register(s.at(time.Minute), s.registerRequest(s.cfg.MinStake))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	})
}

func (s *InstitutionServiceSuite) TestRegisterRequiresCaller() {
	_, err := s.service.Register(context.Background(), s.registerRequest(s.cfg.MinStake))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *InstitutionServiceSuite) TestRegisterValidatesProfile() {
	req := s.registerRequest(s.cfg.MinStake)
	req.Profile.Name = "   "
	_, err := s.service.Register(s.at(0), req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// Register, attest, wait out the delay, finalize. Campaign creation is refused
// until the institution is Verified.
func (s *InstitutionServiceSuite) TestVerificationLifecycle() {
	s.register()

	ok, err := s.service.CanCreateCampaign(context.Background(), s.inst)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay-time.Second), s.inst)
	s.True(dErrors.HasCode(err, dErrors.CodeNotPending), "delay not yet elapsed")

	inst, err := s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay), s.inst)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, inst.State)
	s.NotNil(inst.VerifiedAt)

	ok, err = s.service.CanCreateCampaign(context.Background(), s.inst)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.service.FinalizeVerification(s.at(2*s.cfg.VerificationDelay), s.inst)
	s.True(dErrors.HasCode(err, dErrors.CodeNotPending), "already verified")
}

func (s *InstitutionServiceSuite) TestFinalizeRejectedAttestation() {
	s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(models.Verdict{Accepted: false, Reason: "unknown signer"}, nil)
	_, err := s.service.Register(s.at(0), s.registerRequest(s.cfg.MinStake))
	s.Require().NoError(err)

	_, err = s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay), s.inst)
	s.True(dErrors.HasCode(err, dErrors.CodeNotPending))
}

func (s *InstitutionServiceSuite) TestFinalizeRetriesUnavailableAttestor() {
	gomock.InOrder(
		s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{}, errors.New("attestor offline")),
		s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{Accepted: true}, nil),
	)
	inst, err := s.service.Register(s.at(0), s.registerRequest(s.cfg.MinStake))
	s.Require().NoError(err)
	s.Equal(models.AttestationPending, inst.Attestation)

	inst, err = s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay), s.inst)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, inst.State)
}

// A retried verdict on a refused finalize is not persisted; the next attempt retries again.
func (s *InstitutionServiceSuite) TestFinalizeTooEarlyKeepsAttestationPending() {
	gomock.InOrder(
		s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{}, errors.New("attestor offline")),
		s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{Accepted: true}, nil),
		s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{Accepted: true}, nil),
	)
	_, err := s.service.Register(s.at(0), s.registerRequest(s.cfg.MinStake))
	s.Require().NoError(err)

	_, err = s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay-time.Minute), s.inst)
	s.True(dErrors.HasCode(err, dErrors.CodeNotPending))

	stored, err := s.store.FindByAddress(context.Background(), s.inst)
	s.Require().NoError(err)
	s.Equal(models.AttestationPending, stored.Attestation)
	s.Equal(models.StatePendingVerification, stored.State)

	inst, err := s.service.FinalizeVerification(s.at(s.cfg.VerificationDelay), s.inst)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, inst.State)
	s.Equal(models.AttestationAccepted, inst.Attestation)
}

func (s *InstitutionServiceSuite) TestFinalizeUnknownInstitution() {
	_, err := s.service.FinalizeVerification(s.at(0), common.HexToAddress("0x1234"))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *InstitutionServiceSuite) TestWithdrawStake() {
	s.Run("unregistered caller has nothing to withdraw", func() {
		_, err := s.service.WithdrawStake(s.at(0))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.verify()

	s.Run("active campaigns block withdrawal", func() {
		s.campaigns.EXPECT().CountActiveByInstitution(gomock.Any(), s.inst).Return(1, nil)
		_, err := s.service.WithdrawStake(s.at(2 * time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeActiveCampaigns))
	})

	s.Run("stake is returned and the institution reverts to unverified", func() {
		s.campaigns.EXPECT().CountActiveByInstitution(gomock.Any(), s.inst).Return(0, nil)
		paid, err := s.service.WithdrawStake(s.at(3 * time.Hour))
		s.Require().NoError(err)
		s.True(paid.Equal(s.cfg.MinStake))

		inst, err := s.store.FindByAddress(context.Background(), s.inst)
		s.Require().NoError(err)
		s.Equal(models.StateUnverified, inst.State)
		s.True(inst.Stake.IsZero())

		returns := s.payouts(events.PayoutStakeReturn)
		s.Require().Len(returns, 1)
		s.Equal(s.inst.Hex(), returns[0].Attributes["recipient"])
		s.True(returns[0].PayoutAmount().Equal(s.cfg.MinStake))
	})

	s.Run("second withdrawal has nothing to refund", func() {
		_, err := s.service.WithdrawStake(s.at(4 * time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeNothingToRefund))
	})
}

func (s *InstitutionServiceSuite) TestSlash() {
	s.verify()
	gov := testutil.GovernanceAt(s.t0.Add(2 * time.Hour))

	s.Run("requires governance", func() {
		_, err := s.service.Slash(s.at(2*time.Hour), s.inst, "fraud")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("requires a reason", func() {
		_, err := s.service.Slash(gov, s.inst, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("forfeits stake to the treasury", func() {
		inst, err := s.service.Slash(gov, s.inst, "fraud")
		s.Require().NoError(err)
		s.Equal(models.StateSlashed, inst.State)
		s.True(inst.Stake.IsZero())

		forfeits := s.payouts(events.PayoutStakeForfeit)
		s.Require().Len(forfeits, 1)
		s.Equal(s.cfg.Treasury.Hex(), forfeits[0].Attributes["recipient"])

		ok, err := s.service.CanCreateCampaign(context.Background(), s.inst)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("cannot slash twice", func() {
		_, err := s.service.Slash(gov, s.inst, "again")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("slashed institution may withdraw nothing and register again", func() {
		s.campaigns.EXPECT().CountActiveByInstitution(gomock.Any(), s.inst).Return(0, nil)
		paid, err := s.service.WithdrawStake(s.at(3 * time.Hour))
		s.Require().NoError(err)
		s.True(paid.IsZero())
		s.Empty(s.payouts(events.PayoutStakeReturn))

		s.attestor.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{Accepted: true}, nil)
		_, err = s.service.Register(s.at(4*time.Hour), s.registerRequest(s.cfg.MinStake))
		s.Require().NoError(err)
	})
}

func (s *InstitutionServiceSuite) TestGetIncludesCampaignSummary() {
	s.verify()
	s.campaigns.EXPECT().SummaryByInstitution(gomock.Any(), s.inst).Return(2, domain.MustEther("3"), nil)
	s.Require().NoError(s.service.AdjustReputation(context.Background(), s.inst, 1))

	details, err := s.service.Get(context.Background(), s.inst)
	s.Require().NoError(err)
	s.Equal(2, details.CampaignsCount)
	s.True(details.TotalRaised.Equal(domain.MustEther("3")))
	s.Equal(int64(1), details.Reputation)
}

func (s *InstitutionServiceSuite) TestAdjustReputationUnknown() {
	err := s.service.AdjustReputation(context.Background(), common.HexToAddress("0x1234"), -1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *InstitutionServiceSuite) TestCount() {
	s.verify()
	total, verified, err := s.service.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(1, verified)
}
