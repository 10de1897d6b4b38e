package ledger_test

import (
	"context"
	"crypto/ecdsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"pulseaid/internal/attestor"
	campaignmodels "pulseaid/internal/campaign/models"
	campaignservice "pulseaid/internal/campaign/service"
	campaignstore "pulseaid/internal/campaign/store"
	escrowservice "pulseaid/internal/escrow/service"
	escrowstore "pulseaid/internal/escrow/store"
	"pulseaid/internal/fees"
	institutionmodels "pulseaid/internal/institution/models"
	institutionservice "pulseaid/internal/institution/service"
	institutionstore "pulseaid/internal/institution/store"
	"pulseaid/internal/ledger"
	proofmodels "pulseaid/internal/proof/models"
	proofservice "pulseaid/internal/proof/service"
	proofstore "pulseaid/internal/proof/store"
	"pulseaid/internal/reputation"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	eventstore "pulseaid/pkg/platform/events/store/memory"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/testutil"
)

const evidenceRef = "ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

// =============================================================================
// Protocol Scenario Suite
// =============================================================================
// Every module runs for real on in-memory stores, sharing one runner and one
// outbox, the same way the server wires them.

type ScenarioSuite struct {
	suite.Suite
	outbox       *eventstore.InMemoryStore
	oracle       *reputation.Static
	institutions *institutionservice.Service
	campaigns    *campaignservice.Service
	escrow       *escrowservice.Service
	proofs       *proofservice.Service
	stats        *ledger.Service

	attestorKey  *ecdsa.PrivateKey
	inst         common.Address
	alice        common.Address
	bob          common.Address
	challenger   common.Address
	voterApprove common.Address
	voterReject  common.Address
	treasury     common.Address
	t0           time.Time
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key, attestorAddr := testutil.NewWallet(s.T())
	s.attestorKey = key

	s.inst = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	s.alice = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	s.bob = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	s.challenger = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	s.voterApprove = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	s.voterReject = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	s.treasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	s.t0 = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

	runner := tx.NewShardedRunner()
	s.outbox = eventstore.NewInMemoryStore()
	publisher := events.NewPublisher(s.outbox)
	s.oracle = reputation.NewStatic(map[common.Address]domain.Weight{
		s.challenger:   150,
		s.voterApprove: 40,
		s.voterReject:  60,
	}, 0)

	verifier, err := attestor.NewSigned([]common.Address{attestorAddr}, attestor.WithLogger(logger))
	s.Require().NoError(err)
	sink, err := fees.NewSink(publisher, s.treasury, fees.WithLogger(logger))
	s.Require().NoError(err)

	campaignStore := campaignstore.NewInMemoryStore()
	proofStore := proofstore.NewInMemoryStore()

	s.institutions, err = institutionservice.New(
		institutionstore.NewInMemoryStore(),
		verifier,
		runner,
		publisher,
		institutionservice.Config{MinStake: domain.NewAmount(100), VerificationDelay: time.Hour, Treasury: s.treasury},
		institutionservice.WithLogger(logger),
		institutionservice.WithCampaignDirectory(campaignStore),
	)
	s.Require().NoError(err)

	s.escrow, err = escrowservice.New(
		escrowstore.NewInMemoryStore(),
		runner,
		publisher,
		escrowservice.Config{Treasury: s.treasury},
		escrowservice.WithLogger(logger),
	)
	s.Require().NoError(err)

	s.campaigns, err = campaignservice.New(
		campaignStore,
		s.institutions,
		s.escrow,
		runner,
		publisher,
		campaignservice.Config{Collateral: domain.NewAmount(5), MaxDuration: 90 * 24 * time.Hour},
		campaignservice.WithLogger(logger),
		campaignservice.WithProofReader(proofStore),
	)
	s.Require().NoError(err)

	s.proofs, err = proofservice.New(
		proofStore,
		s.campaigns,
		s.escrow,
		s.oracle,
		sink,
		runner,
		publisher,
		proofservice.Config{
			ChallengePeriod:    48 * time.Hour,
			DisputePeriod:      72 * time.Hour,
			ChallengeThreshold: 100,
			StorageFee:         domain.NewAmount(1),
			RewardPool:         domain.NewAmount(1000),
		},
		proofservice.WithLogger(logger),
		proofservice.WithReputationTracker(s.institutions),
	)
	s.Require().NoError(err)

	s.stats, err = ledger.New(s.institutions, s.campaigns)
	s.Require().NoError(err)
}

func (s *ScenarioSuite) as(addr common.Address, at time.Time) context.Context {
	return testutil.CallerAt(addr, at)
}

func (s *ScenarioSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *ScenarioSuite) registerVerified() {
	claim := institutionmodels.Claim{
		Subject:   s.inst,
		Statement: "registered charity 1182-44",
		IssuedAt:  s.t0.Add(-time.Hour),
		ExpiresAt: s.t0.Add(365 * 24 * time.Hour),
	}
	s.Require().NoError(attestor.SignClaim(&claim, s.attestorKey))

	inst, err := s.institutions.Register(s.as(s.inst, s.t0), &institutionmodels.RegisterRequest{
		Profile: institutionmodels.Profile{Name: "Riverbank Food Aid", Category: "food", Country: "GB", Website: "https://riverbank.example"},
		Claim:   claim,
		Stake:   domain.NewAmount(100),
	})
	s.Require().NoError(err)
	s.Equal(institutionmodels.StatePendingVerification, inst.State)
	s.Equal(institutionmodels.AttestationAccepted, inst.Attestation)

	_, err = s.institutions.FinalizeVerification(s.as(s.inst, s.t0.Add(time.Hour)), s.inst)
	s.Require().NoError(err)
}

func (s *ScenarioSuite) createCampaign(at time.Time) *campaignmodels.Campaign {
	c, err := s.campaigns.Create(s.as(s.inst, at), &campaignmodels.CreateRequest{
		Title:           "Winter meals",
		Description:     "Hot meals for the winter shelter",
		Category:        "food",
		Goal:            domain.NewAmount(10),
		DurationSeconds: int64((7 * 24 * time.Hour).Seconds()),
		Collateral:      domain.NewAmount(5),
	})
	s.Require().NoError(err)
	return c
}

func (s *ScenarioSuite) submitProof(id domain.CampaignID, at time.Time) *proofmodels.Proof {
	p, err := s.proofs.SubmitProof(s.as(s.inst, at), id, &proofmodels.SubmitRequest{
		EvidenceRef:  evidenceRef,
		ReceiptsHash: "0x1111111111111111111111111111111111111111111111111111111111111111",
		PhotosHash:   "0x2222222222222222222222222222222222222222222222222222222222222222",
		MetricsHash:  "0x3333333333333333333333333333333333333333333333333333333333333333",
		Fee:          domain.NewAmount(1),
	})
	s.Require().NoError(err)
	return p
}

func (s *ScenarioSuite) payouts(reason events.PayoutReason) []events.Event {
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

func (s *ScenarioSuite) TestRegistrationGatesCampaignCreation() {
	claim := institutionmodels.Claim{
		Subject:   s.inst,
		Statement: "registered charity 1182-44",
		IssuedAt:  s.t0.Add(-time.Hour),
	}
	s.Require().NoError(attestor.SignClaim(&claim, s.attestorKey))
	_, err := s.institutions.Register(s.as(s.inst, s.t0), &institutionmodels.RegisterRequest{
		Profile: institutionmodels.Profile{Name: "Riverbank Food Aid", Category: "food", Country: "GB"},
		Claim:   claim,
		Stake:   domain.NewAmount(100),
	})
	s.Require().NoError(err)

	_, err = s.campaigns.Create(s.as(s.inst, s.t0.Add(time.Minute)), &campaignmodels.CreateRequest{
		Title:           "Too soon",
		Description:     "Created before verification",
		Category:        "food",
		Goal:            domain.NewAmount(10),
		DurationSeconds: 3600,
		Collateral:      domain.NewAmount(5),
	})
	s.requireCode(err, dErrors.CodeUnauthorizedInstitution)

	_, err = s.institutions.FinalizeVerification(s.as(s.inst, s.t0.Add(59*time.Minute)), s.inst)
	s.requireCode(err, dErrors.CodeNotPending)

	inst, err := s.institutions.FinalizeVerification(s.as(s.inst, s.t0.Add(time.Hour)), s.inst)
	s.Require().NoError(err)
	s.Equal(institutionmodels.StateVerified, inst.State)

	ok, err := s.institutions.CanCreateCampaign(context.Background(), s.inst)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ScenarioSuite) TestFundedCampaignReleasesAfterUnchallengedProof() {
	s.registerVerified()
	start := s.t0.Add(2 * time.Hour)
	c := s.createCampaign(start)

	c, err := s.campaigns.Donate(s.as(s.alice, start.Add(time.Hour)), c.ID, domain.NewAmount(4))
	s.Require().NoError(err)
	s.Equal(campaignmodels.StatusActive, c.Status)
	c, err = s.campaigns.Donate(s.as(s.bob, start.Add(2*time.Hour)), c.ID, domain.NewAmount(7))
	s.Require().NoError(err)
	s.Equal(campaignmodels.StatusGoalReached, c.Status)
	s.Equal("11", c.Raised.String())

	_, err = s.proofs.SubmitProof(s.as(s.inst, start.Add(3*time.Hour)), c.ID, &proofmodels.SubmitRequest{EvidenceRef: evidenceRef})
	s.requireCode(err, dErrors.CodeInvalidEvidence)

	deadline := c.Deadline
	_, err = s.campaigns.End(s.as(s.alice, deadline.Add(-time.Second)), c.ID)
	s.requireCode(err, dErrors.CodeTooEarly)
	_, err = s.campaigns.End(s.as(s.alice, deadline), c.ID)
	s.Require().NoError(err)

	p := s.submitProof(c.ID, deadline.Add(time.Hour))
	s.Equal(proofmodels.StatusAutoValidated, p.Status)

	_, err = s.proofs.FinalizeProof(s.as(s.bob, p.ChallengeWindowEnd.Add(-time.Second)), c.ID)
	s.requireCode(err, dErrors.CodeWindowStillOpen)

	res, err := s.proofs.FinalizeProof(s.as(s.bob, p.ChallengeWindowEnd), c.ID)
	s.Require().NoError(err)
	s.Equal(proofmodels.StatusApproved, res.Proof.Status)
	s.Equal("11", res.Released.String())

	_, err = s.proofs.FinalizeProof(s.as(s.bob, p.ChallengeWindowEnd.Add(time.Minute)), c.ID)
	s.requireCode(err, dErrors.CodeAlreadyReleased)

	final, err := s.campaigns.Get(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(campaignmodels.StatusCompleted, final.Status)

	balance, err := s.escrow.Balance(context.Background(), c.ID)
	s.Require().NoError(err)
	s.True(balance.Balance.IsZero())

	s.Len(s.payouts(events.PayoutEscrowRelease), 1)
	s.Len(s.payouts(events.PayoutCollateralReturn), 1)
	s.Len(s.payouts(events.PayoutStorageFee), 1)

	details, err := s.institutions.Get(context.Background(), s.inst)
	s.Require().NoError(err)
	s.Equal(int64(1), details.Reputation)

	paid, err := s.institutions.WithdrawStake(s.as(s.inst, p.ChallengeWindowEnd.Add(time.Hour)))
	s.Require().NoError(err)
	s.Equal("100", paid.String())
}

func (s *ScenarioSuite) TestRejectedProofLeadsToRefunds() {
	s.registerVerified()
	start := s.t0.Add(2 * time.Hour)
	c := s.createCampaign(start)

	_, err := s.campaigns.Donate(s.as(s.alice, start.Add(time.Hour)), c.ID, domain.NewAmount(6))
	s.Require().NoError(err)
	_, err = s.campaigns.Donate(s.as(s.bob, start.Add(time.Hour)), c.ID, domain.NewAmount(4))
	s.Require().NoError(err)
	_, err = s.campaigns.End(s.as(s.inst, c.Deadline), c.ID)
	s.Require().NoError(err)

	p := s.submitProof(c.ID, c.Deadline.Add(time.Hour))
	challengeAt := p.SubmittedAt.Add(time.Hour)
	d, err := s.proofs.ChallengeProof(s.as(s.challenger, challengeAt), c.ID, &proofmodels.ChallengeRequest{Reason: "photos reused from 2024"})
	s.Require().NoError(err)

	_, err = s.proofs.ChallengeProof(s.as(s.challenger, challengeAt), c.ID, &proofmodels.ChallengeRequest{Reason: "again"})
	s.requireCode(err, dErrors.CodeNotChallengeable)

	_, err = s.proofs.VoteOnDispute(s.as(s.voterApprove, challengeAt.Add(time.Hour)), d.ID, true)
	s.Require().NoError(err)
	_, err = s.proofs.VoteOnDispute(s.as(s.voterReject, challengeAt.Add(time.Hour)), d.ID, false)
	s.Require().NoError(err)
	_, err = s.proofs.VoteOnDispute(s.as(s.voterReject, challengeAt.Add(2*time.Hour)), d.ID, false)
	s.requireCode(err, dErrors.CodeAlreadyVoted)

	view, err := s.proofs.GetDispute(context.Background(), d.ID)
	s.Require().NoError(err)
	s.Equal(domain.Weight(40), view.ApproveWeight)
	s.Equal(domain.Weight(60), view.RejectWeight)

	_, err = s.proofs.FinalizeProof(s.as(s.bob, d.Deadline.Add(-time.Second)), c.ID)
	s.requireCode(err, dErrors.CodeDisputeStillOpen)
	res, err := s.proofs.FinalizeProof(s.as(s.bob, d.Deadline), c.ID)
	s.Require().NoError(err)
	s.Equal(proofmodels.StatusRejected, res.Proof.Status)
	s.True(res.Released.IsZero())

	reward, err := s.proofs.ClaimVotingReward(s.as(s.voterReject, d.Deadline.Add(time.Hour)), d.ID)
	s.Require().NoError(err)
	s.Equal("1000", reward.Amount.String())
	_, err = s.proofs.ClaimVotingReward(s.as(s.voterApprove, d.Deadline.Add(time.Hour)), d.ID)
	s.requireCode(err, dErrors.CodeNotOnWinningSide)

	cancelAt := d.Deadline.Add(2 * time.Hour)
	_, err = s.escrow.ClaimRefund(s.as(s.alice, cancelAt), c.ID)
	s.requireCode(err, dErrors.CodeNotCancelled)

	_, err = s.campaigns.Cancel(s.as(s.inst, cancelAt), c.ID)
	s.Require().NoError(err)

	refund, err := s.escrow.ClaimRefund(s.as(s.alice, cancelAt.Add(time.Minute)), c.ID)
	s.Require().NoError(err)
	s.Equal("6", refund.Amount.String())
	_, err = s.escrow.ClaimRefund(s.as(s.alice, cancelAt.Add(2*time.Minute)), c.ID)
	s.requireCode(err, dErrors.CodeNothingToRefund)
	refund, err = s.escrow.ClaimRefund(s.as(s.bob, cancelAt.Add(time.Minute)), c.ID)
	s.Require().NoError(err)
	s.Equal("4", refund.Amount.String())

	s.Empty(s.payouts(events.PayoutEscrowRelease))
	s.Len(s.payouts(events.PayoutDonorRefund), 2)
	s.Len(s.payouts(events.PayoutCollateralForfeit), 1)

	details, err := s.institutions.Get(context.Background(), s.inst)
	s.Require().NoError(err)
	s.Equal(int64(-1), details.Reputation)
}

func (s *ScenarioSuite) TestApprovedDisputeAfterCancelKeepsRefunds() {
	s.registerVerified()
	start := s.t0.Add(2 * time.Hour)
	c := s.createCampaign(start)

	_, err := s.campaigns.Donate(s.as(s.alice, start.Add(time.Hour)), c.ID, domain.NewAmount(6))
	s.Require().NoError(err)
	_, err = s.campaigns.End(s.as(s.inst, c.Deadline), c.ID)
	s.Require().NoError(err)

	p := s.submitProof(c.ID, c.Deadline.Add(time.Hour))
	challengeAt := p.SubmittedAt.Add(time.Hour)
	d, err := s.proofs.ChallengeProof(s.as(s.challenger, challengeAt), c.ID, &proofmodels.ChallengeRequest{Reason: "receipts look edited"})
	s.Require().NoError(err)
	_, err = s.proofs.VoteOnDispute(s.as(s.voterApprove, challengeAt.Add(time.Hour)), d.ID, true)
	s.Require().NoError(err)

	_, err = s.campaigns.Cancel(s.as(s.inst, challengeAt.Add(2*time.Hour)), c.ID)
	s.Require().NoError(err)

	res, err := s.proofs.FinalizeProof(s.as(s.bob, d.Deadline), c.ID)
	s.Require().NoError(err)
	s.Equal(proofmodels.StatusApproved, res.Proof.Status)
	s.True(res.Released.IsZero())

	view, err := s.proofs.GetDispute(context.Background(), d.ID)
	s.Require().NoError(err)
	s.Equal(proofmodels.OutcomeApproved, view.Outcome)

	reward, err := s.proofs.ClaimVotingReward(s.as(s.voterApprove, d.Deadline.Add(time.Hour)), d.ID)
	s.Require().NoError(err)
	s.Equal("1000", reward.Amount.String())

	refund, err := s.escrow.ClaimRefund(s.as(s.alice, d.Deadline.Add(time.Hour)), c.ID)
	s.Require().NoError(err)
	s.Equal("6", refund.Amount.String())

	final, err := s.campaigns.Get(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(campaignmodels.StatusCancelled, final.Status)
	s.Empty(s.payouts(events.PayoutEscrowRelease))
}

func (s *ScenarioSuite) TestStatsAggregateAcrossModules() {
	s.registerVerified()
	start := s.t0.Add(2 * time.Hour)
	first := s.createCampaign(start)
	second := s.createCampaign(start)

	_, err := s.campaigns.Donate(s.as(s.alice, start.Add(time.Hour)), first.ID, domain.NewAmount(4))
	s.Require().NoError(err)
	_, err = s.campaigns.Donate(s.as(s.bob, start.Add(time.Hour)), second.ID, domain.NewAmount(9))
	s.Require().NoError(err)

	stats, err := s.stats.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(1, stats.TotalInstitutions)
	s.Equal(1, stats.VerifiedInstitutions)
	s.Equal(2, stats.Campaigns)
	s.Equal("13", stats.TotalRaised.String())
}
