package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	campaignmodels "pulseaid/internal/campaign/models"
	"pulseaid/internal/platform/tracing"
	"pulseaid/internal/proof/metrics"
	"pulseaid/internal/proof/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	"pulseaid/pkg/platform/sentinel"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Campaigns,Vault,ReputationOracle,FeeSink,ReputationTracker

type Store interface {
	FindByCampaign(ctx context.Context, id domain.CampaignID) (*models.Proof, error)
	SaveProof(ctx context.Context, p *models.Proof) error
	CreateDispute(ctx context.Context, d *models.Dispute) error
	FindDispute(ctx context.Context, id domain.DisputeID) (*models.Dispute, error)
	SaveDispute(ctx context.Context, d *models.Dispute) error
	CreateVote(ctx context.Context, v *models.Vote) error
	FindVote(ctx context.Context, id domain.DisputeID, voter common.Address) (*models.Vote, error)
	SaveVote(ctx context.Context, v *models.Vote) error
	ListVotes(ctx context.Context, id domain.DisputeID) ([]*models.Vote, error)
}

// Campaigns is the part of the campaign ledger the validator reads and completes.
type Campaigns interface {
	Get(ctx context.Context, id domain.CampaignID) (*campaignmodels.Campaign, error)
	Complete(ctx context.Context, id domain.CampaignID) error
}

// Vault releases escrow on an approved proof. The validator is its only caller.
type Vault interface {
	Release(ctx context.Context, id domain.CampaignID) (domain.Amount, error)
}

// ReputationOracle reports an address's voting weight.
type ReputationOracle interface {
	WeightOf(ctx context.Context, addr common.Address) (domain.Weight, error)
}

// FeeSink takes the flat storage fee charged on proof submission.
type FeeSink interface {
	Collect(ctx context.Context, id domain.CampaignID, payer common.Address, fee domain.Amount) error
}

// ReputationTracker moves an institution's reputation score after a proof settles.
type ReputationTracker interface {
	AdjustReputation(ctx context.Context, addr common.Address, delta int64) error
}

type LedgerPublisher interface {
	Emit(ctx context.Context, event events.Event) error
	Pay(ctx context.Context, aggregateType, aggregateID string, recipient common.Address, amount domain.Amount, reason events.PayoutReason) error
}

type Config struct {
	ChallengePeriod    time.Duration
	DisputePeriod      time.Duration
	ChallengeThreshold domain.Weight
	StorageFee         domain.Amount
	// RewardPool is snapshotted onto each dispute when it opens.
	RewardPool domain.Amount
}

// Service is the proof validator: submission, challenge, dispute voting and finalization.
type Service struct {
	store      Store
	campaigns  Campaigns
	vault      Vault
	oracle     ReputationOracle
	fees       FeeSink
	reputation ReputationTracker
	tx         tx.Runner
	ledger     LedgerPublisher
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithReputationTracker(r ReputationTracker) Option {
	return func(s *Service) {
		s.reputation = r
	}
}

func New(
	store Store,
	campaigns Campaigns,
	vault Vault,
	oracle ReputationOracle,
	fees FeeSink,
	runner tx.Runner,
	ledger LedgerPublisher,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("proof store is required")
	}
	if campaigns == nil {
		return nil, errors.New("campaign ledger is required")
	}
	if vault == nil {
		return nil, errors.New("vault is required")
	}
	if oracle == nil {
		return nil, errors.New("reputation oracle is required")
	}
	if fees == nil {
		return nil, errors.New("fee sink is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger publisher is required")
	}
	s := &Service{
		store:     store,
		campaigns: campaigns,
		vault:     vault,
		oracle:    oracle,
		fees:      fees,
		tx:        runner,
		ledger:    ledger,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Disputes lock on their campaign so votes never interleave with finalization.
func entityKey(id domain.CampaignID) string {
	return "campaign:" + id.String()
}

// SubmitProof records the institution's proof for an Ended campaign and opens the
// challenge window. A Rejected proof may be replaced while the campaign is still Ended.
func (s *Service) SubmitProof(ctx context.Context, id domain.CampaignID, req *models.SubmitRequest) (p *models.Proof, err error) {
	ctx, span := tracing.Start(ctx, "proof.Submit", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	evidence, err := req.ParseEvidence()
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		campaign, err := s.campaigns.Get(ctx, id)
		if err != nil {
			return err
		}
		if campaign.Status != campaignmodels.StatusEnded {
			return dErrors.New(dErrors.CodeCampaignNotEnded, "proof can only be submitted for an ended campaign").
				With("campaign_id", id).
				With("status", campaign.Status)
		}
		if campaign.Institution != caller {
			return dErrors.New(dErrors.CodeUnauthorizedInstitution, "only the campaign's institution may submit proof").
				With("campaign_id", id).
				With("caller", caller.Hex())
		}
		existing, err := s.findProofIfAny(ctx, id)
		if err != nil {
			return err
		}
		if err := existing.CanReplace(); err != nil {
			return err
		}
		if req.Fee.LessThan(s.cfg.StorageFee) {
			return dErrors.New(dErrors.CodeInsufficientFee, "storage fee not covered").
				With("campaign_id", id).
				With("required", s.cfg.StorageFee.String())
		}
		if err := s.fees.Collect(ctx, id, caller, req.Fee); err != nil {
			return err
		}

		proof := existing
		if proof == nil {
			proof = &models.Proof{CampaignID: id}
		}
		proof.Submit(caller, evidence, req.Fee, s.cfg.ChallengePeriod, requestcontext.Now(ctx))
		if err := s.store.SaveProof(ctx, proof); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save proof")
		}
		if err := s.emit(ctx, events.ProofSubmitted, events.AggregateCampaign, id.String(), map[string]string{
			"attempt":      strconv.Itoa(proof.Attempt),
			"evidence_ref": proof.Evidence.Ref.String(),
			"window_end":   proof.ChallengeWindowEnd.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
		p = proof
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.ProofSubmitted), "campaign_id", id, "attempt", p.Attempt)
	if s.metrics != nil {
		s.metrics.ProofsSubmitted.Inc()
	}
	return p, nil
}

// ChallengeProof opens a dispute against an AutoValidated proof inside its window. The
// caller's oracle weight must reach the challenge threshold.
func (s *Service) ChallengeProof(ctx context.Context, id domain.CampaignID, req *models.ChallengeRequest) (d *models.Dispute, err error) {
	ctx, span := tracing.Start(ctx, "proof.Challenge", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	if req == nil || strings.TrimSpace(req.Reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "challenge reason is required")
	}
	reason := strings.TrimSpace(req.Reason)

	var submittedAt time.Time
	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		proof, err := s.findProof(ctx, id)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if err := proof.CanChallenge(now); err != nil {
			return err
		}
		weight, err := s.weightOf(ctx, caller)
		if err != nil {
			return err
		}
		if weight < s.cfg.ChallengeThreshold {
			return dErrors.New(dErrors.CodeInsufficientWeight, "voting weight below the challenge threshold").
				With("campaign_id", id).
				With("weight", uint64(weight)).
				With("threshold", uint64(s.cfg.ChallengeThreshold))
		}

		dispute := &models.Dispute{
			ID:               domain.NewDisputeID(),
			CampaignID:       id,
			Challenger:       caller,
			ChallengerWeight: weight,
			Reason:           reason,
			RewardPool:       s.cfg.RewardPool,
			CreatedAt:        now,
			Deadline:         now.Add(s.cfg.DisputePeriod),
		}
		if err := s.store.CreateDispute(ctx, dispute); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to open dispute")
		}
		proof.ApplyChallenge(dispute.ID)
		if err := s.store.SaveProof(ctx, proof); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save proof")
		}
		if err := s.emit(ctx, events.ProofChallenged, events.AggregateCampaign, id.String(), map[string]string{
			"dispute_id": dispute.ID.String(),
			"challenger": caller.Hex(),
			"deadline":   dispute.Deadline.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
		submittedAt = proof.SubmittedAt
		d = dispute
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.ProofChallenged), "campaign_id", id, "dispute_id", d.ID, "challenger", caller.Hex())
	if s.metrics != nil {
		s.metrics.ProofsChallenged.Inc()
		s.metrics.ChallengeWindow.Observe(d.CreatedAt.Sub(submittedAt).Seconds())
	}
	return d, nil
}

// VoteOnDispute adds the caller's oracle weight to one side of an open dispute.
func (s *Service) VoteOnDispute(ctx context.Context, disputeID domain.DisputeID, approve bool) (v *models.Vote, err error) {
	ctx, span := tracing.Start(ctx, "proof.Vote", attribute.String("dispute_id", disputeID.String()))
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	located, err := s.findDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(located.CampaignID)), func(ctx context.Context) error {
		dispute, err := s.findDispute(ctx, disputeID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if err := dispute.CanVote(now); err != nil {
			return err
		}
		if _, err := s.store.FindVote(ctx, disputeID, caller); err == nil {
			return alreadyVoted(disputeID, caller)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vote")
		}
		weight, err := s.weightOf(ctx, caller)
		if err != nil {
			return err
		}
		if weight == 0 {
			return dErrors.New(dErrors.CodeInsufficientWeight, "caller has no voting weight").
				With("dispute_id", disputeID)
		}

		if err := dispute.ApplyVote(approve, weight); err != nil {
			return err
		}
		vote := &models.Vote{
			DisputeID: disputeID,
			Voter:     caller,
			Approve:   approve,
			Weight:    weight,
			CastAt:    now,
		}
		if err := s.store.CreateVote(ctx, vote); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return alreadyVoted(disputeID, caller)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
		}
		if err := s.store.SaveDispute(ctx, dispute); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save dispute")
		}
		if err := s.emit(ctx, events.DisputeVoteCast, events.AggregateDispute, disputeID.String(), map[string]string{
			"voter":   caller.Hex(),
			"approve": strconv.FormatBool(approve),
			"weight":  strconv.FormatUint(uint64(weight), 10),
		}); err != nil {
			return err
		}
		v = vote
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.DisputeVoteCast), "dispute_id", disputeID, "voter", caller.Hex(), "approve", approve)
	if s.metrics != nil {
		side := "reject"
		if approve {
			side = "approve"
		}
		s.metrics.VotesCast.WithLabelValues(side).Inc()
	}
	return v, nil
}

// FinalizeProof settles the campaign's proof once its window or dispute deadline has
// passed. Approval releases escrow and completes the campaign in the same transition.
func (s *Service) FinalizeProof(ctx context.Context, id domain.CampaignID) (res *models.FinalizeResult, err error) {
	ctx, span := tracing.Start(ctx, "proof.Finalize", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	var path string
	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		proof, err := s.findProof(ctx, id)
		if err != nil {
			return err
		}
		if err := proof.CheckNotFinal(); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)

		var (
			approved bool
			dispute  *models.Dispute
		)
		switch proof.Status {
		case models.StatusAutoValidated:
			if err := proof.CanFinalizeUnchallenged(now); err != nil {
				return err
			}
			approved, path = true, "window"
		case models.StatusChallenged:
			if proof.DisputeID == nil {
				return dErrors.New(dErrors.CodeInternal, "challenged proof has no dispute").With("campaign_id", id)
			}
			dispute, err = s.findDispute(ctx, *proof.DisputeID)
			if err != nil {
				return err
			}
			if err := dispute.CanResolve(now); err != nil {
				return err
			}
			approved, path = dispute.Resolve(now) == models.OutcomeApproved, "dispute"
		default:
			return dErrors.New(dErrors.CodeConflict, "proof is not awaiting finalization").
				With("campaign_id", id).
				With("status", proof.Status)
		}

		var released domain.Amount
		if approved {
			campaign, err := s.campaigns.Get(ctx, id)
			if err != nil {
				return err
			}
			// a cancelled campaign keeps its escrow for refunds; the outcome is still recorded
			if campaign.Status == campaignmodels.StatusCancelled {
				path += "_after_cancel"
			} else {
				released, err = s.vault.Release(ctx, id)
				if err != nil {
					return err
				}
				if err := s.campaigns.Complete(ctx, id); err != nil {
					return err
				}
			}
		}
		proof.ApplyOutcome(approved, now)
		if err := s.store.SaveProof(ctx, proof); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save proof")
		}
		if dispute != nil {
			if err := s.store.SaveDispute(ctx, dispute); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save dispute")
			}
		}
		if s.reputation != nil {
			delta := int64(-1)
			if approved {
				delta = 1
			}
			if err := s.reputation.AdjustReputation(ctx, proof.Submitter, delta); err != nil {
				return err
			}
		}
		if err := s.emit(ctx, events.ProofFinalized, events.AggregateCampaign, id.String(), map[string]string{
			"status":   string(proof.Status),
			"path":     path,
			"released": released.String(),
		}); err != nil {
			return err
		}
		res = &models.FinalizeResult{Proof: proof, Released: released}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.ProofFinalized),
		"campaign_id", id,
		"status", res.Proof.Status,
		"released", res.Released.String(),
	)
	if s.metrics != nil {
		s.metrics.ProofsFinalized.WithLabelValues(string(res.Proof.Status), path).Inc()
	}
	return res, nil
}

// ClaimVotingReward pays the caller's share of the dispute's reward pool.
func (s *Service) ClaimVotingReward(ctx context.Context, disputeID domain.DisputeID) (res *models.RewardResult, err error) {
	ctx, span := tracing.Start(ctx, "proof.ClaimReward", attribute.String("dispute_id", disputeID.String()))
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	located, err := s.findDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(located.CampaignID)), func(ctx context.Context) error {
		dispute, err := s.findDispute(ctx, disputeID)
		if err != nil {
			return err
		}
		vote, err := s.store.FindVote(ctx, disputeID, caller)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vote")
		}
		if err := vote.CanClaim(dispute); err != nil {
			return err
		}
		reward := dispute.RewardFor(vote)
		vote.ApplyClaim(reward, requestcontext.Now(ctx))
		if err := s.store.SaveVote(ctx, vote); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vote")
		}
		if err := s.ledger.Pay(ctx, events.AggregateDispute, disputeID.String(), caller, reward, events.PayoutVotingReward); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payout")
		}
		res = &models.RewardResult{DisputeID: disputeID, Voter: caller, Amount: reward}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "voting_reward_claimed", "dispute_id", disputeID, "voter", caller.Hex(), "amount", res.Amount.String())
	if s.metrics != nil {
		s.metrics.RewardsClaimed.Inc()
	}
	return res, nil
}

func (s *Service) GetProof(ctx context.Context, id domain.CampaignID) (*models.Proof, error) {
	return s.findProof(ctx, id)
}

// GetDispute returns the dispute with its ballots.
func (s *Service) GetDispute(ctx context.Context, id domain.DisputeID) (*models.DisputeView, error) {
	d, err := s.findDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
	}
	return &models.DisputeView{Dispute: d, Votes: votes}, nil
}

func (s *Service) weightOf(ctx context.Context, addr common.Address) (domain.Weight, error) {
	w, err := s.oracle.WeightOf(ctx, addr)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "reputation oracle unavailable")
	}
	return w, nil
}

func alreadyVoted(id domain.DisputeID, voter common.Address) error {
	return dErrors.New(dErrors.CodeAlreadyVoted, "caller already voted on this dispute").
		With("dispute_id", id).
		With("voter", voter.Hex())
}

// findProofIfAny returns nil when the campaign has no proof yet.
func (s *Service) findProofIfAny(ctx context.Context, id domain.CampaignID) (*models.Proof, error) {
	p, err := s.store.FindByCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proof")
	}
	return p, nil
}

func (s *Service) findProof(ctx context.Context, id domain.CampaignID) (*models.Proof, error) {
	p, err := s.findProofIfAny(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "campaign has no proof").With("campaign_id", id)
	}
	return p, nil
}

func (s *Service) findDispute(ctx context.Context, id domain.DisputeID) (*models.Dispute, error) {
	d, err := s.store.FindDispute(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "dispute not found").With("dispute_id", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dispute")
	}
	return d, nil
}

func (s *Service) emit(ctx context.Context, t events.Type, aggType, aggID string, attrs map[string]string) error {
	err := s.ledger.Emit(ctx, events.Event{
		Type:          t,
		AggregateType: aggType,
		AggregateID:   aggID,
		Attributes:    attrs,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ledger event")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}
