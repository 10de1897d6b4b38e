package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"pulseaid/internal/institution/metrics"
	"pulseaid/internal/institution/models"
	"pulseaid/internal/platform/tracing"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	"pulseaid/pkg/platform/sentinel"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks IdentityAttestor,CampaignDirectory

type Store interface {
	FindByAddress(ctx context.Context, addr common.Address) (*models.Institution, error)
	Save(ctx context.Context, inst *models.Institution) error
	AdjustReputation(ctx context.Context, addr common.Address, delta int64) error
	List(ctx context.Context, state models.State) ([]*models.Institution, error)
	Count(ctx context.Context) (total, verified int, err error)
}

// IdentityAttestor verifies registration claims. An error means the attestor could not
// answer; a Verdict with Accepted=false is a definitive rejection.
type IdentityAttestor interface {
	Verify(ctx context.Context, claim models.Claim) (models.Verdict, error)
}

// CampaignDirectory answers campaign questions about an institution.
type CampaignDirectory interface {
	CountActiveByInstitution(ctx context.Context, addr common.Address) (int, error)
	SummaryByInstitution(ctx context.Context, addr common.Address) (count int, raised domain.Amount, err error)
}

type LedgerPublisher interface {
	Emit(ctx context.Context, event events.Event) error
	Pay(ctx context.Context, aggregateType, aggregateID string, recipient common.Address, amount domain.Amount, reason events.PayoutReason) error
}

// Config holds the registry parameters.
type Config struct {
	MinStake          domain.Amount
	VerificationDelay time.Duration
	Treasury          common.Address
}

// Service is the institution registry.
type Service struct {
	store     Store
	attestor  IdentityAttestor
	campaigns CampaignDirectory
	tx        tx.Runner
	ledger    LedgerPublisher
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func WithCampaignDirectory(d CampaignDirectory) Option {
	return func(s *Service) {
		s.campaigns = d
	}
}

func New(store Store, attestor IdentityAttestor, runner tx.Runner, ledger LedgerPublisher, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("institution store is required")
	}
	if attestor == nil {
		return nil, errors.New("identity attestor is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger publisher is required")
	}
	s := &Service{
		store:    store,
		attestor: attestor,
		tx:       runner,
		ledger:   ledger,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func entityKey(addr common.Address) string {
	return "institution:" + addr.Hex()
}

// Register creates (or re-opens) a PendingVerification institution for the caller with
// its stake locked, and records the attestor's verdict on the claim.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (inst *models.Institution, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "institution.Register")
	defer func() { tracing.End(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveRegister(start)
	}

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	span.SetAttributes(attribute.String("institution", caller.Hex()))

	req.Profile.Normalize()
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	if len(req.Claim.Signature) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "claim signature is required")
	}
	if req.Stake.LessThan(s.cfg.MinStake) {
		return nil, dErrors.New(dErrors.CodeInsufficientStake, "stake is below the registration minimum").
			With("address", caller.Hex()).
			With("stake", req.Stake).
			With("minimum", s.cfg.MinStake)
	}

	// Refuse early so the attestor is not called for an address that cannot register.
	existing, err := s.find(ctx, caller)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}
	if err := existing.CanRegister(); err != nil {
		return nil, err
	}

	status, reason := s.attest(ctx, req.Claim)

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(caller)), func(ctx context.Context) error {
		current, err := s.find(ctx, caller)
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		if err := current.CanRegister(); err != nil {
			return err
		}
		if current == nil {
			current = &models.Institution{Address: caller}
		}
		now := requestcontext.Now(ctx)
		current.ApplyRegistration(req.Profile, req.Claim, req.Stake, now)
		current.RecordAttestation(status, reason, now)
		if err := s.store.Save(ctx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save institution")
		}
		if err := s.emit(ctx, events.InstitutionRegistered, caller, map[string]string{
			"stake":       req.Stake.String(),
			"attestation": string(status),
		}); err != nil {
			return err
		}
		inst = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(events.InstitutionRegistered),
		"institution", caller.Hex(),
		"stake", req.Stake.String(),
		"attestation", status,
	)
	if s.metrics != nil {
		s.metrics.Registered.Inc()
	}
	return inst, nil
}

// attest asks the attestor for a verdict. Attestor failures leave the attestation
// pending so finalize can retry.
func (s *Service) attest(ctx context.Context, claim models.Claim) (models.AttestationStatus, string) {
	verdict, err := s.attestor.Verify(ctx, claim)
	if err != nil {
		s.logger.WarnContext(ctx, "attestor unavailable",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.countAttestation("unavailable")
		return models.AttestationPending, err.Error()
	}
	if !verdict.Accepted {
		s.countAttestation("rejected")
		return models.AttestationRejected, verdict.Reason
	}
	s.countAttestation("accepted")
	return models.AttestationAccepted, ""
}

// FinalizeVerification moves a Pending institution to Verified once the attestation is
// accepted and the verification delay has elapsed.
func (s *Service) FinalizeVerification(ctx context.Context, addr common.Address) (inst *models.Institution, err error) {
	ctx, span := tracing.Start(ctx, "institution.FinalizeVerification", attribute.String("institution", addr.Hex()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(addr)), func(ctx context.Context) error {
		current, err := s.find(ctx, addr)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if current.State == models.StatePendingVerification && current.Attestation == models.AttestationPending && current.Claim != nil {
			// the retried verdict is persisted only together with the verification
			status, reason := s.attest(ctx, *current.Claim)
			current.RecordAttestation(status, reason, now)
		}
		if err := current.CanFinalize(s.cfg.VerificationDelay, now); err != nil {
			return err
		}
		current.ApplyVerification(now)
		if err := s.store.Save(ctx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save institution")
		}
		if err := s.emit(ctx, events.InstitutionVerified, addr, nil); err != nil {
			return err
		}
		inst = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.InstitutionVerified), "institution", addr.Hex())
	if s.metrics != nil {
		s.metrics.Verified.Inc()
	}
	return inst, nil
}

// CanCreateCampaign reports whether addr is Verified.
func (s *Service) CanCreateCampaign(ctx context.Context, addr common.Address) (bool, error) {
	inst, err := s.find(ctx, addr)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return inst.IsVerified(), nil
}

// WithdrawStake returns the caller's stake once none of its campaigns is still live.
// A slashed institution withdraws zero and becomes Unverified, which lets it register again.
func (s *Service) WithdrawStake(ctx context.Context) (paid domain.Amount, err error) {
	ctx, span := tracing.Start(ctx, "institution.WithdrawStake")
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return domain.Amount{}, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(caller)), func(ctx context.Context) error {
		current, err := s.find(ctx, caller)
		if err != nil {
			return err
		}
		if err := current.CanWithdraw(); err != nil {
			return err
		}
		if s.campaigns != nil {
			active, err := s.campaigns.CountActiveByInstitution(ctx, caller)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active campaigns")
			}
			if active > 0 {
				return dErrors.New(dErrors.CodeActiveCampaigns, "institution still has active campaigns").
					With("address", caller.Hex()).
					With("active_campaigns", active)
			}
		}
		paid = current.ApplyWithdrawal(requestcontext.Now(ctx))
		if err := s.store.Save(ctx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save institution")
		}
		if err := s.ledger.Pay(ctx, events.AggregateInstitution, caller.Hex(), caller, paid, events.PayoutStakeReturn); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record stake return")
		}
		return s.emit(ctx, events.StakeWithdrawn, caller, map[string]string{"amount": paid.String()})
	})
	if err != nil {
		return domain.Amount{}, err
	}
	s.logAudit(ctx, string(events.StakeWithdrawn), "institution", caller.Hex(), "amount", paid.String())
	if s.metrics != nil {
		s.metrics.StakeWithdrawn.Inc()
	}
	return paid, nil
}

// Slash is a governance action forfeiting the institution's stake to the treasury.
func (s *Service) Slash(ctx context.Context, addr common.Address, reason string) (inst *models.Institution, err error) {
	ctx, span := tracing.Start(ctx, "institution.Slash", attribute.String("institution", addr.Hex()))
	defer func() { tracing.End(span, err) }()

	if !requestcontext.IsGovernance(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "slashing is a governance action")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(addr)), func(ctx context.Context) error {
		current, err := s.find(ctx, addr)
		if err != nil {
			return err
		}
		if err := current.CanSlash(); err != nil {
			return err
		}
		forfeited := current.ApplySlash(requestcontext.Now(ctx))
		if err := s.store.Save(ctx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save institution")
		}
		if err := s.ledger.Pay(ctx, events.AggregateInstitution, addr.Hex(), s.cfg.Treasury, forfeited, events.PayoutStakeForfeit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record stake forfeit")
		}
		if err := s.emit(ctx, events.InstitutionSlashed, addr, map[string]string{
			"reason":    reason,
			"forfeited": forfeited.String(),
		}); err != nil {
			return err
		}
		inst = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.InstitutionSlashed), "institution", addr.Hex(), "reason", reason)
	if s.metrics != nil {
		s.metrics.Slashed.Inc()
	}
	return inst, nil
}

// AdjustReputation adds delta to the institution's reputation score.
func (s *Service) AdjustReputation(ctx context.Context, addr common.Address, delta int64) error {
	if err := s.store.AdjustReputation(ctx, addr, delta); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "institution not found").With("address", addr.Hex())
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to adjust reputation")
	}
	s.logAudit(ctx, "reputation_adjusted", "institution", addr.Hex(), "delta", delta)
	return nil
}

// Get returns the institution with campaign aggregates.
func (s *Service) Get(ctx context.Context, addr common.Address) (*models.Details, error) {
	inst, err := s.find(ctx, addr)
	if err != nil {
		return nil, err
	}
	details := &models.Details{Institution: inst}
	if s.campaigns != nil {
		count, raised, err := s.campaigns.SummaryByInstitution(ctx, addr)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarise campaigns")
		}
		details.CampaignsCount = count
		details.TotalRaised = raised
	}
	return details, nil
}

// IsVerified is the query form of CanCreateCampaign.
func (s *Service) IsVerified(ctx context.Context, addr common.Address) (bool, error) {
	return s.CanCreateCampaign(ctx, addr)
}

func (s *Service) List(ctx context.Context, state models.State) ([]*models.Institution, error) {
	list, err := s.store.List(ctx, state)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list institutions")
	}
	return list, nil
}

// Count returns the registry totals for the stats read model.
func (s *Service) Count(ctx context.Context) (total, verified int, err error) {
	total, verified, err = s.store.Count(ctx)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count institutions")
	}
	return total, verified, nil
}

func (s *Service) find(ctx context.Context, addr common.Address) (*models.Institution, error) {
	inst, err := s.store.FindByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found").With("address", addr.Hex())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst, nil
}

func (s *Service) emit(ctx context.Context, t events.Type, addr common.Address, attrs map[string]string) error {
	err := s.ledger.Emit(ctx, events.Event{
		Type:          t,
		AggregateType: events.AggregateInstitution,
		AggregateID:   addr.Hex(),
		Attributes:    attrs,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ledger event")
	}
	return nil
}

func (s *Service) countAttestation(outcome string) {
	if s.metrics != nil {
		s.metrics.AttestationResult.WithLabelValues(outcome).Inc()
	}
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
