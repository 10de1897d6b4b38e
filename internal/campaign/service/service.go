package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"pulseaid/internal/campaign/metrics"
	"pulseaid/internal/campaign/models"
	"pulseaid/internal/platform/tracing"
	proofmodels "pulseaid/internal/proof/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	"pulseaid/pkg/platform/sentinel"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks InstitutionGate,Vault,ProofReader

type Store interface {
	Create(ctx context.Context, c *models.Campaign) (domain.CampaignID, error)
	FindByID(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	Save(ctx context.Context, c *models.Campaign) error
	List(ctx context.Context, filter models.Filter) ([]*models.Campaign, error)
	Count(ctx context.Context) (int, error)
	TotalRaised(ctx context.Context) (domain.Amount, error)
}

// InstitutionGate answers whether an address may create campaigns.
type InstitutionGate interface {
	CanCreateCampaign(ctx context.Context, addr common.Address) (bool, error)
}

// Vault is the escrow side of the campaign lifecycle.
type Vault interface {
	OpenAccount(ctx context.Context, id domain.CampaignID, beneficiary common.Address, collateral domain.Amount) error
	Deposit(ctx context.Context, id domain.CampaignID, donor common.Address, amount domain.Amount) (firstFromDonor bool, err error)
	MarkCancelled(ctx context.Context, id domain.CampaignID, forfeitCollateral bool) error
}

// ProofReader returns the live proof for a campaign, or sentinel.ErrNotFound.
type ProofReader interface {
	FindByCampaign(ctx context.Context, id domain.CampaignID) (*proofmodels.Proof, error)
}

type LedgerPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

type Config struct {
	Collateral  domain.Amount
	MaxDuration time.Duration
}

// Service is the campaign ledger. Money movements are delegated to the Vault.
type Service struct {
	store   Store
	gate    InstitutionGate
	vault   Vault
	proofs  ProofReader
	tx      tx.Runner
	ledger  LedgerPublisher
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
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

// WithProofReader is wired after the proof store exists.
func WithProofReader(p ProofReader) Option {
	return func(s *Service) {
		s.proofs = p
	}
}

func New(store Store, gate InstitutionGate, vault Vault, runner tx.Runner, ledger LedgerPublisher, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("campaign store is required")
	}
	if gate == nil {
		return nil, errors.New("institution gate is required")
	}
	if vault == nil {
		return nil, errors.New("vault is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger publisher is required")
	}
	s := &Service{
		store:  store,
		gate:   gate,
		vault:  vault,
		tx:     runner,
		ledger: ledger,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func entityKey(id domain.CampaignID) string {
	return "campaign:" + id.String()
}

// Create opens a campaign for the calling institution and locks its collateral in escrow.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (c *models.Campaign, err error) {
	ctx, span := tracing.Start(ctx, "campaign.Create")
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	req.Normalize()
	if err := req.Validate(s.cfg.MaxDuration); err != nil {
		return nil, err
	}
	if req.Collateral.LessThan(s.cfg.Collateral) {
		return nil, dErrors.New(dErrors.CodeCollateralRequired, "campaign collateral is below the required amount").
			With("collateral", req.Collateral).
			With("required", s.cfg.Collateral)
	}

	// Keyed on the institution so creation serialises with stake withdrawal.
	err = s.tx.RunInTx(tx.WithEntity(ctx, "institution:"+caller.Hex()), func(ctx context.Context) error {
		ok, err := s.gate.CanCreateCampaign(ctx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check institution")
		}
		if !ok {
			return dErrors.New(dErrors.CodeUnauthorizedInstitution, "only verified institutions may create campaigns").
				With("institution", caller.Hex())
		}

		now := requestcontext.Now(ctx)
		campaign := &models.Campaign{
			Institution:       caller,
			Title:             req.Title,
			Description:       req.Description,
			Category:          req.Category,
			ProofRequirements: req.ProofRequirements,
			Goal:              req.Goal,
			Collateral:        req.Collateral,
			Deadline:          now.Add(req.Duration()),
			Status:            models.StatusActive,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		id, err := s.store.Create(ctx, campaign)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
		}
		if err := s.vault.OpenAccount(ctx, id, caller, req.Collateral); err != nil {
			return err
		}
		if err := s.emit(ctx, events.CampaignCreated, id, map[string]string{
			"institution": caller.Hex(),
			"goal":        req.Goal.String(),
			"deadline":    campaign.Deadline.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
		c = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(events.CampaignCreated),
		"campaign_id", c.ID,
		"institution", caller.Hex(),
		"goal", c.Goal.String(),
	)
	if s.metrics != nil {
		s.metrics.CampaignsCreated.Inc()
	}
	return c, nil
}

// Donate deposits amount from the caller into the campaign's escrow.
func (s *Service) Donate(ctx context.Context, id domain.CampaignID, amount domain.Amount) (c *models.Campaign, err error) {
	ctx, span := tracing.Start(ctx, "campaign.Donate", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	donor := requestcontext.Caller(ctx)
	if donor == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "donation must be greater than zero")
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		campaign, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if err := campaign.CanDonate(now); err != nil {
			return err
		}
		first, err := s.vault.Deposit(ctx, id, donor, amount)
		if err != nil {
			return err
		}
		before := campaign.Status
		campaign.ApplyDonation(amount, first, now)
		if err := s.store.Save(ctx, campaign); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
		}
		attrs := map[string]string{
			"donor":  donor.Hex(),
			"amount": amount.String(),
			"raised": campaign.Raised.String(),
		}
		if before != campaign.Status {
			attrs["status"] = string(campaign.Status)
		}
		if err := s.emit(ctx, events.DonationReceived, id, attrs); err != nil {
			return err
		}
		c = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(events.DonationReceived),
		"campaign_id", id,
		"donor", donor.Hex(),
		"amount", amount.String(),
	)
	if s.metrics != nil {
		s.metrics.ObserveDonation(amount)
	}
	return c, nil
}

// End closes fundraising once the deadline has passed. Anyone may call it.
func (s *Service) End(ctx context.Context, id domain.CampaignID) (c *models.Campaign, err error) {
	ctx, span := tracing.Start(ctx, "campaign.End", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		campaign, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if err := campaign.CanEnd(now); err != nil {
			return err
		}
		campaign.ApplyEnd(now)
		if err := s.store.Save(ctx, campaign); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
		}
		if err := s.emit(ctx, events.CampaignEnded, id, map[string]string{"raised": campaign.Raised.String()}); err != nil {
			return err
		}
		c = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.CampaignEnded), "campaign_id", id)
	s.countClosed(models.StatusEnded)
	return c, nil
}

// Cancel moves the campaign to Cancelled and opens refunds. Only the owning institution
// or governance may cancel. Collateral is forfeited when governance cancels or when the
// campaign's proof was rejected.
func (s *Service) Cancel(ctx context.Context, id domain.CampaignID) (c *models.Campaign, err error) {
	ctx, span := tracing.Start(ctx, "campaign.Cancel", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	caller := requestcontext.Caller(ctx)
	governance := requestcontext.IsGovernance(ctx)
	if caller == (common.Address{}) && !governance {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		campaign, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if !governance && campaign.Institution != caller {
			return dErrors.New(dErrors.CodeForbidden, "only the campaign's institution may cancel it").
				With("campaign_id", id).
				With("caller", caller.Hex())
		}
		approved, rejected, err := s.proofOutcome(ctx, id)
		if err != nil {
			return err
		}
		if err := campaign.CanCancel(approved); err != nil {
			return err
		}
		forfeit := governance || rejected
		if err := s.vault.MarkCancelled(ctx, id, forfeit); err != nil {
			return err
		}
		campaign.ApplyCancel(requestcontext.Now(ctx))
		if err := s.store.Save(ctx, campaign); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
		}
		by := "institution"
		if governance {
			by = "governance"
		}
		if err := s.emit(ctx, events.CampaignCancelled, id, map[string]string{
			"cancelled_by":         by,
			"collateral_forfeited": boolString(forfeit),
		}); err != nil {
			return err
		}
		c = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(events.CampaignCancelled), "campaign_id", id, "governance", governance)
	s.countClosed(models.StatusCancelled)
	return c, nil
}

// Complete marks an Ended campaign Completed after its proof was approved. It is called by
// the proof validator inside the same transition as the escrow release.
func (s *Service) Complete(ctx context.Context, id domain.CampaignID) error {
	err := s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		campaign, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if err := campaign.CanComplete(); err != nil {
			return err
		}
		campaign.ApplyComplete(requestcontext.Now(ctx))
		if err := s.store.Save(ctx, campaign); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
		}
		return s.emit(ctx, events.CampaignCompleted, id, map[string]string{"raised": campaign.Raised.String()})
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.CampaignCompleted), "campaign_id", id)
	s.countClosed(models.StatusCompleted)
	return nil
}

func (s *Service) Get(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	return s.find(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Campaign, error) {
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return list, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count campaigns")
	}
	return n, nil
}

// TotalRaised sums Raised over every campaign.
func (s *Service) TotalRaised(ctx context.Context) (domain.Amount, error) {
	total, err := s.store.TotalRaised(ctx)
	if err != nil {
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum raised")
	}
	return total, nil
}

func (s *Service) proofOutcome(ctx context.Context, id domain.CampaignID) (approved, rejected bool, err error) {
	if s.proofs == nil {
		return false, false, nil
	}
	proof, err := s.proofs.FindByCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, false, nil
		}
		return false, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proof")
	}
	return proof.Status == proofmodels.StatusApproved, proof.Status == proofmodels.StatusRejected, nil
}

func (s *Service) find(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found").With("campaign_id", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	return c, nil
}

func (s *Service) emit(ctx context.Context, t events.Type, id domain.CampaignID, attrs map[string]string) error {
	err := s.ledger.Emit(ctx, events.Event{
		Type:          t,
		AggregateType: events.AggregateCampaign,
		AggregateID:   id.String(),
		Attributes:    attrs,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ledger event")
	}
	return nil
}

func (s *Service) countClosed(status models.Status) {
	if s.metrics != nil {
		s.metrics.CampaignsClosed.WithLabelValues(string(status)).Inc()
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
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
