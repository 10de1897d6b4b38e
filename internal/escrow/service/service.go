package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"pulseaid/internal/escrow/metrics"
	"pulseaid/internal/escrow/models"
	"pulseaid/internal/platform/tracing"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	"pulseaid/pkg/platform/sentinel"
	"pulseaid/pkg/platform/tx"
	"pulseaid/pkg/requestcontext"
)

type Store interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	FindAccount(ctx context.Context, id domain.CampaignID) (*models.Account, error)
	SaveAccount(ctx context.Context, a *models.Account) error
	FindDonation(ctx context.Context, id domain.CampaignID, donor common.Address) (*models.Donation, error)
	SaveDonation(ctx context.Context, d *models.Donation) error
	ListDonations(ctx context.Context, id domain.CampaignID) ([]*models.Donation, error)
}

type LedgerPublisher interface {
	Pay(ctx context.Context, aggregateType, aggregateID string, recipient common.Address, amount domain.Amount, reason events.PayoutReason) error
}

type Config struct {
	// Treasury receives forfeited collateral.
	Treasury common.Address
}

// Service is the escrow vault. Every outflow goes through checkOutflow and is recorded
// as a payout event in the same transition.
type Service struct {
	store   Store
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

func New(store Store, runner tx.Runner, ledger LedgerPublisher, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("escrow store is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger publisher is required")
	}
	s := &Service{
		store:  store,
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

// OpenAccount creates the campaign's escrow account holding its collateral.
func (s *Service) OpenAccount(ctx context.Context, id domain.CampaignID, beneficiary common.Address, collateral domain.Amount) error {
	return s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		err := s.store.CreateAccount(ctx, &models.Account{
			CampaignID:  id,
			Beneficiary: beneficiary,
			Collateral:  collateral,
			UpdatedAt:   requestcontext.Now(ctx),
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "escrow account already exists").With("campaign_id", id)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to open escrow account")
		}
		return nil
	})
}

// Deposit credits amount to the donor's position and the account. It reports whether
// this is the donor's first deposit to the campaign.
func (s *Service) Deposit(ctx context.Context, id domain.CampaignID, donor common.Address, amount domain.Amount) (first bool, err error) {
	if !amount.IsPositive() {
		return false, dErrors.New(dErrors.CodeInvalidAmount, "deposit must be greater than zero")
	}
	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		account, err := s.findAccount(ctx, id)
		if err != nil {
			return err
		}
		if account.Cancelled {
			return dErrors.New(dErrors.CodeCampaignCancelled, "campaign was cancelled").With("campaign_id", id)
		}
		donation, err := s.store.FindDonation(ctx, id, donor)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			first = true
			donation = &models.Donation{CampaignID: id, Donor: donor}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
		}
		now := requestcontext.Now(ctx)
		donation.Deposited = donation.Deposited.Add(amount)
		donation.UpdatedAt = now
		account.Deposited = account.Deposited.Add(amount)
		account.UpdatedAt = now

		if err := s.store.SaveDonation(ctx, donation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save donation")
		}
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow account")
		}
		return nil
	})
	return first, err
}

// MarkCancelled opens refunds and settles the collateral: forfeited to the treasury or
// returned to the beneficiary.
func (s *Service) MarkCancelled(ctx context.Context, id domain.CampaignID, forfeitCollateral bool) error {
	return s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		account, err := s.findAccount(ctx, id)
		if err != nil {
			return err
		}
		if account.ReleasedAt != nil {
			return dErrors.New(dErrors.CodeAlreadyReleased, "escrow already released").With("campaign_id", id)
		}
		now := requestcontext.Now(ctx)
		account.Cancelled = true
		collateral := account.SettleCollateral(now)
		account.UpdatedAt = now
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow account")
		}

		recipient, reason, outcome := account.Beneficiary, events.PayoutCollateralReturn, "returned"
		if forfeitCollateral {
			recipient, reason, outcome = s.cfg.Treasury, events.PayoutCollateralForfeit, "forfeited"
		}
		if err := s.pay(ctx, id, recipient, collateral, reason); err != nil {
			return err
		}
		if s.metrics != nil && collateral.IsPositive() {
			s.metrics.CollateralSettled.WithLabelValues(outcome).Inc()
		}
		return nil
	})
}

// Release pays the full balance to the beneficiary and returns the collateral. It is
// only reachable from proof finalization.
func (s *Service) Release(ctx context.Context, id domain.CampaignID) (paid domain.Amount, err error) {
	ctx, span := tracing.Start(ctx, "escrow.Release", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		account, err := s.findAccount(ctx, id)
		if err != nil {
			return err
		}
		if err := account.CanRelease(); err != nil {
			return err
		}
		if err := s.checkOutflow(account, account.Balance()); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		paid = account.ApplyRelease(now)
		collateral := account.SettleCollateral(now)
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow account")
		}
		if err := s.pay(ctx, id, account.Beneficiary, paid, events.PayoutEscrowRelease); err != nil {
			return err
		}
		return s.pay(ctx, id, account.Beneficiary, collateral, events.PayoutCollateralReturn)
	})
	if err != nil {
		return domain.Amount{}, err
	}
	s.logAudit(ctx, "escrow_released", "campaign_id", id, "amount", paid.String())
	if s.metrics != nil {
		s.metrics.Releases.Inc()
	}
	return paid, nil
}

// ClaimRefund pays the caller what they deposited minus what they were already refunded.
func (s *Service) ClaimRefund(ctx context.Context, id domain.CampaignID) (result *models.RefundResult, err error) {
	ctx, span := tracing.Start(ctx, "escrow.ClaimRefund", attribute.String("campaign_id", id.String()))
	defer func() { tracing.End(span, err) }()

	donor := requestcontext.Caller(ctx)
	if donor == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wallet session required")
	}

	err = s.tx.RunInTx(tx.WithEntity(ctx, entityKey(id)), func(ctx context.Context) error {
		account, err := s.findAccount(ctx, id)
		if err != nil {
			return err
		}
		if !account.Cancelled {
			return dErrors.New(dErrors.CodeNotCancelled, "refunds open only after cancellation").With("campaign_id", id)
		}
		donation, err := s.store.FindDonation(ctx, id, donor)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
		}
		if donation == nil || !donation.Refundable().IsPositive() {
			return dErrors.New(dErrors.CodeNothingToRefund, "nothing left to refund").
				With("campaign_id", id).
				With("donor", donor.Hex())
		}
		amount := donation.Refundable()
		if err := s.checkOutflow(account, amount); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		donation.Refunded = donation.Refunded.Add(amount)
		donation.UpdatedAt = now
		account.ApplyRefund(amount, now)
		if err := s.store.SaveDonation(ctx, donation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save donation")
		}
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow account")
		}
		if err := s.pay(ctx, id, donor, amount, events.PayoutDonorRefund); err != nil {
			return err
		}
		result = &models.RefundResult{CampaignID: id, Donor: donor, Amount: amount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "refund_paid", "campaign_id", id, "donor", donor.Hex(), "amount", result.Amount.String())
	if s.metrics != nil {
		s.metrics.Refunds.Inc()
	}
	return result, nil
}

// Balance returns the account with its current balance.
func (s *Service) Balance(ctx context.Context, id domain.CampaignID) (*models.Balance, error) {
	account, err := s.findAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Balance{Account: account, Balance: account.Balance()}, nil
}

// Donation returns one donor's position.
func (s *Service) Donation(ctx context.Context, id domain.CampaignID, donor common.Address) (*models.Donation, error) {
	d, err := s.store.FindDonation(ctx, id, donor)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found").
				With("campaign_id", id).
				With("donor", donor.Hex())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	return d, nil
}

func (s *Service) checkOutflow(account *models.Account, amount domain.Amount) error {
	if err := account.CheckOutflow(amount); err != nil {
		s.logger.Error("escrow outflow invariant violated",
			"campaign_id", account.CampaignID,
			"deposited", account.Deposited.String(),
			"refunded", account.Refunded.String(),
			"released", account.Released.String(),
			"amount", amount.String(),
		)
		if s.metrics != nil {
			s.metrics.OutflowRejected.Inc()
		}
		return err
	}
	return nil
}

func (s *Service) pay(ctx context.Context, id domain.CampaignID, recipient common.Address, amount domain.Amount, reason events.PayoutReason) error {
	if err := s.ledger.Pay(ctx, events.AggregateCampaign, id.String(), recipient, amount, reason); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payout")
	}
	return nil
}

func (s *Service) findAccount(ctx context.Context, id domain.CampaignID) (*models.Account, error) {
	a, err := s.store.FindAccount(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "escrow account not found").With("campaign_id", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load escrow account")
	}
	return a, nil
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
