// Package fees routes the flat proof storage fee to the treasury.
package fees

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	"pulseaid/pkg/requestcontext"
)

type LedgerPublisher interface {
	Pay(ctx context.Context, aggregateType, aggregateID string, recipient common.Address, amount domain.Amount, reason events.PayoutReason) error
}

// Metrics counts collected fees.
type Metrics struct {
	Collected prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Collected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulseaid_storage_fees_collected_total",
			Help: "Number of proof storage fees paid to the treasury",
		}),
	}
}

// Sink records each fee as a storage_fee payout to the treasury inside the caller's
// transaction, so a rejected submission leaves no fee behind.
type Sink struct {
	ledger   LedgerPublisher
	treasury common.Address
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Sink)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Sink) {
		s.metrics = m
	}
}

func NewSink(ledger LedgerPublisher, treasury common.Address, opts ...Option) (*Sink, error) {
	if ledger == nil {
		return nil, errors.New("ledger publisher is required")
	}
	if treasury == (common.Address{}) {
		return nil, errors.New("treasury address is required")
	}
	s := &Sink{
		ledger:   ledger,
		treasury: treasury,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sink) Collect(ctx context.Context, id domain.CampaignID, payer common.Address, fee domain.Amount) error {
	if !fee.IsPositive() {
		return nil
	}
	if err := s.ledger.Pay(ctx, events.AggregateCampaign, id.String(), s.treasury, fee, events.PayoutStorageFee); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record storage fee")
	}
	s.logger.InfoContext(ctx, "storage fee collected",
		"event", "storage_fee_collected",
		"log_type", "audit",
		"campaign_id", id.String(),
		"payer", payer.Hex(),
		"fee", fee.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.Collected.Inc()
	}
	return nil
}
