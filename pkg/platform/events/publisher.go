package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"pulseaid/pkg/domain"
	"pulseaid/pkg/requestcontext"
)

// Publisher emits ledger events with fail-closed semantics: when the append fails the
// calling transition must fail too, otherwise a payout could commit without a record.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps the event with id, time, request id and actor from ctx and appends it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	start := time.Now()

	if event.Type == "" {
		return fmt.Errorf("ledger event requires Type")
	}
	if event.AggregateType == "" || event.AggregateID == "" {
		return fmt.Errorf("ledger event %s requires an aggregate", event.Type)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if caller := requestcontext.Caller(ctx); event.Actor == "" && caller != (common.Address{}) {
		event.Actor = caller.Hex()
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: ledger event append failed",
				"type", event.Type,
				"aggregate_id", event.AggregateID,
				"error", err,
			)
		}
		return fmt.Errorf("ledger event persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.Type)
	}
	return nil
}

// Pay records an outflow. Zero amounts are not recorded.
func (p *Publisher) Pay(ctx context.Context, aggregateType, aggregateID string, recipient common.Address, amount domain.Amount, reason PayoutReason) error {
	if !amount.IsPositive() {
		return nil
	}
	if p.metrics != nil {
		p.metrics.IncPayout(reason)
	}
	return p.Emit(ctx, NewPayout(aggregateType, aggregateID, recipient, amount, reason))
}
