package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink publishes a batch of events downstream (Kafka in production).
type Sink interface {
	Publish(ctx context.Context, batch []Event) error
}

const (
	defaultRelayInterval = time.Second
	defaultRelayBatch    = 100
)

// Relay drains the outbox into a Sink. Delivery is at-least-once: an entry is marked
// published only after the sink acknowledged the whole batch.
type Relay struct {
	outbox   Outbox
	sink     Sink
	interval time.Duration
	batch    int
	logger   *slog.Logger
	metrics  *Metrics
}

// RelayOption configures the Relay.
type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func NewRelay(outbox Outbox, sink Sink, opts ...RelayOption) *Relay {
	r := &Relay{
		outbox:   outbox,
		sink:     sink,
		interval: defaultRelayInterval,
		batch:    defaultRelayBatch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls the outbox until ctx is cancelled. Flush errors are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay flush failed", "error", err)
			}
		}
	}
}

// Flush publishes pending entries in batches until the outbox is drained.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		pending, err := r.outbox.Pending(ctx, r.batch)
		if err != nil {
			return total, err
		}
		if len(pending) == 0 {
			return total, nil
		}
		if err := r.sink.Publish(ctx, pending); err != nil {
			if r.metrics != nil {
				r.metrics.IncRelayFailures()
			}
			return total, err
		}
		ids := make([]uuid.UUID, 0, len(pending))
		for _, e := range pending {
			ids = append(ids, e.ID)
		}
		if err := r.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return total, err
		}
		total += len(pending)
		if r.metrics != nil {
			r.metrics.AddRelayed(len(pending))
		}
		if len(pending) < r.batch {
			return total, nil
		}
	}
}
