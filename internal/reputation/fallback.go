package reputation

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/circuit"
)

// Fallback reads weights from a primary registry and answers from a secondary one while
// the primary's circuit is open. Writes only go to the primary.
type Fallback struct {
	primary   Registry
	secondary Registry
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

func NewFallback(primary, secondary Registry, breaker *circuit.Breaker, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, breaker: breaker, logger: logger}
}

func (f *Fallback) WeightOf(ctx context.Context, addr common.Address) (domain.Weight, error) {
	w, err := f.primary.WeightOf(ctx, addr)
	if err != nil {
		useFallback, change := f.breaker.RecordFailure()
		if change.Opened {
			f.logger.WarnContext(ctx, "reputation circuit opened; serving configured weights",
				"breaker", f.breaker.Name(),
				"error", err,
			)
		}
		if !useFallback {
			return 0, err
		}
		return f.secondary.WeightOf(ctx, addr)
	}

	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		f.logger.InfoContext(ctx, "reputation circuit closed", "breaker", f.breaker.Name())
	}
	if !usePrimary {
		return f.secondary.WeightOf(ctx, addr)
	}
	return w, nil
}

func (f *Fallback) SetWeight(ctx context.Context, addr common.Address, w domain.Weight) error {
	return f.primary.SetWeight(ctx, addr, w)
}
