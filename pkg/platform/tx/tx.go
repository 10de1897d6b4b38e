// Package tx provides the transactional boundary every ledger transition runs in.
//
// A transition is one call to Runner.RunInTx. The in-memory runner serialises transitions
// that touch the same entity by hashing an entity key onto a fixed set of mutexes; the SQL
// runner opens a database transaction and hands it to stores through the context. Nested
// RunInTx calls join the outer transition instead of opening a new one, so services can call
// each other inside a single atomic commit.
package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "pulseaid/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

type entityKey struct{}

type activeKey struct{}

// defaultTxTimeout is the maximum duration for a transition.
const defaultTxTimeout = 5 * time.Second

// Runner executes fn as a single all-or-nothing transition.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// WithEntity names the entity a transition is scoped to, e.g. "campaign:42".
func WithEntity(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, entityKey{}, key)
}

// Entity returns the entity key set by WithEntity.
func Entity(ctx context.Context) string {
	if k, ok := ctx.Value(entityKey{}).(string); ok {
		return k
	}
	return ""
}

// InTx reports whether ctx is already inside a transition.
func InTx(ctx context.Context) bool {
	active, _ := ctx.Value(activeKey{}).(bool)
	return active
}

func markActive(ctx context.Context) context.Context {
	return context.WithValue(ctx, activeKey{}, true)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func aborted(err error) error {
	return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
}
