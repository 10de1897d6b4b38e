package tx

import (
	"context"
	"database/sql"
	"time"
)

// SQLRunner runs each transition inside a database transaction. Stores pick the
// transaction up with From(ctx) and lock rows with SELECT ... FOR UPDATE.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB, timeout time.Duration) *SQLRunner {
	return &SQLRunner{db: db, timeout: timeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(markActive(WithTx(ctx, sqlTx))); err != nil {
		return err
	}
	return sqlTx.Commit()
}
