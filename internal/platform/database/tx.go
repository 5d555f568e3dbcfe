package database

import (
	"context"
	"database/sql"
	"time"

	dErrors "casbinder/pkg/domain-errors"
	txcontext "casbinder/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Tx runs units of work inside a PostgreSQL transaction. The *sql.Tx travels
// in the context so every store call made by fn joins it.
type Tx struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTx returns a transaction runner over db.
func NewTx(db *sql.DB) *Tx {
	return &Tx{db: db}
}

// WithTimeout overrides the default per-transaction timeout.
func (t *Tx) WithTimeout(d time.Duration) *Tx {
	t.timeout = d
	return t
}

// RunInTx commits when fn returns nil and rolls back otherwise.
// Nested calls reuse the outer transaction.
func (t *Tx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if txcontext.InTx(ctx) {
		return fn(ctx)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
