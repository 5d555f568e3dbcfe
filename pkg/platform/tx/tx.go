// Package tx carries a database transaction through a context so that every
// store touched by one unit of work joins it.
package tx

import (
	"context"
	"database/sql"
)

type txKey struct{}

// Queryer is what stores need from either *sql.DB or *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx returns a child context carrying t. A nil t returns ctx unchanged.
func WithTx(ctx context.Context, t *sql.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, t)
}

func current(ctx context.Context) *sql.Tx {
	t, _ := ctx.Value(txKey{}).(*sql.Tx)
	return t
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	return current(ctx) != nil
}

// Active picks the transaction in ctx, or db when there is none.
func Active(ctx context.Context, db *sql.DB) Queryer {
	if t := current(ctx); t != nil {
		return t
	}
	return db
}
