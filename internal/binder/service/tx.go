package service

import (
	"context"
	"sync"
	"time"

	dErrors "casbinder/pkg/domain-errors"
)

// Tx provides a transactional boundary for binder store mutations.
// Implementations may wrap a database transaction or, in-memory, a coarse lock.
type Tx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Snapshotter is implemented by in-memory stores that can roll back.
type Snapshotter interface {
	Snapshot() (restore func())
}

const defaultTxTimeout = 5 * time.Second

type inMemoryTxKey struct{}

// InMemoryTx serialises units of work with one mutex and restores every
// participant's snapshot when fn fails.
type InMemoryTx struct {
	mu           sync.Mutex
	participants []Snapshotter
	timeout      time.Duration
}

// NewInMemoryTx returns a transaction runner over the given stores.
func NewInMemoryTx(participants ...Snapshotter) *InMemoryTx {
	return &InMemoryTx{participants: participants}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if ctx.Value(inMemoryTxKey{}) == t {
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

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restores := make([]func(), 0, len(t.participants))
	for _, p := range t.participants {
		restores = append(restores, p.Snapshot())
	}
	rollback := func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, inMemoryTxKey{}, t)); err != nil {
		rollback()
		return err
	}
	return nil
}
