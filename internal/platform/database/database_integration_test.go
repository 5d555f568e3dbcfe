//go:build integration

package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casbinder/internal/platform/database"
	txcontext "casbinder/pkg/platform/tx"
	"casbinder/pkg/testutil/containers"
)

func TestMigrateIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)

	schema, err := database.Migrate(context.Background(), pg.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.False(t, schema.Changed, "container setup already applied every migration")
	assert.Equal(t, uint(3), schema.Version)
	assert.False(t, schema.Dirty)

	for _, table := range []string{"accounts", "identity_links", "audit_outbox"} {
		var exists bool
		err := pg.DB.QueryRow(`SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, "audit_outbox"))

	boom := errors.New("boom")
	err := database.NewTx(pg.DB).RunInTx(ctx, func(txCtx context.Context) error {
		assert.True(t, txcontext.InTx(txCtx))
		_, err := txcontext.Active(txCtx, pg.DB).ExecContext(txCtx,
			`INSERT INTO audit_outbox (id, action, payload, created_at) VALUES (gen_random_uuid(), 'test', '{}', now())`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, pg.DB.QueryRow(`SELECT count(*) FROM audit_outbox`).Scan(&count))
	assert.Zero(t, count)
}

func TestRunInTxHonoursTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)

	start := time.Now()
	err := database.NewTx(pg.DB).WithTimeout(100*time.Millisecond).RunInTx(ctx, func(txCtx context.Context) error {
		_, err := txcontext.Active(txCtx, pg.DB).ExecContext(txCtx, `SELECT pg_sleep(2)`)
		return err
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
}
