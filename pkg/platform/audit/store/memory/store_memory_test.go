package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "casbinder/pkg/domain"
	audit "casbinder/pkg/platform/audit"
)

func TestSnapshotDropsLaterEvents(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	kept := id.NewAccountID()
	require.NoError(t, store.Append(ctx, audit.Event{AccountID: kept, Action: string(audit.EventAccountCreated)}))

	restore := store.Snapshot()
	dropped := id.NewAccountID()
	require.NoError(t, store.Append(ctx, audit.Event{AccountID: dropped, Action: string(audit.EventLinkAssigned)}))
	restore()

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept, all[0].AccountID)

	none, err := store.ListByAccount(ctx, dropped)
	require.NoError(t, err)
	assert.Empty(t, none)
}
