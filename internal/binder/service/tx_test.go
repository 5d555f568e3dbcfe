package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "casbinder/pkg/domain-errors"
)

type counter struct {
	value    int
	restored int
}

func (c *counter) Snapshot() func() {
	saved := c.value
	return func() {
		c.value = saved
		c.restored++
	}
}

func TestInMemoryTx(t *testing.T) {
	t.Run("keeps changes on success", func(t *testing.T) {
		c := &counter{}
		tx := NewInMemoryTx(c)
		require.NoError(t, tx.RunInTx(context.Background(), func(context.Context) error {
			c.value = 5
			return nil
		}))
		assert.Equal(t, 5, c.value)
		assert.Zero(t, c.restored)
	})

	t.Run("restores participants on error", func(t *testing.T) {
		c := &counter{value: 1}
		tx := NewInMemoryTx(c)
		boom := errors.New("boom")
		err := tx.RunInTx(context.Background(), func(context.Context) error {
			c.value = 99
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, c.value)
	})

	t.Run("nested calls join the outer unit", func(t *testing.T) {
		c := &counter{}
		tx := NewInMemoryTx(c)
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			return tx.RunInTx(ctx, func(context.Context) error {
				c.value = 7
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 7, c.value)
	})

	t.Run("cancelled context aborts with timeout code", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewInMemoryTx().RunInTx(ctx, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}
