package dbtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func (c *counter) Snapshot() func() {
	saved := c.n
	return func() { c.n = saved }
}

func TestTransactor_RestoresOnError(t *testing.T) {
	c := &counter{n: 1}
	tx := NewTransactor(c)

	err := tx.InTx(context.Background(), func(ctx context.Context) error {
		c.n = 5
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, c.n)
	assert.Equal(t, 1, tx.Aborts)
}

func TestTransactor_NestedJoinsOuter(t *testing.T) {
	c := &counter{}
	tx := NewTransactor(c)

	err := tx.InTx(context.Background(), func(ctx context.Context) error {
		c.n = 2
		return tx.InTx(ctx, func(ctx context.Context) error {
			c.n = 3
			return errors.New("inner")
		})
	})
	require.Error(t, err)
	assert.Equal(t, 0, c.n)
	assert.Equal(t, 0, tx.Commits)
}

func TestTransactor_Commit(t *testing.T) {
	c := &counter{}
	tx := NewTransactor(c)
	require.NoError(t, tx.InTx(context.Background(), func(ctx context.Context) error {
		c.n = 7
		return nil
	}))
	assert.Equal(t, 7, c.n)
	assert.Equal(t, 1, tx.Commits)
}
