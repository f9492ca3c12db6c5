package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v", time.Hour))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Del(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetDelIsOneShot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "marker", "1", time.Hour))

	v, err := m.GetDel(ctx, "marker")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	_, err = m.GetDel(ctx, "marker")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIncrIsMonotonic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for want := int64(1); want <= 5; want++ {
		got, err := m.Incr(ctx, "seq")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
