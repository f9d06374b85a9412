package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	val, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Set(ctx, "forever", "x", 0))

	val, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	now = now.Add(2 * time.Minute)
	val, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)

	val, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "x", val)

	require.NoError(t, c.Delete(ctx, "forever"))
	val, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Empty(t, val)
}
