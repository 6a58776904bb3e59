package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	require.NoError(t, cache.Set(ctx, "verify:fssp:ИВАНОВ", []byte(`{"hasDebt":true}`), time.Hour))

	value, found, err := cache.Get(ctx, "verify:fssp:ИВАНОВ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"hasDebt":true}`), value)
}

func TestMemoryCache_MissingKey(t *testing.T) {
	_, found, err := NewMemoryCache().Get(context.Background(), "verify:fssp:nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_ExpiredEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cache := NewMemoryCache(WithClock(func() time.Time { return now }))

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(61 * time.Second)
	_, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_SetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cache := NewMemoryCache(WithClock(func() time.Time { return now }))

	require.NoError(t, cache.Set(ctx, "k", []byte("old"), time.Minute))
	now = now.Add(50 * time.Second)
	require.NoError(t, cache.Set(ctx, "k", []byte("new"), time.Minute))
	now = now.Add(30 * time.Second)

	value, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("new"), value)
}
