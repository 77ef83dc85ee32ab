package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "destinations:DUB", []string{"BCN"}, 50*time.Millisecond))

	var got []string
	hit, err := store.Get(ctx, "destinations:DUB", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"BCN"}, got)

	time.Sleep(100 * time.Millisecond)
	hit, err = store.Get(ctx, "destinations:DUB", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStoreReadDoesNotExtendTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", 1, 80*time.Millisecond))

	var got int
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		_, err := store.Get(ctx, "k", &got)
		require.NoError(t, err)
	}
	time.Sleep(60 * time.Millisecond)

	hit, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	codes := []string{"BCN", "STN"}
	require.NoError(t, store.Set(ctx, "k", codes, time.Hour))
	codes[0] = "XXX"

	var got []string
	_, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"BCN", "STN"}, got)
}

func TestMemoryStorePurge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", 1, 20*time.Millisecond))
	require.NoError(t, store.Set(ctx, "long", 2, time.Hour))

	time.Sleep(50 * time.Millisecond)
	store.Purge()

	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreJanitor(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.StartJanitor(ctx)

	require.NoError(t, store.Set(ctx, "short", 1, 20*time.Millisecond))
	require.NoError(t, store.Set(ctx, "long", 2, time.Hour))

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore()

	var got int
	hit, err := store.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
