package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetOrLoadCachesValue(t *testing.T) {
	loader := NewLoader(NewMemoryStore(), time.Hour, discardLogger())
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"BCN", "STN"}, nil
	}

	first, err := GetOrLoad(ctx, loader, "destinations:DUB", load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, loader, "destinations:DUB", load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	loader := NewLoader(NewMemoryStore(), time.Hour, discardLogger())
	ctx := context.Background()
	boom := errors.New("boom")

	var calls atomic.Int32
	_, err := GetOrLoad(ctx, loader, "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := GetOrLoad(ctx, loader, "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrLoadSingleFlight(t *testing.T) {
	loader := NewLoader(NoopStore{}, time.Hour, discardLogger())
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "ok", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := GetOrLoad(ctx, loader, "airports:active", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// let every caller join the in-flight load before releasing it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "ok", r)
	}
}

func TestNoopStoreDisablesCaching(t *testing.T) {
	loader := NewLoader(nil, time.Hour, nil)
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	a, err := GetOrLoad(ctx, loader, "k", load)
	require.NoError(t, err)
	b, err := GetOrLoad(ctx, loader, "k", load)
	require.NoError(t, err)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestGetOrLoadSurvivesCancelledInitiator(t *testing.T) {
	loader := NewLoader(NoopStore{}, time.Hour, discardLogger())

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 42, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := GetOrLoad(ctxA, loader, "routes:inbound_index", load)
		errA <- err
	}()
	<-started

	var (
		gotB int
		errB error
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		gotB, errB = GetOrLoad(context.Background(), loader, "routes:inbound_index", load)
	}()

	// let the second caller join the in-flight load
	time.Sleep(50 * time.Millisecond)
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	wg.Wait()

	require.NoError(t, errB)
	assert.Equal(t, 42, gotB)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrLoadLoadTimeout(t *testing.T) {
	loader := NewLoader(NoopStore{}, time.Hour, discardLogger()).WithLoadTimeout(20 * time.Millisecond)

	_, err := GetOrLoad(context.Background(), loader, "k", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOrLoadCancelledBeforeLoad(t *testing.T) {
	loader := NewLoader(NoopStore{}, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := GetOrLoad(ctx, loader, "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
