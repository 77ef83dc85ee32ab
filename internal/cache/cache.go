// Package cache provides the TTL cache used in front of every upstream fetch.
//
// A Store keeps JSON-encoded values with an expiry. Values are always copied
// through encoding, so callers never share slices or maps with the cache.
// Loader adds read-through semantics and collapses concurrent loads of one key
// into a single upstream call.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store is a key/value cache with per-entry expiry
type Store interface {
	// Get decodes the value stored under key into dest. It reports false on a
	// miss or an expired entry.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Loader reads through a Store and de-duplicates concurrent loads per key
type Loader struct {
	store       Store
	ttl         time.Duration
	loadTimeout time.Duration
	logger      *slog.Logger
	group       singleflight.Group
}

// NewLoader creates a read-through loader with a fixed TTL
func NewLoader(store Store, ttl time.Duration, logger *slog.Logger) *Loader {
	if store == nil {
		store = NoopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// WithLoadTimeout bounds every shared load. Zero leaves loads bounded only by
// the timeouts of the calls they make.
func (l *Loader) WithLoadTimeout(d time.Duration) *Loader {
	l.loadTimeout = d
	return l
}

// TTL returns the expiry applied to every entry written by the loader
func (l *Loader) TTL() time.Duration {
	return l.ttl
}

// GetOrLoad returns the cached value for key or calls load, caching its result.
// Errors from load are returned and never cached. Cache read and write failures
// are logged and otherwise ignored.
//
// A load is shared by every concurrent caller of key, so it does not inherit
// the cancellation of the caller that started it. Each caller stops waiting
// when its own ctx is done.
func GetOrLoad[T any](ctx context.Context, l *Loader, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	var cached T
	hit, err := l.store.Get(ctx, key, &cached)
	if err != nil {
		l.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	} else if hit {
		l.logger.DebugContext(ctx, "cache hit", "key", key)
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	ch := l.group.DoChan(key, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		if l.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, l.loadTimeout)
			defer cancel()
		}

		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		if err := l.store.Set(loadCtx, key, value, l.ttl); err != nil {
			l.logger.WarnContext(ctx, "failed to cache value", "key", key, "error", err)
		}
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		return zero, res.Err
	}
	if res.Shared {
		l.logger.DebugContext(ctx, "shared in-flight load", "key", key)
	}

	value, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("cache: unexpected value type %T for key %s", res.Val, key)
	}
	return value, nil
}

// NoopStore never stores anything. It disables caching without changing callers.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string, interface{}) (bool, error) {
	return false, nil
}

func (NoopStore) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
