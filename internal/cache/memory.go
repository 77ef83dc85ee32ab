package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore is an in-process Store safe for concurrent use. Values are kept
// JSON-encoded so readers never share memory with the cache.
type MemoryStore struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		// reads must not extend an entry's lifetime
		items: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return false, nil
	}

	if err := json.Unmarshal(item.Value(), dest); err != nil {
		return false, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}

	m.items.Set(key, data, ttl)
	return nil
}

// Purge drops every expired entry
func (m *MemoryStore) Purge() {
	m.items.DeleteExpired()
}

// Len returns the number of stored entries
func (m *MemoryStore) Len() int {
	return m.items.Len()
}

// StartJanitor removes entries as they expire until ctx is done
func (m *MemoryStore) StartJanitor(ctx context.Context) {
	go m.items.Start()
	go func() {
		<-ctx.Done()
		m.items.Stop()
	}()
}
