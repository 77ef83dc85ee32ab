package cache

import (
	"context"
	"errors"
	"time"

	"lowcost_routes/internal/database"
)

// RedisStore keeps cache entries in Redis so several instances share one cache
type RedisStore struct {
	client *database.RedisClient
}

func NewRedisStore(client *database.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	err := r.client.GetJSON(ctx, key, dest)
	if errors.Is(err, database.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.SetJSON(ctx, key, value, ttl)
}
