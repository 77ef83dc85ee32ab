package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"lowcost_routes/internal/config"
)

// ErrKeyNotFound is returned by GetJSON when the key is absent or expired
var ErrKeyNotFound = errors.New("key not found")

// RedisClient represents the Redis client
type RedisClient struct {
	*redis.Client
}

// NewRedisClient creates a new Redis client and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{client}, nil
}

// NewRedisClientFromAddr wraps a client for an already running server without pinging it
func NewRedisClientFromAddr(addr string) *RedisClient {
	return &RedisClient{redis.NewClient(&redis.Options{Addr: addr})}
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.Client.Close()
}

// SetJSON sets a JSON value in Redis with expiration
func (rc *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return rc.Set(ctx, key, jsonData, expiration).Err()
}

// GetJSON gets a JSON value from Redis
func (rc *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return fmt.Errorf("failed to get from Redis: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for %s: %w", key, err)
	}
	return nil
}

// Delete removes a key from Redis
func (rc *RedisClient) Delete(ctx context.Context, key string) error {
	return rc.Del(ctx, key).Err()
}

// GenerateAirportsCacheKey generates the cache key for the active airport list
func GenerateAirportsCacheKey() string {
	return "airports:active"
}

// GenerateDestinationsCacheKey generates a cache key for the direct destinations of an airport
func GenerateDestinationsCacheKey(airportCode string) string {
	return fmt.Sprintf("destinations:%s", strings.ToUpper(airportCode))
}

// GenerateInboundIndexCacheKey generates the cache key for the inverted route graph
func GenerateInboundIndexCacheKey() string {
	return "routes:inbound_index"
}

// GenerateFaresCacheKey generates a cache key for cheapest-per-day fares of a city pair
func GenerateFaresCacheKey(from, to, month, currency string) string {
	return fmt.Sprintf("fares:%s:%s:%s:%s", from, to, month, currency)
}

// GenerateSearchCacheKey generates a cache key for a full route search result
func GenerateSearchCacheKey(from, to, month string, maxLayoverDays int, currency string) string {
	return fmt.Sprintf("route_search:%s:%s:%s:%d:%s", from, to, month, maxLayoverDays, currency)
}
