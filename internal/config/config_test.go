package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HOST", "LOG_LEVEL", "UPSTREAM_BASE_URL", "UPSTREAM_VERIFY_TLS",
		"UPSTREAM_TIMEOUT_SECONDS", "CURRENCY", "CACHE_BACKEND", "CACHE_TTL_SECONDS",
		"DATABASE_URL", "SEARCH_FANOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Upstream.VerifyTLS, "certificate verification must be on by default")
	assert.Equal(t, "EUR", cfg.Upstream.Currency)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 16, cfg.Search.FanOut)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_VERIFY_TLS", "false")
	t.Setenv("CURRENCY", "gbp")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:9000/api/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Upstream.VerifyTLS)
	assert.Equal(t, "GBP", cfg.Upstream.Currency)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "http://localhost:9000/api", cfg.Upstream.BaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown cache backend", "CACHE_BACKEND", "memcached"},
		{"bad currency", "CURRENCY", "EURO"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"zero fan out", "SEARCH_FANOUT", "0"},
		{"postgres without url", "CACHE_BACKEND", "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
