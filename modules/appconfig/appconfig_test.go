package appconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "profiles", cfg.Storage.Table)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.RateLimit.AllowIfNoMatch)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("POSTGRES_PRIMARY_HOST", "db")
	t.Setenv("POSTGRES_PRIMARY_PORT", "6432")
	t.Setenv("POSTGRES_MIGRATE_ON_START", "true")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "db", cfg.Postgres.WriteConfig.Host)
	assert.Equal(t, uint16(6432), cfg.Postgres.WriteConfig.Port)
	assert.True(t, cfg.Postgres.MigrateOnStart)
	assert.True(t, cfg.NeedsRedis())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"port":      {"HTTP_PORT": "0"},
		"timeout":   {"HTTP_READ_TIMEOUT": "-1s"},
		"backend":   {"STORAGE_BACKEND": "mongo"},
		"log level": {"LOG_LEVEL": "chatty"},
		"ratelimit": {"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_BACKEND": "etcd"},
		"cache ttl": {"STORAGE_CACHE_TTL": "-5s"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
