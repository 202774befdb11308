package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, BackendMemory, cfg.Store.Backend)
	require.Equal(t, "8000", cfg.Server.Port)
	require.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	require.False(t, cfg.RateLimit.Enabled)
	require.False(t, cfg.MinIO.Enabled())
	require.False(t, cfg.Trust.RequireKnownUser)
	require.Equal(t, "", cfg.Redis.Addr())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_PRESIGN_MINUTES", "5")
	t.Setenv("TRUST_REQUIRE_KNOWN_USER", "true")
	t.Setenv("REDIS_PASSWORD", "redis-secret")
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "minio-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, BackendRedis, cfg.Store.Backend)
	require.Equal(t, "localhost:6380", cfg.Redis.Addr())
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 2.5, cfg.RateLimit.RPS)
	require.True(t, cfg.MinIO.Enabled())
	require.Equal(t, 5*time.Minute, cfg.MinIO.PresignTTL)
	require.True(t, cfg.Trust.RequireKnownUser)
	require.Equal(t, "redis-secret", cfg.Redis.Password)
	require.Equal(t, "access", cfg.MinIO.AccessKey)
	require.Equal(t, "minio-secret", cfg.MinIO.SecretKey)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":       {"STORE_BACKEND": "sqlite"},
		"mongo without uri":     {"STORE_BACKEND": "mongo", "MONGODB_URI": ""},
		"redis without host":    {"STORE_BACKEND": "redis", "REDIS_HOST": ""},
		"redis limiter no host": {"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_USE_REDIS": "true", "REDIS_HOST": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
