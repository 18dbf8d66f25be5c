package api_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  access_secret: a-secret
  refresh_secret: r-secret
  api_key: ops
kafka:
  topic: custom.topic
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "a-secret", cfg.Auth.AccessSecret)
	assert.Equal(t, "ops", cfg.Auth.APIKey)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "custom.topic", cfg.Kafka.Topic)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)

	tc := cfg.Auth.AsTokenConfig()
	assert.Equal(t, []byte("r-secret"), tc.RefreshSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "env-access")
	t.Setenv("AUTH_REFRESH_SECRET", "env-refresh")
	t.Setenv("RATELIMIT_LIMIT", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-access", cfg.Auth.AccessSecret)
	assert.Equal(t, 3, cfg.RateLimit.Limit)
}

func TestLoad_Validation(t *testing.T) {
	_, err := Load("")
	assert.ErrorContains(t, err, "auth.access_secret and auth.refresh_secret are required")

	path := writeConfig(t, `
auth:
  access_secret: same
  refresh_secret: same
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "must differ")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
