package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "apiPort: 9090\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "jwt", cfg.Auth.Strategy)
	assert.Equal(t, 10, cfg.Auth.LoginRateLimit)
	assert.Equal(t, time.Minute, cfg.Auth.LoginRateWindow)
	assert.True(t, cfg.Cleanup.Enabled)
	assert.Equal(t, 2, cfg.Cleanup.Hour)
	assert.True(t, cfg.IsInsecureSecret())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
apiPort: 8000
jwt:
  secret: a-real-secret
  accessTokenTTL: 1h
auth:
  strategy: opaque
cleanup:
  enabled: false
  hour: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "opaque", cfg.Auth.Strategy)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenTTL)
	assert.False(t, cfg.Cleanup.Enabled)
	assert.Equal(t, 4, cfg.Cleanup.Hour)
	assert.False(t, cfg.IsInsecureSecret())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.APIPort)
	assert.Equal(t, "jwt", cfg.Auth.Strategy)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "apiPort: [not a port\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
