package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("EXPORT_TIMEOUT", "")

	require.NoError(t, LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env")))

	cfg := DefaultEnvConfig
	assert.Equal(t, 5432, cfg.DB_PORT)
	assert.Equal(t, "memory", cfg.EXPORT_MODE)
	assert.Equal(t, 5*time.Minute, cfg.EXPORT_TIMEOUT)
	assert.Equal(t, 1000, cfg.EXPORT_SCROLL_SIZE)
	assert.False(t, cfg.LOG_PRETTY)
}

func TestLoadEnvConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EXPORT_MODE=streaming\nEXPORT_MAX_ROWS=5000\nDB_CONN_MAX_LIFETIME=90\nLOG_PRETTY=true\n"), 0o600))
	for _, key := range []string{"EXPORT_MODE", "EXPORT_MAX_ROWS", "DB_CONN_MAX_LIFETIME", "LOG_PRETTY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	require.NoError(t, LoadEnvConfig(path))

	cfg := DefaultEnvConfig
	assert.Equal(t, "streaming", cfg.EXPORT_MODE)
	assert.Equal(t, 5000, cfg.EXPORT_MAX_ROWS)
	assert.Equal(t, 90*time.Second, cfg.DB_CONN_MAX_LIFETIME)
	assert.True(t, cfg.LOG_PRETTY)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9000\n"), 0o600))
	t.Setenv("APP_PORT", "7000")

	require.NoError(t, LoadEnvConfig(path))
	assert.Equal(t, "7000", DefaultEnvConfig.APP_PORT)
}
