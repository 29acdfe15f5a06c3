package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300*time.Millisecond, cfg.Overlay.ExitDelay)
	assert.Equal(t, "en", cfg.Locale.Default)
	assert.Equal(t, 10*time.Second, cfg.Statistics.Timeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kalakaart.yaml")
	content := `
server:
  addr: ":9090"
statistics:
  base_url: "http://stats.internal"
  timeout: 2s
overlay:
  exit_delay: 150ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("KALAKAART_LOCALE__DEFAULT", "hi")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://stats.internal", cfg.Statistics.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Statistics.Timeout)
	assert.Equal(t, 150*time.Millisecond, cfg.Overlay.ExitDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.Overlay.EnterDelay)
	assert.Equal(t, "hi", cfg.Locale.Default)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Statistics.Timeout = 0
	cfg.Sessions.IdleTTL = -time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statistics.timeout")
	assert.Contains(t, err.Error(), "sessions.idle_ttl")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "statistics.base_url", envKey("KALAKAART_STATISTICS__BASE_URL"))
	assert.Equal(t, "log.level", envKey("KALAKAART_LOG__LEVEL"))
}
