package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".reverie", cfg.DataDir)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model.Name)
	assert.Equal(t, ":8787", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.DebugMode)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reverie.yaml")
	content := `data_dir: /var/lib/reverie
model:
  name: gemini-2.5-pro
  timeout: 90s
server:
  addr: ":9000"
  api_token: file-token
logging:
  debug_mode: true
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/reverie", cfg.DataDir)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model.Name)
	assert.Equal(t, 90*time.Second, cfg.ModelTimeout())
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "file-token", cfg.Server.APIToken)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reverie.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [not: closed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reverie.yaml")
	content := `model:
  name: gemini-2.5-pro
server:
  api_token: file-token
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("REVERIE_MODEL", "gemini-2.5-flash-lite")
	t.Setenv("REVERIE_DATA_DIR", "/tmp/reverie-env")
	t.Setenv("REVERIE_ADDR", ":7000")
	t.Setenv("REVERIE_API_TOKEN", "env-token")
	t.Setenv("REVERIE_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Model.APIKey)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Model.Name)
	assert.Equal(t, "/tmp/reverie-env", cfg.DataDir)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "env-token", cfg.Server.APIToken)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestModelTimeout_FallsBackOnBadValue(t *testing.T) {
	cfg := Default()

	cfg.Model.Timeout = "not a duration"
	assert.Equal(t, 60*time.Second, cfg.ModelTimeout())

	cfg.Model.Timeout = "-5s"
	assert.Equal(t, 60*time.Second, cfg.ModelTimeout())

	cfg.Model.Timeout = "2m"
	assert.Equal(t, 2*time.Minute, cfg.ModelTimeout())
}
