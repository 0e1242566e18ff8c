package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, int64(50*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "./saved_models", cfg.Artifacts.Dir)
	assert.Equal(t, "./compressed", cfg.Bench.OutputDir)
	assert.Equal(t, 60*time.Second, cfg.Bench.ToolTimeout)
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "minerva.yaml")
		data := []byte(`
server:
  port: 9191
  log_level: debug
artifacts:
  dir: /opt/models
bench:
  output_dir: /tmp/out
  tool_timeout: 30s
history:
  disabled: true
  path: /tmp/history.db
`)
		require.NoError(t, os.WriteFile(path, data, 0600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9191, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Server.LogLevel)
		assert.Equal(t, "/opt/models", cfg.Artifacts.Dir)
		assert.Equal(t, "/tmp/out", cfg.Bench.OutputDir)
		assert.Equal(t, 30*time.Second, cfg.Bench.ToolTimeout)
		assert.True(t, cfg.History.Disabled)
		assert.Equal(t, "/tmp/history.db", cfg.History.Path)
	})

	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "minerva.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, 60*time.Second, cfg.Bench.ToolTimeout)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MINERVA_PORT", "7777")
	t.Setenv("MINERVA_ARTIFACTS_DIR", "/srv/models")
	t.Setenv("MINERVA_TOOL_TIMEOUT", "90s")
	t.Setenv("MINERVA_HISTORY_DISABLED", "true")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "/srv/models", cfg.Artifacts.Dir)
	assert.Equal(t, 90*time.Second, cfg.Bench.ToolTimeout)
	assert.True(t, cfg.History.Disabled)
}

func TestValidate(t *testing.T) {
	t.Run("rejects bad port", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Port = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects sub-second tool timeout", func(t *testing.T) {
		cfg := Default()
		cfg.Bench.ToolTimeout = 100 * time.Millisecond
		assert.Error(t, cfg.Validate())
	})
}
