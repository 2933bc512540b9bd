package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, "md5", cfg.Monitor.Algorithm)
	assert.Equal(t, "raw", cfg.Monitor.Mode)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "website_state.json", cfg.Storage.StateFile)
	assert.Equal(t, "pagewatch_history.csv", cfg.Storage.HistoryFile)
	assert.Equal(t, "@every 15m", cfg.Watch.Schedule)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagewatch.yaml")
	yaml := `
monitor:
  timeout: 3s
  algorithm: sha256
  mode: selector
  selector: "#content"
  user_agents:
    - agent-a
    - agent-b
storage:
  backend: redis
  history_file: runs.csv
redis:
  url: redis://cache:6379/2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, "sha256", cfg.Monitor.Algorithm)
	assert.Equal(t, "#content", cfg.Monitor.Selector)
	assert.Equal(t, []string{"agent-a", "agent-b"}, cfg.Monitor.UserAgents)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "runs.csv", cfg.Storage.HistoryFile)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAGEWATCH_STORAGE_STATE_FILE", "/tmp/state.json")
	t.Setenv("PAGEWATCH_MONITOR_TIMEOUT", "42s")

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/state.json", cfg.Storage.StateFile)
	assert.Equal(t, 42*time.Second, cfg.Monitor.Timeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Settings{
		Monitor: MonitorConfig{Timeout: time.Second},
		Storage: StorageConfig{Backend: BackendFile, StateFile: "s.json", HistoryFile: "h.csv"},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Storage.Backend = "sqlite"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Storage.HistoryFile = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.Monitor.Timeout = 0
	assert.Error(t, bad.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAGEWATCH_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PAGEWATCH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("PAGEWATCH_TEST_DOTENV"))
}
