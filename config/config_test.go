package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, "server:\n  port: 9000\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:23333", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "zh", cfg.Locale.Language)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "Asia/Shanghai", cfg.Timezone)
	assert.False(t, cfg.Tracking.Enabled)
	assert.Equal(t, "data/access.db", cfg.Tracking.DatabasePath)
	assert.Equal(t, 1000, cfg.Tracking.BufferSize)
	assert.Equal(t, 30*time.Second, cfg.Tracking.FlushInterval)
	assert.Equal(t, 90, cfg.Tracking.RetentionDays)
}

func TestLoadConfigFullFile(t *testing.T) {
	content := `
server:
  host: 0.0.0.0
  port: 8090
backend:
  base_url: "https://api.example.com"
  timeout: 5s
locale:
  language: en
tracking:
  enabled: true
  database:
    type: mysql
    host: 127.0.0.1
    database: huixiangdou
tui:
  enabled: true
  update_interval: 10s
`
	cfg, err := LoadConfig(writeTempConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "en", cfg.Locale.Language)
	require.NotNil(t, cfg.Tracking.Database)
	assert.Equal(t, "mysql", cfg.Tracking.Database.Type)
	assert.True(t, cfg.TUI.Enabled)
	assert.Equal(t, 10*time.Second, cfg.TUI.UpdateInterval)
}

func TestLoadConfigInvalidLanguage(t *testing.T) {
	_, err := LoadConfig(writeTempConfig(t, "locale:\n  language: fr\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language")
}

func TestLoadConfigInvalidBackendURL(t *testing.T) {
	_, err := LoadConfig(writeTempConfig(t, "backend:\n  base_url: \"ftp://example.com\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadConfigProxyValidation(t *testing.T) {
	content := `
backend:
  proxy:
    enabled: true
    type: socks4
    host: 127.0.0.1
`
	_, err := LoadConfig(writeTempConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proxy type")
}

func TestConfigWatcherReload(t *testing.T) {
	path := writeTempConfig(t, "server:\n  port: 9000\n")

	cw, err := NewConfigWatcher(path, discardLogger())
	require.NoError(t, err)
	defer cw.Close()

	reloaded := make(chan *Config, 1)
	cw.AddReloadCallback(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	assert.Equal(t, 9000, cw.GetConfig().Server.Port)

	// Rewrite the file and wait out the debounce window
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0644))

	select {
	case c := <-reloaded:
		assert.Equal(t, 9001, c.Server.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("config reload callback was not invoked")
	}

	assert.Equal(t, 9001, cw.GetConfig().Server.Port)
}
