package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/config"
)

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// TestConfigWatcher_ReloadOnChange verifies a file edit triggers the
// registered callback with the new values.
func TestConfigWatcher_ReloadOnChange(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, configPath, `
log:
  level: "info"
server:
  port: 8080
`)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)

	watcher := config.NewConfigWatcher(cfg, configPath)
	var mu sync.Mutex
	var reloaded *config.Config
	watcher.OnConfigChange(func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = cfg
	})

	require.NoError(t, watcher.Start())
	defer watcher.Stop()
	time.Sleep(100 * time.Millisecond)

	writeConfigFile(t, configPath, `
log:
  level: "debug"
server:
  port: 8080
`)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	got := reloaded
	mu.Unlock()
	require.NotNil(t, got, "config change callback should fire")
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, "debug", watcher.GetConfig().Log.Level)
}

// TestConfigWatcher_MultipleCallbacks verifies every registered callback
// sees the reload.
func TestConfigWatcher_MultipleCallbacks(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, configPath, `
server:
  port: 8080
`)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	watcher := config.NewConfigWatcher(cfg, configPath)
	var mu sync.Mutex
	first, second := false, false
	watcher.OnConfigChange(func(*config.Config) {
		mu.Lock()
		defer mu.Unlock()
		first = true
	})
	watcher.OnConfigChange(func(*config.Config) {
		mu.Lock()
		defer mu.Unlock()
		second = true
	})

	require.NoError(t, watcher.Start())
	defer watcher.Stop()
	time.Sleep(100 * time.Millisecond)

	writeConfigFile(t, configPath, `
server:
  port: 9090
`)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, first, "first callback should fire")
	assert.True(t, second, "second callback should fire")
}

// TestConfigWatcher_Stop verifies no callbacks fire after Stop.
func TestConfigWatcher_Stop(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, configPath, `
server:
  port: 8080
`)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	watcher := config.NewConfigWatcher(cfg, configPath)
	var mu sync.Mutex
	called := false
	watcher.OnConfigChange(func(*config.Config) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	require.NoError(t, watcher.Start())
	watcher.Stop()
	time.Sleep(100 * time.Millisecond)

	writeConfigFile(t, configPath, `
server:
  port: 9090
`)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, called, "callback should not fire after stop")
}
