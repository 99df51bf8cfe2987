package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, validateConfig(cfg))

	assert.Equal(t, 5*time.Minute, cfg.pollInterval())
	assert.Equal(t, 30*time.Minute, cfg.cooldown())
	assert.Equal(t, "wowzastreamingengine_access.log", cfg.LogPath)
	assert.Equal(t, "connect", cfg.Event)
	assert.Equal(t, "session", cfg.Category)
	assert.Equal(t, scanErrorSkip, cfg.OnScanError)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
poll_interval_seconds: 60
log_path: /var/log/wowza/access.log
stop_script_path: /opt/wowza/shutdown.sh
verbose: true
log:
  level: debug
`)
	cfg, err := loadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.PollInterval)
	assert.Equal(t, 1800, cfg.Cooldown)
	assert.Equal(t, "/var/log/wowza/access.log", cfg.LogPath)
	assert.Equal(t, "/opt/wowza/shutdown.sh", cfg.StopScript)
	assert.Equal(t, "/usr/local/WowzaStreamingEngine/bin/startup.sh", cfg.StartScript)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "wowza-bouncer.log", cfg.Log.Name)
}

func TestLoadConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := loadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	_, err = loadConfig(path, true)
	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "poll_interval_seconds: [1, 2")
	_, err := loadConfig(path, true)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"negative cooldown", func(c *Config) { c.Cooldown = -1 }},
		{"no log path", func(c *Config) { c.LogPath = "" }},
		{"no stop script", func(c *Config) { c.StopScript = "" }},
		{"no start script", func(c *Config) { c.StartScript = "" }},
		{"no event", func(c *Config) { c.Event = "" }},
		{"no category", func(c *Config) { c.Category = "" }},
		{"bad scan policy", func(c *Config) { c.OnScanError = "retry" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, validateConfig(cfg), "invalid config")
		})
	}
}

func TestParseFlags_OverridesOnlyExplicitFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-cooldown", "0", "-log", "/tmp/access.log", "-v", "-once"})
	require.NoError(t, err)
	assert.True(t, opts.Once)

	base := defaultConfig()
	base.PollInterval = 42
	cfg := opts.apply(base)

	assert.Equal(t, 42, cfg.PollInterval)
	assert.Equal(t, 0, cfg.Cooldown)
	assert.Equal(t, "/tmp/access.log", cfg.LogPath)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, base.StopScript, cfg.StopScript)
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := parseFlags([]string{"-nope"})
	assert.Error(t, err)
}

func TestResolveConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "poll_interval_seconds: 60\nmatched_event: play\n")

	opts, err := parseFlags([]string{"-config", path, "-poll", "10"})
	require.NoError(t, err)

	cfg, err := resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PollInterval)
	assert.Equal(t, "play", cfg.Event)
}

func TestResolveConfig_ExplicitPathMustExist(t *testing.T) {
	opts, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.NoError(t, err)

	_, err = resolveConfig(opts)
	assert.ErrorContains(t, err, "read config")
}

func TestResolveConfig_InvalidFlag(t *testing.T) {
	opts, err := parseFlags([]string{"-config", writeConfig(t, t.TempDir(), "{}"), "-on-scan-error", "panic"})
	require.NoError(t, err)

	_, err = resolveConfig(opts)
	assert.ErrorContains(t, err, "OnScanError")
}

func TestWatchConfig_PublishesNewConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "cooldown_seconds: 100\n")

	opts, err := parseFlags([]string{"-config", path, "-event", "play"})
	require.NoError(t, err)

	out := make(chan Config, 1)
	stop := make(chan struct{})
	defer close(stop)
	require.NoError(t, watchConfig(opts, out, stop))

	// 无效配置被忽略
	writeConfig(t, dir, "poll_interval_seconds: 0\n")
	writeConfig(t, dir, "cooldown_seconds: 200\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-out:
			require.NoError(t, validateConfig(cfg))
			assert.Equal(t, "play", cfg.Event)
			if cfg.Cooldown == 200 {
				return
			}
		case <-deadline:
			t.Fatal("no reloaded config received")
		}
	}
}
