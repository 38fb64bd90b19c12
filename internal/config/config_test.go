package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "listen: 0.0.0.0:9000\ntimezone: America/Chicago\nfeeds:\n  - id: wing\n    name: Wing Calendar\n    url: https://example.com/wing.ics\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "America/Chicago", cfg.Location().String())
	assert.Equal(t, "./data/state.json", cfg.StatePath)
	assert.Equal(t, 30, cfg.HorizonDays)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "Wing Calendar.ics", cfg.Feeds[0].FileName())
	assert.False(t, cfg.BasicAuth.Enabled())
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:9000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "console", cfg.LogFormat)

	require.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:9000\nmetrics: false\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Metrics)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, DefaultConfig()))

	t.Setenv("ROSTERCAL_LISTEN", ":9999")
	t.Setenv("ROSTERCAL_LOG_LEVEL", "debug")
	t.Setenv("ROSTERCAL_HORIZON_DAYS", "14")
	t.Setenv("ROSTERCAL_BASIC_AUTH_USERNAME", "admin")
	t.Setenv("ROSTERCAL_BASIC_AUTH_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 14, cfg.HorizonDays)
	assert.True(t, cfg.BasicAuth.Enabled())
	assert.Equal(t, "secret", cfg.BasicAuth.Password)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ROSTERCAL_TEST_ONLY_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ROSTERCAL_TEST_ONLY_KEY") })

	n, err := LoadEnvFiles(envFile, filepath.Join(dir, ".env.local"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-file", os.Getenv("ROSTERCAL_TEST_ONLY_KEY"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad cron", func(c *Config) { c.RefreshCron = "every minute" }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"bad horizon", func(c *Config) { c.HorizonDays = 1000 }},
		{"feed without url", func(c *Config) { c.Feeds = []FeedConfig{{ID: "a"}} }},
		{"duplicate feed", func(c *Config) {
			c.Feeds = []FeedConfig{{ID: "a", URL: "https://x/a.ics"}, {ID: "a", URL: "https://x/b.ics"}}
		}},
		{"auth without password", func(c *Config) { c.BasicAuth = BasicAuthConfig{Username: "admin"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
