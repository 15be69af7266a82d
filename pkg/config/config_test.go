package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configContent := `
backend:
  url: http://backend.local:5001
  timeout: 10s
  registry_retries: 5
schedule:
  sweep_interval: 2m
  idle_interval: 15s
  error_backoff: 1m
  max_workers: 2
weather:
  api_key: real-key
  rate_limit: 500ms
feed:
  timeout: 20s
  max_items: 5
  strip_html: false
server:
  listen: ":9090"
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "http://backend.local:5001", cfg.Backend.URL)
		assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 5, cfg.Backend.RegistryRetries)
		assert.Equal(t, 2*time.Minute, cfg.Schedule.SweepInterval)
		assert.Equal(t, 15*time.Second, cfg.Schedule.IdleInterval)
		assert.Equal(t, time.Minute, cfg.Schedule.ErrorBackoff)
		assert.Equal(t, 2, cfg.Schedule.MaxWorkers)
		assert.Equal(t, "real-key", cfg.Weather.APIKey)
		assert.Equal(t, 500*time.Millisecond, cfg.WeatherRateLimit())
		assert.Equal(t, 20*time.Second, cfg.Feed.Timeout)
		assert.Equal(t, 5, cfg.Feed.MaxItems)
		assert.False(t, cfg.StripHTMLEnabled())
		assert.Equal(t, ":9090", cfg.Server.Listen)
	})

	t.Run("defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte("backend:\n  url: http://localhost:5001\n"), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "/api/pathway/sources/active", cfg.Backend.SourcesPath)
		assert.Equal(t, "/api/pathway/ingest", cfg.Backend.IngestPath)
		assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 60*time.Second, cfg.Schedule.SweepInterval)
		assert.Equal(t, 30*time.Second, cfg.Schedule.IdleInterval)
		assert.Equal(t, 45*time.Second, cfg.Schedule.ErrorBackoff)
		assert.Equal(t, 300*time.Second, cfg.Schedule.DefaultInterval)
		assert.Equal(t, 4, cfg.Schedule.MaxWorkers)
		assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.Weather.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
		assert.Equal(t, time.Second, cfg.WeatherRateLimit())
		assert.Equal(t, "New York", cfg.Weather.DefaultCity)
		assert.Equal(t, 15*time.Second, cfg.Feed.Timeout)
		assert.Equal(t, 10, cfg.Feed.MaxItems)
		assert.Equal(t, 500, cfg.Feed.MaxDescription)
		assert.Equal(t, DefaultUserAgent, cfg.Feed.UserAgent)
		assert.True(t, cfg.StripHTMLEnabled())
		assert.Empty(t, cfg.Server.Listen)
	})

	t.Run("rate limit disabled", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "test-config.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("weather:\n  rate_limit: 0s\n"), 0o644))

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg.Weather.RateLimit)
		assert.Equal(t, time.Duration(0), cfg.WeatherRateLimit())
		require.NoError(t, cfg.Validate())
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_WEATHER_KEY", "from-env")
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte("weather:\n  api_key: ${TEST_WEATHER_KEY}\n"), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Weather.APIKey)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configContent := `
invalid yaml content
  with bad indentation
    and no structure
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("invalid values", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yml")
		err := os.WriteFile(configPath, []byte("schedule:\n  max_workers: -1\n"), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "schedule.max_workers must be at least 1")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{name: "defaults are valid", modify: func(c *Config) {}},
		{name: "relative backend url", modify: func(c *Config) { c.Backend.URL = "localhost" }, errMsg: "backend.url"},
		{name: "short backend timeout", modify: func(c *Config) { c.Backend.Timeout = time.Millisecond }, errMsg: "backend.timeout"},
		{name: "no registry attempts", modify: func(c *Config) { c.Backend.RegistryRetries = 0 }, errMsg: "backend.registry_retries"},
		{name: "short sweep interval", modify: func(c *Config) { c.Schedule.SweepInterval = time.Millisecond }, errMsg: "schedule.sweep_interval"},
		{name: "short idle interval", modify: func(c *Config) { c.Schedule.IdleInterval = 0 }, errMsg: "schedule.idle_interval"},
		{name: "short error backoff", modify: func(c *Config) { c.Schedule.ErrorBackoff = 0 }, errMsg: "schedule.error_backoff"},
		{name: "negative rate limit", modify: func(c *Config) { d := -time.Second; c.Weather.RateLimit = &d }, errMsg: "weather.rate_limit"},
		{name: "rate limit disabled", modify: func(c *Config) { var d time.Duration; c.Weather.RateLimit = &d }},
		{name: "zero weather parallel", modify: func(c *Config) { c.Weather.MaxParallel = 0 }, errMsg: "weather.max_parallel"},
		{name: "zero feed items", modify: func(c *Config) { c.Feed.MaxItems = 0 }, errMsg: "feed.max_items"},
		{name: "zero description", modify: func(c *Config) { c.Feed.MaxDescription = 0 }, errMsg: "feed.max_description"},
		{name: "server timeout", modify: func(c *Config) { c.Server.Listen = ":8080"; c.Server.Timeout = 0 }, errMsg: "server timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_GetServerConfig(t *testing.T) {
	cfg := Default()
	cfg.Server.Listen = ":9090"
	cfg.Server.Timeout = 45 * time.Second

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":9090", listen)
	assert.Equal(t, 45*time.Second, timeout)
}
