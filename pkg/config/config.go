package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Backend  BackendConfig  `yaml:"backend" json:"backend" jsonschema:"description=Registry and ingestion backend"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule" jsonschema:"description=Sweep scheduling configuration"`
	Weather  WeatherConfig  `yaml:"weather" json:"weather" jsonschema:"description=Weather provider configuration"`
	Feed     FeedConfig     `yaml:"feed" json:"feed" jsonschema:"description=RSS and news feed fetching configuration"`
	Server   ServerConfig   `yaml:"server" json:"server" jsonschema:"description=Status server configuration"`
}

// BackendConfig holds the registry and ingestion endpoints
type BackendConfig struct {
	URL             string        `yaml:"url" json:"url" jsonschema:"default=http://localhost:5001,description=Backend base URL"`
	SourcesPath     string        `yaml:"sources_path" json:"sources_path" jsonschema:"default=/api/pathway/sources/active,description=Path of the active sources query"`
	IngestPath      string        `yaml:"ingest_path" json:"ingest_path" jsonschema:"default=/api/pathway/ingest,description=Path of the ingestion endpoint"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Per-request timeout for backend calls"`
	RegistryRetries int           `yaml:"registry_retries" json:"registry_retries" jsonschema:"default=3,minimum=1,description=Attempts for the active sources query"`
}

// ScheduleConfig holds sweep timing
type ScheduleConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval" json:"sweep_interval" jsonschema:"default=60s,description=Wait between full sweeps"`
	IdleInterval    time.Duration `yaml:"idle_interval" json:"idle_interval" jsonschema:"default=30s,description=Wait after a sweep that found no sources"`
	ErrorBackoff    time.Duration `yaml:"error_backoff" json:"error_backoff" jsonschema:"default=45s,description=Wait after an unexpected sweep failure"`
	DefaultInterval time.Duration `yaml:"default_interval" json:"default_interval" jsonschema:"default=300s,description=Source ingestion interval used when the registry sets none"`
	MaxWorkers      int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=4,minimum=1,description=Maximum sources processed concurrently"`
}

// WeatherConfig holds weather provider settings
type WeatherConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://api.openweathermap.org/data/2.5,description=Weather provider base URL"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=Default provider API key, a source key overrides it"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Per-city request timeout"`
	RateLimit   *time.Duration `yaml:"rate_limit" json:"rate_limit,omitempty" jsonschema:"default=1s,description=Minimum gap between provider requests, 0 disables limiting"`
	DefaultCity string        `yaml:"default_city" json:"default_city" jsonschema:"default=New York,description=City used when a source lists none"`
	MaxParallel int           `yaml:"max_parallel" json:"max_parallel" jsonschema:"default=4,minimum=1,description=Cities fetched concurrently per source"`
}

// FeedConfig holds RSS and news fetch settings
type FeedConfig struct {
	Timeout        time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=Feed request timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for feed requests"`
	MaxItems       int           `yaml:"max_items" json:"max_items" jsonschema:"default=10,minimum=1,description=Maximum items taken from one feed per fetch"`
	MaxDescription int           `yaml:"max_description" json:"max_description" jsonschema:"default=500,minimum=1,description=Description length limit in characters"`
	StripHTML      *bool         `yaml:"strip_html" json:"strip_html,omitempty" jsonschema:"default=true,description=Strip HTML markup from descriptions"`
}

// ServerConfig holds status server settings
type ServerConfig struct {
	Listen  string        `yaml:"listen" json:"listen" jsonschema:"description=Status server listen address, empty disables the server"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
}

// DefaultUserAgent is a browser-like user agent, some feed hosts reject anything else
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Default returns configuration with all defaults set
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// backend
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = "http://localhost:5001"
	}
	if cfg.Backend.SourcesPath == "" {
		cfg.Backend.SourcesPath = "/api/pathway/sources/active"
	}
	if cfg.Backend.IngestPath == "" {
		cfg.Backend.IngestPath = "/api/pathway/ingest"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.RegistryRetries == 0 {
		cfg.Backend.RegistryRetries = 3
	}

	// schedule
	if cfg.Schedule.SweepInterval == 0 {
		cfg.Schedule.SweepInterval = 60 * time.Second
	}
	if cfg.Schedule.IdleInterval == 0 {
		cfg.Schedule.IdleInterval = 30 * time.Second
	}
	if cfg.Schedule.ErrorBackoff == 0 {
		cfg.Schedule.ErrorBackoff = 45 * time.Second
	}
	if cfg.Schedule.DefaultInterval == 0 {
		cfg.Schedule.DefaultInterval = 300 * time.Second
	}
	if cfg.Schedule.MaxWorkers == 0 {
		cfg.Schedule.MaxWorkers = 4
	}

	// weather
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if cfg.Weather.Timeout == 0 {
		cfg.Weather.Timeout = 10 * time.Second
	}
	if cfg.Weather.RateLimit == nil {
		limit := time.Second
		cfg.Weather.RateLimit = &limit
	}
	if cfg.Weather.DefaultCity == "" {
		cfg.Weather.DefaultCity = "New York"
	}
	if cfg.Weather.MaxParallel == 0 {
		cfg.Weather.MaxParallel = 4
	}

	// feed
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 15 * time.Second
	}
	if cfg.Feed.UserAgent == "" {
		cfg.Feed.UserAgent = DefaultUserAgent
	}
	if cfg.Feed.MaxItems == 0 {
		cfg.Feed.MaxItems = 10
	}
	if cfg.Feed.MaxDescription == 0 {
		cfg.Feed.MaxDescription = 500
	}
	if cfg.Feed.StripHTML == nil {
		strip := true
		cfg.Feed.StripHTML = &strip
	}

	// server
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url %q is not a valid absolute URL", c.Backend.URL)
	}
	if c.Backend.Timeout < time.Second {
		return fmt.Errorf("backend.timeout must be at least 1 second")
	}
	if c.Backend.RegistryRetries < 1 {
		return fmt.Errorf("backend.registry_retries must be at least 1")
	}

	if c.Schedule.SweepInterval < time.Second {
		return fmt.Errorf("schedule.sweep_interval must be at least 1 second")
	}
	if c.Schedule.IdleInterval < time.Second {
		return fmt.Errorf("schedule.idle_interval must be at least 1 second")
	}
	if c.Schedule.ErrorBackoff < time.Second {
		return fmt.Errorf("schedule.error_backoff must be at least 1 second")
	}
	if c.Schedule.MaxWorkers < 1 {
		return fmt.Errorf("schedule.max_workers must be at least 1")
	}

	if c.Weather.Timeout < time.Second {
		return fmt.Errorf("weather.timeout must be at least 1 second")
	}
	if c.Weather.RateLimit != nil && *c.Weather.RateLimit < 0 {
		return fmt.Errorf("weather.rate_limit must be non-negative")
	}
	if c.Weather.MaxParallel < 1 {
		return fmt.Errorf("weather.max_parallel must be at least 1")
	}

	if c.Feed.Timeout < time.Second {
		return fmt.Errorf("feed.timeout must be at least 1 second")
	}
	if c.Feed.MaxItems < 1 {
		return fmt.Errorf("feed.max_items must be at least 1")
	}
	if c.Feed.MaxDescription < 1 {
		return fmt.Errorf("feed.max_description must be at least 1")
	}

	if c.Server.Listen != "" && c.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// WeatherRateLimit returns the minimum gap between weather provider calls, 0 means unlimited
func (c *Config) WeatherRateLimit() time.Duration {
	if c.Weather.RateLimit == nil {
		return time.Second
	}
	return *c.Weather.RateLimit
}

// StripHTMLEnabled reports whether feed descriptions are reduced to plain text
func (c *Config) StripHTMLEnabled() bool {
	return c.Feed.StripHTML == nil || *c.Feed.StripHTML
}
