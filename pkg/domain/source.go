package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SourceType is the kind of external source, it selects the fetch strategy
type SourceType string

// supported source types, news is handled the same way as rss
const (
	SourceWeather SourceType = "weather"
	SourceRSS     SourceType = "rss"
	SourceNews    SourceType = "news"
)

// StatusActive is the only registry status eligible for polling
const StatusActive = "active"

// DefaultIngestionInterval used when the registry doesn't set one
const DefaultIngestionInterval = 300 * time.Second

// ParseSourceType validates a raw type string against the closed set of known types
func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(strings.ToLower(strings.TrimSpace(s))); t {
	case SourceWeather, SourceRSS, SourceNews:
		return t, nil
	default:
		return "", fmt.Errorf("unknown source type %q", s)
	}
}

// SourceConfig describes one registered external source as returned by the registry
type SourceConfig struct {
	SourceID          string          `json:"sourceId"`
	SourceType        string          `json:"sourceType"`
	SourceName        string          `json:"sourceName"`
	SourceURL         string          `json:"sourceUrl,omitempty"`
	Config            json.RawMessage `json:"config,omitempty"`
	IngestionInterval int             `json:"ingestionInterval,omitempty"` // seconds
	MaxEntries        *int            `json:"maxEntries"`
	Status            string          `json:"status"`
	IsActive          bool            `json:"isActive"`
	LastIngestedAt    string          `json:"lastIngestedAt,omitempty"`
}

// WeatherParams is the type-specific part of a weather source config
type WeatherParams struct {
	Cities []string `json:"cities"`
	APIKey string   `json:"apiKey"`
}

// Eligible reports whether the source may be polled at all
func (s SourceConfig) Eligible() bool {
	return s.Status == StatusActive && s.IsActive
}

// Interval returns the polling interval, falling back to def for unset or non-positive values
func (s SourceConfig) Interval(def time.Duration) time.Duration {
	if s.IngestionInterval <= 0 {
		return def
	}
	return time.Duration(s.IngestionInterval) * time.Second
}

// Type returns the validated source type
func (s SourceConfig) Type() (SourceType, error) {
	return ParseSourceType(s.SourceType)
}

// Name returns a human-readable identifier for logs
func (s SourceConfig) Name() string {
	if s.SourceName != "" {
		return s.SourceName
	}
	if s.SourceID != "" {
		return s.SourceID
	}
	return "unknown"
}

// WeatherParams decodes the config block of a weather source.
// Missing or null config yields zero params, not an error.
func (s SourceConfig) WeatherParams() (WeatherParams, error) {
	var p WeatherParams
	raw := strings.TrimSpace(string(s.Config))
	if raw == "" || raw == "null" {
		return p, nil
	}
	if err := json.Unmarshal(s.Config, &p); err != nil {
		return WeatherParams{}, fmt.Errorf("decode weather config for %s: %w", s.Name(), err)
	}
	return p, nil
}

// lastIngestedLayouts are tried in order, naive layouts are taken as UTC
var lastIngestedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// LastIngested parses lastIngestedAt. The bool is false if the source was never ingested.
func (s SourceConfig) LastIngested() (time.Time, bool, error) {
	raw := strings.TrimSpace(s.LastIngestedAt)
	if raw == "" || raw == "null" {
		return time.Time{}, false, nil
	}
	for _, layout := range lastIngestedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid lastIngestedAt %q for %s", raw, s.Name())
}

// Due reports whether an eligible source should be polled at now.
// A source never ingested is always due, otherwise it is due once the elapsed time
// reaches the interval (boundary inclusive). wait is the remaining time for not-due sources.
func (s SourceConfig) Due(now time.Time, def time.Duration) (due bool, wait time.Duration, err error) {
	if !s.Eligible() {
		return false, 0, nil
	}
	last, ok, err := s.LastIngested()
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return true, 0, nil
	}
	interval := s.Interval(def)
	elapsed := now.Sub(last)
	if elapsed >= interval {
		return true, 0, nil
	}
	return false, interval - elapsed, nil
}
