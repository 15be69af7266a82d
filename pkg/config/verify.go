package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	// parse schema
	var schema struct {
		Ref  string                     `json:"$ref"`
		Defs map[string]json.RawMessage `json:"$defs"`
	}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// every section of the config must be described by the schema
	rootName := strings.TrimPrefix(schema.Ref, "#/$defs/")
	if root, ok := schema.Defs[rootName]; ok {
		var rootDef struct {
			Properties map[string]json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(root, &rootDef); err != nil {
			return fmt.Errorf("parse schema root %s: %w", rootName, err)
		}
		for key := range configMap {
			if _, ok := rootDef.Properties[key]; !ok {
				return fmt.Errorf("config section %q is not described by the schema", key)
			}
		}
	}

	// basic validation - check required fields match
	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if cfg.Backend.SourcesPath == "" {
		return fmt.Errorf("backend.sources_path is required")
	}
	if cfg.Backend.IngestPath == "" {
		return fmt.Errorf("backend.ingest_path is required")
	}
	if cfg.Schedule.SweepInterval == 0 {
		return fmt.Errorf("schedule.sweep_interval is required")
	}
	if cfg.Weather.BaseURL == "" {
		return fmt.Errorf("weather.base_url is required")
	}

	// server timeout matters only when the server is enabled
	if cfg.Server.Listen != "" && cfg.Server.Timeout == 0 {
		return fmt.Errorf("server.timeout is required when server.listen is set")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
