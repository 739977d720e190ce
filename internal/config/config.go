// Package config provides configuration loading and validation for the
// server and CLI. Values come from an optional JSON file merged with
// defaults; the API key additionally falls back to the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default values applied when neither the config file nor flags set them.
const (
	DefaultPort           = 8080
	DefaultDataDir        = "data"
	DefaultClusters       = 10
	DefaultComponents     = 10
	DefaultSummaryWorkers = 4
)

// Environment fallbacks consulted when the config file leaves a field
// unset. Both API key names are accepted; GOOGLE_API_KEY wins.
const (
	apiKeyEnv    = "GOOGLE_API_KEY"
	apiKeyEnvAlt = "GEMINI_API_KEY"
	dataDirEnv   = "PERSONAPRD_DATA_DIR"
)

// Config holds the runtime settings shared by the server and CLI commands.
// All fields are optional; missing values use defaults.
type Config struct {
	Port           int    `json:"port,omitempty"`            // HTTP listen port
	DataDir        string `json:"data_dir,omitempty"`        // Root holding raw/ and processed/
	APIKey         string `json:"api_key,omitempty"`         // Gemini API key
	Clusters       int    `json:"clusters,omitempty"`        // K for k-means
	Components     int    `json:"components,omitempty"`      // PCA components before clustering
	SummaryWorkers int    `json:"summary_workers,omitempty"` // Parallel summarization LLM calls
	Verbose        bool   `json:"verbose,omitempty"`         // Development-style logging
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Validate checks numeric ranges.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be in [0, 65535]")
	}
	if c.Clusters < 0 {
		return fmt.Errorf("config error: 'clusters' must be non-negative")
	}
	if c.Components < 0 {
		return fmt.Errorf("config error: 'components' must be non-negative")
	}
	if c.SummaryWorkers < 0 {
		return fmt.Errorf("config error: 'summary_workers' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled in: zero
// numeric fields take the package defaults, an empty API key falls back to
// the environment.
func (c *Config) MergeWithDefaults() Config {
	result := *c

	if result.Port == 0 {
		result.Port = DefaultPort
	}
	if result.DataDir == "" {
		result.DataDir = os.Getenv(dataDirEnv)
	}
	if result.DataDir == "" {
		result.DataDir = DefaultDataDir
	}
	if result.Clusters == 0 {
		result.Clusters = DefaultClusters
	}
	if result.Components == 0 {
		result.Components = DefaultComponents
	}
	if result.SummaryWorkers == 0 {
		result.SummaryWorkers = DefaultSummaryWorkers
	}
	if result.APIKey == "" {
		result.APIKey = os.Getenv(apiKeyEnv)
	}
	if result.APIKey == "" {
		result.APIKey = os.Getenv(apiKeyEnvAlt)
	}
	return result
}

// RawDir is where persona collection exports live.
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// ProcessedDir is the root for derived artifacts.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}
