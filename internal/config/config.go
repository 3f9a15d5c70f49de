// Package config holds the shopfront client configuration, loaded from
// <profile>/config.json with SHOPFRONT_* environment overrides on top.
// A missing config file is not an error; defaults apply.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all shopfront configuration.
type Config struct {
	// API configures the storefront backend connection.
	API APIConfig `json:"api"`

	// UI configures the interactive shell.
	UI UIConfig `json:"ui"`

	// Logging controls the categorized debug logs.
	Logging LoggingConfig `json:"logging"`
}

// APIConfig configures the backend HTTP client. Durations are strings in
// time.ParseDuration format so the file stays hand-editable.
type APIConfig struct {
	BaseURL      string `json:"base_url"`
	Timeout      string `json:"timeout"`
	MaxRetries   int    `json:"max_retries"`
	RetryWaitMin string `json:"retry_wait_min"`
	RetryWaitMax string `json:"retry_wait_max"`
}

// UIConfig configures the interactive shell.
type UIConfig struct {
	Theme string `json:"theme"` // light, dark, auto
}

// LoggingConfig controls debug logging. Mirrored by the logging package,
// which reads the file directly to avoid a circular import.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "http://localhost:8080",
			Timeout:      "15s",
			MaxRetries:   2,
			RetryWaitMin: "500ms",
			RetryWaitMax: "3s",
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultProfileDir returns the profile directory: SHOPFRONT_HOME if set,
// otherwise ~/.shopfront.
func DefaultProfileDir() string {
	if dir := os.Getenv("SHOPFRONT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopfront"
	}
	return filepath.Join(home, ".shopfront")
}

// Load reads config from path, fills in defaults for absent fields, and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config to path, creating the profile directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets the environment win over the file.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("SHOPFRONT_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if timeout := os.Getenv("SHOPFRONT_TIMEOUT"); timeout != "" {
		c.API.Timeout = timeout
	}
	if theme := os.Getenv("SHOPFRONT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if debug := os.Getenv("SHOPFRONT_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// GetTimeout parses the request timeout, falling back to the default on a
// bad value.
func (c *Config) GetTimeout() time.Duration {
	return parseDuration(c.API.Timeout, 15*time.Second)
}

// GetRetryWaitMin parses the minimum retry backoff.
func (c *Config) GetRetryWaitMin() time.Duration {
	return parseDuration(c.API.RetryWaitMin, 500*time.Millisecond)
}

// GetRetryWaitMax parses the maximum retry backoff.
func (c *Config) GetRetryWaitMax() time.Duration {
	return parseDuration(c.API.RetryWaitMax, 3*time.Second)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
