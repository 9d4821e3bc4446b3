// Package config loads Reverie configuration from a YAML file with
// environment overrides. Missing file means defaults; environment always
// wins over file values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Reverie configuration.
type Config struct {
	// DataDir holds the SQLite database and log files.
	DataDir string `yaml:"data_dir"`

	// Model configures the Gemini client.
	Model ModelConfig `yaml:"model"`

	// Server configures the HTTP surface.
	Server ServerConfig `yaml:"server"`

	// Logging configures categorized debug logging.
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig configures the generative model client.
type ModelConfig struct {
	APIKey  string `yaml:"api_key"`
	Name    string `yaml:"name"`
	Timeout string `yaml:"timeout"`
}

// ServerConfig configures the HTTP listener and its auth token.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	APIToken string `yaml:"api_token"`
}

// LoggingConfig controls the categorized file logger.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: ".reverie",
		Model: ModelConfig{
			Name:    "gemini-2.5-flash",
			Timeout: "60s",
		},
		Server: ServerConfig{
			Addr: ":8787",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("REVERIE_MODEL"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("REVERIE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("REVERIE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("REVERIE_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("REVERIE_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

// ModelTimeout parses the model timeout, defaulting to 60 seconds on a
// missing or malformed value. Model calls must always be bounded.
func (c *Config) ModelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Model.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
