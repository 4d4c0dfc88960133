// Package config loads client configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	// APIURL is the base URL of the backend, without a trailing slash.
	APIURL string `yaml:"api_url"`
	// PageSize is the number of articles per listing page.
	PageSize int `yaml:"page_size"`
	// TokenPath is where the session token is persisted. Empty keeps the
	// session in memory only.
	TokenPath string `yaml:"token_path"`

	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// TelemetryConfig controls the optional OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		APIURL:    "https://api.realworld.io/api",
		PageSize:  10,
		TokenPath: filepath.Join(home, ".conduit", "session.json"),
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads the configuration at path, layered over defaults. A missing
// file is not an error. Environment variables CONDUIT_API_URL,
// CONDUIT_PAGE_SIZE, and CONDUIT_TOKEN_PATH override both.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONDUIT_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("CONDUIT_TOKEN_PATH"); v != "" {
		cfg.TokenPath = v
	}
	if v := os.Getenv("CONDUIT_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
}

func (c Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("config: api_url is required")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	}
	return nil
}
