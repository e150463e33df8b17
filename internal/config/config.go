// Package config provides environment-based configuration following 12-factor principles.
// All configuration is loaded from environment variables with the GAS_ prefix.
//
// The two adjuster tunables (renewal interval, scale factor) are deliberately
// not part of this struct: they are re-read from the environment on every
// renewal by adjuster.EnvSource, never loaded once at startup.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration.
// All fields are loaded from environment variables with the GAS_ prefix.
type Config struct {
	// Node connection (Factor IV: Backing Services)
	NodeHTTPURL string

	// Server addresses
	APIAddr    string
	HealthAddr string

	// Adjuster tuning
	SampleInterval time.Duration
	StatsWindow    int

	// Observability
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
// All variables are prefixed with GAS_ (e.g., GAS_NODE_HTTP_URL).
func Load() (*Config, error) {
	cfg := &Config{
		// Required fields have no defaults
		NodeHTTPURL: os.Getenv("GAS_NODE_HTTP_URL"),

		// Optional fields with defaults
		APIAddr:        envOrDefault("GAS_API_ADDR", ":9090"),
		HealthAddr:     envOrDefault("GAS_HEALTH_ADDR", ":8080"),
		SampleInterval: envDurationOrDefault("GAS_SAMPLE_INTERVAL", 15*time.Second),
		StatsWindow:    envIntOrDefault("GAS_STATS_WINDOW", 100),
		LogLevel:       envOrDefault("GAS_LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("GAS_LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.NodeHTTPURL == "" {
		return errors.New("GAS_NODE_HTTP_URL is required")
	}
	if _, err := url.Parse(c.NodeHTTPURL); err != nil {
		return fmt.Errorf("invalid GAS_NODE_HTTP_URL: %w", err)
	}

	if c.StatsWindow < 1 || c.StatsWindow > 1024 {
		return errors.New("GAS_STATS_WINDOW must be between 1 and 1024")
	}

	if c.SampleInterval < time.Second {
		return errors.New("GAS_SAMPLE_INTERVAL must be at least 1s")
	}

	return nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
