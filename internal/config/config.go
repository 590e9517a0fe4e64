// Package config holds curator runtime configuration, loaded from
// defaults, environment variables, and YAML rule files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration for the curation pipeline
type Config struct {
	// DBPath is the SQLite database file for the analysis cache and
	// quality trend log. Empty means in-memory only (no persistence).
	// Default: "curator.db"
	DBPath string

	// CacheTTLHours is the analysis cache TTL in hours
	// Default: 24, Range: 1-720
	CacheTTLHours int

	// ReliabilityFloor is the minimum selector reliability for an event
	// to count as reliable in aggregate scoring
	// Default: 0.5, Range: (0, 1]
	ReliabilityFloor float64

	// Model is the Anthropic model for screenshot analysis
	// Empty means the analyzer's tiered default
	Model string

	// RulesPath is an optional YAML file of quality threshold rules.
	// Empty means the built-in default rule set.
	RulesPath string

	// VisionEnabled controls whether screenshots are sent for analysis
	// Default: true (requires ANTHROPIC_API_KEY at runtime)
	VisionEnabled bool

	// Concurrency bounds parallel session curation
	// Default: 4, Range: 1-64
	Concurrency int
}

// DefaultConfig returns the default curator configuration
func DefaultConfig() Config {
	return Config{
		DBPath:           "curator.db",
		CacheTTLHours:    24,
		ReliabilityFloor: 0.5,
		VisionEnabled:    true,
		Concurrency:      4,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.CacheTTLHours < 1 || c.CacheTTLHours > 720 {
		return fmt.Errorf("cache_ttl_hours must be between 1 and 720 (got %d)", c.CacheTTLHours)
	}
	if c.ReliabilityFloor <= 0 || c.ReliabilityFloor > 1 {
		return fmt.Errorf("reliability_floor must be in (0, 1] (got %g)", c.ReliabilityFloor)
	}
	if c.Concurrency < 1 || c.Concurrency > 64 {
		return fmt.Errorf("concurrency must be between 1 and 64 (got %d)", c.Concurrency)
	}
	if c.RulesPath != "" {
		if _, err := os.Stat(c.RulesPath); err != nil {
			return fmt.Errorf("rules file not readable: %w", err)
		}
	}
	return nil
}

// CacheTTL returns the cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// FromEnv creates a Config from environment variables, falling back to
// defaults
//
// Environment variables:
//   - CURATOR_DB_PATH: SQLite database path (default: curator.db)
//   - CURATOR_CACHE_TTL_HOURS: Analysis cache TTL in hours (default: 24)
//   - CURATOR_RELIABILITY_FLOOR: Minimum selector reliability (default: 0.5)
//   - CURATOR_MODEL: Anthropic model override for screenshot analysis
//   - CURATOR_RULES_PATH: YAML file of quality threshold rules
//   - CURATOR_VISION_ENABLED: Enable screenshot analysis (default: true)
//   - CURATOR_CONCURRENCY: Parallel session curation limit (default: 4)
//
// Returns an error if any environment variable has an invalid value.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvString("CURATOR_DB_PATH", &cfg.DBPath); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CURATOR_CACHE_TTL_HOURS", &cfg.CacheTTLHours); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("CURATOR_RELIABILITY_FLOOR", &cfg.ReliabilityFloor); err != nil {
		return cfg, err
	}
	if err := parseEnvString("CURATOR_MODEL", &cfg.Model); err != nil {
		return cfg, err
	}
	if err := parseEnvString("CURATOR_RULES_PATH", &cfg.RulesPath); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("CURATOR_VISION_ENABLED", &cfg.VisionEnabled); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CURATOR_CONCURRENCY", &cfg.Concurrency); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid curator configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
