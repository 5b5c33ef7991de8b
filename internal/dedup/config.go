package dedup

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds tuning for the duplicate-detection engine.
type Config struct {
	// Threshold is the minimum similarity score (0.0-1.0) for an existing
	// task to count as a match. The useful range is 0.80-0.95: below 0.80
	// false positives increase sharply, above 0.95 matching approaches
	// exact-match only.
	// Default: 0.85
	Threshold float64

	// BatchMode controls the caller's policy when a duplicate is found.
	// In batch mode the caller auto-selects Skip instead of prompting.
	// This is explicit configuration threaded through by the caller, not
	// ambient state read inside the engine.
	// Default: false (interactive)
	BatchMode bool

	// MinNameLength is the minimum candidate name length to attempt
	// matching. Very short names carry too little signal for a ratio
	// score to mean anything.
	// Default: 3 characters
	MinNameLength int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:     0.85,
		BatchMode:     false,
		MinNameLength: 3,
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	if c.MinNameLength < 0 {
		return fmt.Errorf("min_name_length cannot be negative (got %d)", c.MinNameLength)
	}
	if c.MinNameLength > 500 {
		return fmt.Errorf("min_name_length too large (got %d, max 500)", c.MinNameLength)
	}
	return nil
}

// String returns a human-readable representation of the config.
func (c Config) String() string {
	return fmt.Sprintf("Config{Threshold: %.2f, BatchMode: %t, MinNameLen: %d}",
		c.Threshold, c.BatchMode, c.MinNameLength)
}

// ConfigFromEnv creates a Config from environment variables, falling back
// to defaults.
//
// Environment variables:
//   - GUT_DEDUP_THRESHOLD: Minimum similarity (0.0-1.0) to count as a match (default: 0.85)
//   - GUT_DEDUP_BATCH: Auto-select Skip on duplicates instead of prompting (default: false)
//   - GUT_DEDUP_MIN_NAME_LENGTH: Minimum name length for matching (default: 3)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	return DefaultConfig().WithEnvOverrides()
}

// WithEnvOverrides returns a copy of c with any GUT_DEDUP_* environment
// variables applied on top, validated. Callers that build a base config
// from another source (config file, flags) use this to let the engine env
// vars win over it.
func (c Config) WithEnvOverrides() (Config, error) {
	if err := parseEnvFloat("GUT_DEDUP_THRESHOLD", &c.Threshold); err != nil {
		return c, err
	}
	if err := parseEnvBool("GUT_DEDUP_BATCH", &c.BatchMode); err != nil {
		return c, err
	}
	if err := parseEnvInt("GUT_DEDUP_MIN_NAME_LENGTH", &c.MinNameLength); err != nil {
		return c, err
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return c, nil
}

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
