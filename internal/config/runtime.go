package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names for runtime configuration overrides.
const (
	EnvRuntimeQueryTimeout   = "RUNTIME_QUERY_TIMEOUT"
	EnvRuntimeMaxQueryLength = "RUNTIME_MAX_QUERY_LENGTH"
)

// RuntimeConfig bounds agent execution behavior.
type RuntimeConfig struct {
	QueryTimeout   string `toml:"query_timeout"`
	MaxQueryLength int    `toml:"max_query_length"`
}

// QueryTimeoutDuration parses and returns the query timeout as a time.Duration.
func (c *RuntimeConfig) QueryTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.QueryTimeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the runtime configuration.
func (c *RuntimeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *RuntimeConfig) Merge(overlay *RuntimeConfig) {
	if overlay.QueryTimeout != "" {
		c.QueryTimeout = overlay.QueryTimeout
	}
	if overlay.MaxQueryLength != 0 {
		c.MaxQueryLength = overlay.MaxQueryLength
	}
}

func (c *RuntimeConfig) loadDefaults() {
	if c.QueryTimeout == "" {
		c.QueryTimeout = "60s"
	}
	if c.MaxQueryLength == 0 {
		c.MaxQueryLength = 32768
	}
}

func (c *RuntimeConfig) loadEnv() {
	if v := os.Getenv(EnvRuntimeQueryTimeout); v != "" {
		c.QueryTimeout = v
	}
	if v := os.Getenv(EnvRuntimeMaxQueryLength); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxQueryLength = n
		}
	}
}

func (c *RuntimeConfig) validate() error {
	if _, err := time.ParseDuration(c.QueryTimeout); err != nil {
		return fmt.Errorf("invalid query_timeout: %w", err)
	}
	if c.MaxQueryLength < 1 {
		return fmt.Errorf("max_query_length must be positive")
	}
	return nil
}
