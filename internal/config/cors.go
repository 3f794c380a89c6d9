package config

import (
	"os"
	"strings"
)

// Environment variable names for CORS configuration overrides.
const (
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	EnvCORSAllowedMethods = "CORS_ALLOWED_METHODS"
	EnvCORSAllowedHeaders = "CORS_ALLOWED_HEADERS"
)

// CORSConfig contains cross-origin resource sharing configuration.
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// Finalize applies defaults and loads environment overrides.
func (c *CORSConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	if len(overlay.AllowedOrigins) > 0 {
		c.AllowedOrigins = overlay.AllowedOrigins
	}
	if len(overlay.AllowedMethods) > 0 {
		c.AllowedMethods = overlay.AllowedMethods
	}
	if len(overlay.AllowedHeaders) > 0 {
		c.AllowedHeaders = overlay.AllowedHeaders
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
}

func (c *CORSConfig) loadEnv() {
	if v := os.Getenv(EnvCORSAllowedOrigins); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(EnvCORSAllowedMethods); v != "" {
		c.AllowedMethods = splitList(v)
	}
	if v := os.Getenv(EnvCORSAllowedHeaders); v != "" {
		c.AllowedHeaders = splitList(v)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
