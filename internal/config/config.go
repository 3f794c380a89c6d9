// Package config loads layered TOML configuration with environment
// variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/agentdeck/agentdeck/pkg/database"
	"github.com/agentdeck/agentdeck/pkg/logging"
	"github.com/agentdeck/agentdeck/pkg/pagination"
)

// Environment variable that selects the environment overlay file,
// config.<env>.toml, merged over the base config.toml.
const EnvServiceEnv = "SERVICE_ENV"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig      `toml:"server"`
	Database   database.Config   `toml:"database"`
	Logging    logging.Config    `toml:"logging"`
	CORS       CORSConfig        `toml:"cors"`
	Pagination pagination.Config `toml:"pagination"`
	Runtime    RuntimeConfig     `toml:"runtime"`
}

// Load reads the base configuration file, applies an environment overlay
// if one exists, and finalizes every section.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	if env := os.Getenv(EnvServiceEnv); env != "" {
		overlayPath := overlayFile(path, env)
		overlay := &Config{}
		if err := loadFile(overlayPath, overlay); err == nil {
			cfg.merge(overlay)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Finalize applies defaults, environment overrides, and validation to
// every configuration section.
func (c *Config) Finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Database.Finalize(&database.Env{
		Host:            "DATABASE_HOST",
		Port:            "DATABASE_PORT",
		Name:            "DATABASE_NAME",
		User:            "DATABASE_USER",
		Password:        "DATABASE_PASSWORD",
		MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
		MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
		ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
		ConnTimeout:     "DATABASE_CONN_TIMEOUT",
	}); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Logging.Finalize(&logging.Env{
		Level:  "LOGGING_LEVEL",
		Format: "LOGGING_FORMAT",
	}); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.CORS.Finalize(); err != nil {
		return fmt.Errorf("cors config: %w", err)
	}

	if err := c.Pagination.Finalize(&pagination.ConfigEnv{
		DefaultPageSize: "PAGINATION_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "PAGINATION_MAX_PAGE_SIZE",
	}); err != nil {
		return fmt.Errorf("pagination config: %w", err)
	}

	if err := c.Runtime.Finalize(); err != nil {
		return fmt.Errorf("runtime config: %w", err)
	}

	return nil
}

func (c *Config) merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Logging.Merge(&overlay.Logging)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Runtime.Merge(&overlay.Runtime)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func overlayFile(path, env string) string {
	ext := ".toml"
	base := path
	if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
		base = path[:len(path)-len(ext)]
	}
	return fmt.Sprintf("%s.%s%s", base, env, ext)
}
