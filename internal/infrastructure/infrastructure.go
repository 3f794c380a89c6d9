// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, lifecycle) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/pkg/database"
	"github.com/agentdeck/agentdeck/pkg/lifecycle"
	"github.com/agentdeck/agentdeck/pkg/logging"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
	}, nil
}

// Start registers infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	i.Database.Start(i.Lifecycle)
	return nil
}
