package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/agentdeck/agentdeck/pkg/lifecycle"
)

// System provides access to the database connection pool and manages
// its lifecycle.
type System interface {
	DB() *sql.DB
	Migrate(migrations fs.FS) error
	Start(lc *lifecycle.Coordinator)
}

type system struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens a connection pool against the configured PostgreSQL instance
// and verifies connectivity.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		"host", cfg.Host,
		"port", cfg.Port,
		"name", cfg.Name,
	)

	return &system{
		db:     db,
		logger: logger.With("system", "database"),
	}, nil
}

func (s *system) DB() *sql.DB {
	return s.db
}

// Migrate applies all pending migrations from the provided filesystem.
func (s *system) Migrate(migrations fs.FS) error {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(s.db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	s.logger.Info("migrations applied")
	return nil
}

// Start registers the connection pool for shutdown when the lifecycle ends.
func (s *system) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.db.Close(); err != nil {
			s.logger.Error("closing database", "error", err)
		} else {
			s.logger.Info("database closed")
		}
	})
}
