package agents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/pagination"
	"github.com/agentdeck/agentdeck/pkg/query"
	"github.com/agentdeck/agentdeck/pkg/repository"
)

const agentColumns = `id, name, description, framework, model, model_params, config, status, version, created_at, updated_at`

const versionColumns = `id, agent_id, version_number, name, description, model, model_params, config, is_current, created_at`

type store struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewStore creates the PostgreSQL-backed agent store.
func NewStore(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Store {
	return &store{
		db:         db,
		logger:     logger.With("system", "agent"),
		pagination: pagination,
	}
}

func (s *store) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error) {
	page.Normalize(s.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSql, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSql, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	agents, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanAgent)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}

	result := pagination.NewPageResult(agents, total, page.Page, page.PageSize)
	return &result, nil
}

func (s *store) Find(ctx context.Context, id uuid.UUID) (*Agent, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle("Id", id)

	a, err := repository.QueryOne(ctx, s.db, q, args, scanAgent)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (s *store) Create(ctx context.Context, cmd CreateCommand) (*Agent, error) {
	q := fmt.Sprintf(`
		INSERT INTO agents (name, description, framework, model, model_params, config, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING %s`, agentColumns)

	a, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Agent, error) {
		a, err := repository.QueryOne(ctx, tx, q, []any{
			cmd.Name, cmd.Description, cmd.Framework, cmd.Model,
			cmd.ModelParams, cmd.Config, StatusStopped,
		}, scanAgent)
		if err != nil {
			return a, err
		}

		if _, err := s.insertSnapshot(ctx, tx, &a, 1, true); err != nil {
			return a, err
		}
		return a, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.logger.Info("agent created", "id", a.ID, "name", a.Name, "framework", a.Framework)
	return &a, nil
}

func (s *store) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Agent, error) {
	a, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Agent, error) {
		current, err := s.loadForUpdate(ctx, tx, id)
		if err != nil {
			return Agent{}, err
		}

		merged := *current
		cmd.Apply(&merged)

		next, err := s.nextVersionNumber(ctx, tx, id)
		if err != nil {
			return Agent{}, err
		}

		a, err := s.writeAgent(ctx, tx, &merged, next)
		if err != nil {
			return Agent{}, err
		}

		if err := s.clearCurrent(ctx, tx, id); err != nil {
			return Agent{}, err
		}
		if _, err := s.insertSnapshot(ctx, tx, &a, next, true); err != nil {
			return Agent{}, err
		}
		return a, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.logger.Info("agent updated", "id", a.ID, "name", a.Name, "version", a.Version)
	return &a, nil
}

func (s *store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, "DELETE FROM agents WHERE id = $1", id)
		return struct{}{}, err
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.logger.Info("agent deleted", "id", id)
	return nil
}

func (s *store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	err := repository.ExecExpectOne(ctx, s.db,
		"UPDATE agents SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (s *store) ListVersions(ctx context.Context, agentID uuid.UUID) ([]Version, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM agent_versions
		WHERE agent_id = $1
		ORDER BY version_number DESC`, versionColumns)

	versions, err := repository.QueryMany(ctx, s.db, q, []any{agentID}, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}

	if len(versions) == 0 {
		// distinguish a missing agent from one with no history
		if _, err := s.Find(ctx, agentID); err != nil {
			return nil, err
		}
	}
	return versions, nil
}

func (s *store) FindVersion(ctx context.Context, agentID uuid.UUID, number int) (*Version, error) {
	v, err := s.findVersion(ctx, s.db, agentID, number)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *store) Restore(ctx context.Context, agentID uuid.UUID, number int) (*Agent, *Version, error) {
	type restored struct {
		agent   Agent
		version Version
	}

	result, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (restored, error) {
		current, err := s.loadForUpdate(ctx, tx, agentID)
		if err != nil {
			return restored{}, err
		}

		target, err := s.findVersion(ctx, tx, agentID, number)
		if err != nil {
			return restored{}, err
		}

		next, err := s.nextVersionNumber(ctx, tx, agentID)
		if err != nil {
			return restored{}, err
		}

		// preserve the abandoned state before overwriting it
		if _, err := s.insertSnapshot(ctx, tx, current, next, false); err != nil {
			return restored{}, err
		}

		merged := *current
		merged.Name = target.Name
		merged.Description = target.Description
		merged.Model = target.Model
		merged.ModelParams = target.ModelParams
		merged.Config = target.Config

		a, err := s.writeAgent(ctx, tx, &merged, next+1)
		if err != nil {
			return restored{}, err
		}

		if err := s.clearCurrent(ctx, tx, agentID); err != nil {
			return restored{}, err
		}

		v, err := s.insertSnapshot(ctx, tx, &a, next+1, true)
		if err != nil {
			return restored{}, err
		}

		return restored{agent: a, version: *v}, nil
	})

	if err != nil {
		return nil, nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.logger.Info("agent restored",
		"id", agentID,
		"target_version", number,
		"new_version", result.version.VersionNumber,
	)
	return &result.agent, &result.version, nil
}

// loadForUpdate locks the agent row for the duration of the transaction,
// serializing version numbering against concurrent writers.
func (s *store) loadForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*Agent, error) {
	q := fmt.Sprintf(`SELECT %s FROM agents WHERE id = $1 FOR UPDATE`, agentColumns)

	a, err := repository.QueryOne(ctx, tx, q, []any{id}, scanAgent)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (s *store) nextVersionNumber(ctx context.Context, tx *sql.Tx, agentID uuid.UUID) (int, error) {
	var next int
	err := tx.
		QueryRowContext(ctx, "SELECT COALESCE(MAX(version_number), 0) + 1 FROM agent_versions WHERE agent_id = $1", agentID).
		Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next version number: %w", err)
	}
	return next, nil
}

func (s *store) writeAgent(ctx context.Context, tx *sql.Tx, a *Agent, version int) (Agent, error) {
	q := fmt.Sprintf(`
		UPDATE agents
		SET name = $1, description = $2, model = $3, model_params = $4,
			config = $5, version = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING %s`, agentColumns)

	return repository.QueryOne(ctx, tx, q, []any{
		a.Name, a.Description, a.Model, a.ModelParams, a.Config, version, a.ID,
	}, scanAgent)
}

func (s *store) clearCurrent(ctx context.Context, tx *sql.Tx, agentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE agent_versions SET is_current = FALSE WHERE agent_id = $1 AND is_current",
		agentID,
	)
	if err != nil {
		return fmt.Errorf("clear current version: %w", err)
	}
	return nil
}

func (s *store) insertSnapshot(ctx context.Context, tx *sql.Tx, a *Agent, number int, current bool) (*Version, error) {
	q := fmt.Sprintf(`
		INSERT INTO agent_versions (agent_id, version_number, name, description, model, model_params, config, is_current)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, versionColumns)

	v, err := repository.QueryOne(ctx, tx, q, []any{
		a.ID, number, a.Name, a.Description, a.Model, a.ModelParams, a.Config, current,
	}, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return &v, nil
}

func (s *store) findVersion(ctx context.Context, q repository.Querier, agentID uuid.UUID, number int) (*Version, error) {
	sqlq := fmt.Sprintf(`
		SELECT %s FROM agent_versions
		WHERE agent_id = $1 AND version_number = $2`, versionColumns)

	v, err := repository.QueryOne(ctx, q, sqlq, []any{agentID, number}, scanVersion)
	if err != nil {
		return nil, repository.MapError(err, ErrVersionNotFound, ErrDuplicate)
	}
	return &v, nil
}
