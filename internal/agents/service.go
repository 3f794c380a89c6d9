package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/frameworks"
	"github.com/agentdeck/agentdeck/pkg/pagination"
)

type service struct {
	store          Store
	registry       *frameworks.Registry
	controller     *Controller
	logger         *slog.Logger
	maxQueryLength int

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewSystem creates the agents System, orchestrating the store, the
// adapter registry, and the lifecycle controller.
func NewSystem(
	store Store,
	registry *frameworks.Registry,
	controller *Controller,
	logger *slog.Logger,
	maxQueryLength int,
) System {
	return &service{
		store:          store,
		registry:       registry,
		controller:     controller,
		logger:         logger.With("system", "agent"),
		maxQueryLength: maxQueryLength,
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

// lock returns the mutex serializing an agent's lifecycle transitions
// together with their status persistence. Holding it across both steps
// keeps the persisted status and the controller's handle in agreement.
func (s *service) lock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, exists := s.locks[id]
	if !exists {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *service) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

func (s *service) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error) {
	return s.store.List(ctx, page, filters)
}

func (s *service) Find(ctx context.Context, id uuid.UUID) (*Agent, error) {
	return s.store.Find(ctx, id)
}

func (s *service) Create(ctx context.Context, cmd CreateCommand) (*Agent, error) {
	adapter, err := s.registry.Resolve(cmd.Framework)
	if err != nil {
		return nil, err
	}

	if err := adapter.ValidateConfig(cmd.Config); err != nil {
		return nil, err
	}

	return s.store.Create(ctx, cmd)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Agent, error) {
	current, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Resolve(current.Framework)
	if err != nil {
		return nil, err
	}

	merged := *current
	cmd.Apply(&merged)

	if err := adapter.ValidateConfig(merged.Config); err != nil {
		return nil, err
	}

	// a running instance keeps its old configuration until restarted
	return s.store.Update(ctx, id, cmd)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	if _, err := s.store.Find(ctx, id); err != nil {
		return err
	}

	if s.controller.Running(id) {
		if err := s.controller.Stop(ctx, id); err != nil {
			s.logger.Warn("stopping agent before delete", "id", id, "error", err)
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.controller.Remove(id)
	s.forget(id)
	return nil
}

func (s *service) Start(ctx context.Context, id uuid.UUID) (*StatusInfo, error) {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	agent, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.controller.Running(id) {
		return s.statusInfo(agent, StatusRunning), nil
	}

	adapter, err := s.registry.Resolve(agent.Framework)
	if err != nil {
		return nil, err
	}

	if err := s.controller.Start(ctx, agent, adapter); err != nil {
		return nil, err
	}

	if err := s.store.UpdateStatus(ctx, id, StatusRunning); err != nil {
		return nil, err
	}

	return s.statusInfo(agent, StatusRunning), nil
}

func (s *service) Stop(ctx context.Context, id uuid.UUID) (*StatusInfo, error) {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	agent, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	stopErr := s.controller.Stop(ctx, id)

	// the handle is gone either way, so the persisted status follows
	if err := s.store.UpdateStatus(ctx, id, StatusStopped); err != nil {
		return nil, err
	}

	if stopErr != nil {
		return nil, stopErr
	}

	return s.statusInfo(agent, StatusStopped), nil
}

func (s *service) Query(ctx context.Context, id uuid.UUID, input string, timeout time.Duration) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%w: input is required", ErrInvalidInput)
	}
	if len(input) > s.maxQueryLength {
		return "", fmt.Errorf("%w: input exceeds %d characters", ErrInvalidInput, s.maxQueryLength)
	}

	if _, err := s.store.Find(ctx, id); err != nil {
		return "", err
	}

	return s.controller.Query(ctx, id, input, timeout)
}

func (s *service) Status(ctx context.Context, id uuid.UUID) (*StatusInfo, error) {
	agent, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	// the controller is authoritative for live state
	status := StatusStopped
	if s.controller.Running(id) {
		status = StatusRunning
	}

	return s.statusInfo(agent, status), nil
}

func (s *service) ListVersions(ctx context.Context, id uuid.UUID) ([]Version, error) {
	return s.store.ListVersions(ctx, id)
}

func (s *service) Restore(ctx context.Context, id uuid.UUID, number int) (*Version, error) {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	agent, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.store.FindVersion(ctx, id, number)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Resolve(agent.Framework)
	if err != nil {
		return nil, err
	}

	// the target snapshot predates any adapter evolution, so it is
	// validated against the adapter's current schema before it goes live
	if err := adapter.ValidateConfig(target.Config); err != nil {
		return nil, err
	}

	if s.controller.Running(id) {
		if err := s.controller.Stop(ctx, id); err != nil {
			return nil, err
		}
		if err := s.store.UpdateStatus(ctx, id, StatusStopped); err != nil {
			return nil, err
		}
	}

	_, version, err := s.store.Restore(ctx, id, number)
	if err != nil {
		return nil, err
	}

	return version, nil
}

func (s *service) statusInfo(agent *Agent, status Status) *StatusInfo {
	return &StatusInfo{
		ID:        agent.ID,
		Status:    status,
		Framework: agent.Framework,
		Version:   agent.Version,
		LastError: s.controller.LastError(agent.ID),
	}
}
