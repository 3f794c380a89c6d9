package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/frameworks"
)

// Controller owns the running instances of agents. It is the only holder
// of adapter handles; every transition and query goes through a per-agent
// lock so a stop can never race a start or destroy a handle mid-query.
type Controller struct {
	mu           sync.Mutex
	entries      map[uuid.UUID]*entry
	queryTimeout time.Duration
	logger       *slog.Logger
}

type entry struct {
	mu       sync.RWMutex
	adapter  frameworks.Adapter
	instance frameworks.Instance

	errMu   sync.Mutex
	lastErr *string
}

// NewController creates a lifecycle controller with the given query
// timeout bound.
func NewController(queryTimeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		entries:      make(map[uuid.UUID]*entry),
		queryTimeout: queryTimeout,
		logger:       logger.With("system", "lifecycle"),
	}
}

// Running reports whether the agent has a live instance.
func (c *Controller) Running(id uuid.UUID) bool {
	e := c.lookup(id)
	if e == nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.instance != nil
}

// LastError returns the most recent runtime failure for the agent, if any.
func (c *Controller) LastError(id uuid.UUID) *string {
	e := c.lookup(id)
	if e == nil {
		return nil
	}

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

// Start provisions and activates an instance for the agent. Starting an
// already-running agent is a no-op.
func (c *Controller) Start(ctx context.Context, agent *Agent, adapter frameworks.Adapter) error {
	e := c.entry(agent.ID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance != nil {
		return nil
	}

	launch := frameworks.Launch{
		AgentID:     agent.ID,
		Name:        agent.Name,
		Model:       agent.Model,
		ModelParams: agent.ModelParams,
		Config:      agent.Config,
	}

	instance, err := adapter.CreateResources(ctx, launch)
	if err != nil {
		e.record(err)
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	if err := adapter.Start(ctx, instance); err != nil {
		e.record(err)
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	e.adapter = adapter
	e.instance = instance
	e.clear()

	c.logger.Info("agent started", "id", agent.ID, "framework", agent.Framework)
	return nil
}

// Stop tears down the agent's instance. The handle is discarded even if
// the adapter fails partway, so a stuck instance can never block future
// starts; the failure is still reported.
func (c *Controller) Stop(ctx context.Context, id uuid.UUID) error {
	e := c.lookup(id)
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance == nil {
		return nil
	}

	instance := e.instance
	adapter := e.adapter
	e.instance = nil
	e.adapter = nil

	if err := adapter.Stop(ctx, instance); err != nil {
		e.record(err)
		return fmt.Errorf("%w: %v", ErrStopFailed, err)
	}

	c.logger.Info("agent stopped", "id", id)
	return nil
}

// Query forwards input to the agent's running instance under a read
// lock. The timeout defaults to the configured bound; a per-request
// timeout may shorten it but never exceed it. A timeout or query
// failure leaves the instance intact and usable.
func (c *Controller) Query(ctx context.Context, id uuid.UUID, input string, timeout time.Duration) (string, error) {
	e := c.lookup(id)
	if e == nil {
		return "", fmt.Errorf("%w: agent is not running", ErrInvalidState)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.instance == nil {
		return "", fmt.Errorf("%w: agent is not running", ErrInvalidState)
	}

	if timeout <= 0 || timeout > c.queryTimeout {
		timeout = c.queryTimeout
	}

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := e.adapter.Query(queryCtx, e.instance, input)
	if err != nil {
		e.record(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrQueryTimeout, timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	return output, nil
}

// Remove discards the agent's controller state, including any recorded
// last error. The caller must have stopped the agent first.
func (c *Controller) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Shutdown stops every running instance. Used to drain the controller
// when the process exits.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	ids := make([]uuid.UUID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		if err := c.Stop(ctx, id); err != nil {
			c.logger.Error("stopping agent during shutdown", "id", id, "error", err)
		}
	}
}

func (c *Controller) entry(id uuid.UUID) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[id]
	if !exists {
		e = &entry{}
		c.entries[id] = e
	}
	return e
}

func (c *Controller) lookup(id uuid.UUID) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[id]
}

func (e *entry) record(err error) {
	msg := err.Error()
	e.errMu.Lock()
	e.lastErr = &msg
	e.errMu.Unlock()
}

func (e *entry) clear() {
	e.errMu.Lock()
	e.lastErr = nil
	e.errMu.Unlock()
}
