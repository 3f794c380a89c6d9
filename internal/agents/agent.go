// Package agents provides the domain system for managing versioned agent
// definitions and their runtime lifecycle across execution frameworks.
package agents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an agent.
type Status string

// Agent lifecycle states.
const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Agent represents a versioned agent definition bound to one execution
// framework. Config is the framework-specific configuration blob owned
// and validated by the framework's adapter.
type Agent struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Framework   string          `json:"framework"`
	Model       string          `json:"model"`
	ModelParams json.RawMessage `json:"model_params"`
	Config      json.RawMessage `json:"config"`
	Status      Status          `json:"status"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Version is an immutable snapshot of an agent's mutable fields at a
// point in time. Exactly one version per agent is current.
type Version struct {
	ID            uuid.UUID       `json:"id"`
	AgentID       uuid.UUID       `json:"agent_id"`
	VersionNumber int             `json:"version_number"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Model         string          `json:"model"`
	ModelParams   json.RawMessage `json:"model_params"`
	Config        json.RawMessage `json:"config"`
	IsCurrent     bool            `json:"is_current"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StatusInfo reports an agent's live runtime state.
type StatusInfo struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	Framework string    `json:"framework"`
	Version   int       `json:"version"`
	LastError *string   `json:"last_error,omitempty"`
}

// CreateCommand contains the data required to create a new agent.
type CreateCommand struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Framework   string          `json:"framework"`
	Model       string          `json:"model"`
	ModelParams json.RawMessage `json:"model_params"`
	Config      json.RawMessage `json:"config"`
}

// UpdateCommand contains a partial update of an agent's mutable fields.
// Nil fields are left unchanged.
type UpdateCommand struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Model       *string         `json:"model,omitempty"`
	ModelParams json.RawMessage `json:"model_params,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Apply merges the command's populated fields onto the agent.
func (cmd UpdateCommand) Apply(a *Agent) {
	if cmd.Name != nil {
		a.Name = *cmd.Name
	}
	if cmd.Description != nil {
		a.Description = *cmd.Description
	}
	if cmd.Model != nil {
		a.Model = *cmd.Model
	}
	if cmd.ModelParams != nil {
		a.ModelParams = cmd.ModelParams
	}
	if cmd.Config != nil {
		a.Config = cmd.Config
	}
}
