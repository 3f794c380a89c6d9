// Package frameworks defines the adapter contract that decouples agent
// lifecycle management from concrete execution frameworks, plus the
// registry used to resolve adapters by name.
package frameworks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Instance is an opaque handle to a provisioned agent runtime. Adapters
// return concrete instance types; callers hold them only to pass back
// into the same adapter.
type Instance interface {
	Framework() string
}

// Launch carries the persisted agent definition an adapter needs to
// provision runtime resources.
type Launch struct {
	AgentID     uuid.UUID
	Name        string
	Model       string
	ModelParams json.RawMessage
	Config      json.RawMessage
}

// Adapter is the contract every execution framework implements. All
// methods must be safe for concurrent use.
type Adapter interface {
	// Name returns the framework identifier agents reference.
	Name() string

	// Schema describes the framework-specific configuration fields.
	Schema() Schema

	// ValidateConfig checks a framework configuration without
	// provisioning anything. Returns ErrInvalidConfig on rejection.
	ValidateConfig(config json.RawMessage) error

	// CreateResources provisions a runtime instance for the agent.
	CreateResources(ctx context.Context, launch Launch) (Instance, error)

	// Start activates a provisioned instance.
	Start(ctx context.Context, instance Instance) error

	// Stop tears down a running instance. Implementations release what
	// they can and report the first failure.
	Stop(ctx context.Context, instance Instance) error

	// Query executes a synchronous request against a running instance.
	Query(ctx context.Context, instance Instance, input string) (string, error)
}

// Schema describes the configuration surface of a framework.
type Schema struct {
	Framework string  `json:"framework"`
	Fields    []Field `json:"fields"`
}

// Field describes a single framework configuration field.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}
