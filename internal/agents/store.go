package agents

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/pagination"
)

// Store is the persistence port for agents and their version history.
// Mutating operations that touch both tables are atomic: an agent is
// never persisted without its snapshot, and the current-version flag
// moves in the same transaction as the write that invalidates it.
type Store interface {
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error)
	Find(ctx context.Context, id uuid.UUID) (*Agent, error)

	// Create persists the agent and its initial snapshot as version 1.
	Create(ctx context.Context, cmd CreateCommand) (*Agent, error)

	// Update applies the partial command and snapshots the result as a
	// new current version.
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Agent, error)

	// Delete removes the agent and cascades its versions.
	Delete(ctx context.Context, id uuid.UUID) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// ListVersions returns the agent's versions, newest first.
	ListVersions(ctx context.Context, agentID uuid.UUID) ([]Version, error)
	FindVersion(ctx context.Context, agentID uuid.UUID, number int) (*Version, error)

	// Restore snapshots the live state, applies the target version's
	// fields, and snapshots the restored state as current. The target
	// version's record is never mutated.
	Restore(ctx context.Context, agentID uuid.UUID, number int) (*Agent, *Version, error)
}
