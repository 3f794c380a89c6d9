package agents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/pagination"
)

// System defines the interface for agent definition, lifecycle, and
// version history operations.
type System interface {
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error)
	Find(ctx context.Context, id uuid.UUID) (*Agent, error)
	Create(ctx context.Context, cmd CreateCommand) (*Agent, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Agent, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Start(ctx context.Context, id uuid.UUID) (*StatusInfo, error)
	Stop(ctx context.Context, id uuid.UUID) (*StatusInfo, error)
	Query(ctx context.Context, id uuid.UUID, input string, timeout time.Duration) (string, error)
	Status(ctx context.Context, id uuid.UUID) (*StatusInfo, error)

	ListVersions(ctx context.Context, id uuid.UUID) ([]Version, error)
	Restore(ctx context.Context, id uuid.UUID, number int) (*Version, error)
}
