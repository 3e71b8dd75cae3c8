package escalations

import (
	"context"

	"github.com/google/uuid"

	"github.com/kcvinod/triage/pkg/pagination"
)

// System defines the public contract for escalation domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Escalation], error)

	Find(ctx context.Context, id uuid.UUID) (*Escalation, error)
	Record(ctx context.Context, cmd RecordCommand) (*Escalation, error)
	Resolve(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Escalation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
