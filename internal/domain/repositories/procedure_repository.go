package repositories

import (
	"context"
	"time"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// ProcedureRepository defines the interface for procedure data operations
type ProcedureRepository interface {
	// Create creates a new procedure record
	Create(ctx context.Context, procedure *entities.Procedure) error

	// GetByID retrieves a procedure by ID
	GetByID(ctx context.Context, id string) (*entities.Procedure, error)

	// GetByCode retrieves a procedure by its human-assigned code
	GetByCode(ctx context.Context, code string) (*entities.Procedure, error)

	// Update updates a procedure
	Update(ctx context.Context, procedure *entities.Procedure) error

	// Delete soft-deletes a procedure
	Delete(ctx context.Context, id string) error

	// List retrieves procedures matching the filter
	List(ctx context.Context, filter ProcedureFilter) ([]*entities.Procedure, error)

	// Count counts procedures matching the filter
	Count(ctx context.Context, filter ProcedureFilter) (int, error)
}

// ProcedureFilter defines filters for querying procedures. Time ranges are
// inclusive on both ends.
type ProcedureFilter struct {
	PatientID        string
	Category         entities.Category
	Statuses         []entities.ProcedureStatus
	Complexity       entities.Complexity
	PerformedAfter   *time.Time
	PerformedBefore  *time.Time
	ScheduledAfter   *time.Time
	ScheduledBefore  *time.Time
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
	OnlyPerformed    bool
	IncludeInactive  bool
	OrderBy          ProcedureOrder
	Limit            int
	Offset           int
}

// ProcedureOrder selects the result ordering for List
type ProcedureOrder string

const (
	OrderCreatedAsc    ProcedureOrder = "created_asc"
	OrderCreatedDesc   ProcedureOrder = "created_desc"
	OrderPerformedDesc ProcedureOrder = "performed_desc"
	OrderScheduledAsc  ProcedureOrder = "scheduled_asc"
)
