package repositories

import (
	"context"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// ValidationRepository persists port validation verdicts. Records are
// immutable once written.
type ValidationRepository interface {
	// Create stores a validation record
	Create(ctx context.Context, validation *entities.PortValidation) error

	// ListByCode retrieves validation history for a procedure code,
	// most recent first
	ListByCode(ctx context.Context, procedureCode string, limit int) ([]*entities.PortValidation, error)
}
