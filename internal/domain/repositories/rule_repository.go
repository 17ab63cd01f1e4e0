package repositories

import (
	"context"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// RuleRepository defines the interface for port validation rule lookups.
// The classification engine only ever reads rules; writes belong to the
// rule administration surface.
type RuleRepository interface {
	// GetActiveByCode retrieves the active rule for a procedure code.
	// Returns a NotFound error when no active rule exists.
	GetActiveByCode(ctx context.Context, procedureCode string) (*entities.PortValidationRule, error)

	// Create creates a new rule
	Create(ctx context.Context, rule *entities.PortValidationRule) error

	// Update updates an existing rule
	Update(ctx context.Context, rule *entities.PortValidationRule) error

	// List retrieves all rules
	List(ctx context.Context, limit, offset int) ([]*entities.PortValidationRule, error)
}
