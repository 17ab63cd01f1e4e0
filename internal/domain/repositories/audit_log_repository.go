package repositories

import (
	"context"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// AuditLogRepository is the append-only audit trail. The engine writes
// entries for every state-changing action; it never reads them back.
type AuditLogRepository interface {
	// Append writes a new audit entry
	Append(ctx context.Context, entry *entities.AuditLog) error

	// ListByEntity retrieves audit entries for one entity, most recent first
	ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]*entities.AuditLog, error)
}
