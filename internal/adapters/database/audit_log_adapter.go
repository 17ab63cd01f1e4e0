package database

import (
	"context"
	"encoding/json"

	"github.com/doug-martin/goqu/v9"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// AuditLogAdapter implements AuditLogRepository. Old and new values are
// stored as JSONB columns.
type AuditLogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAuditLogAdapter creates a new audit log adapter
func NewAuditLogAdapter(client *postgres.Client) repositories.AuditLogRepository {
	return &AuditLogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append writes a new audit entry
func (a *AuditLogAdapter) Append(ctx context.Context, entry *entities.AuditLog) error {
	oldValues, err := json.Marshal(entry.OldValues)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal old values", err)
	}
	newValues, err := json.Marshal(entry.NewValues)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal new values", err)
	}

	record := goqu.Record{
		"id":           entry.ID,
		"action":       string(entry.Action),
		"entity":       entry.Entity,
		"entity_id":    entry.EntityID,
		"old_values":   oldValues,
		"new_values":   newValues,
		"performed_by": entry.PerformedBy,
		"created_at":   entry.CreatedAt,
	}

	query, args, err := a.db.Insert("audit_logs").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to append audit entry", err)
	}

	return nil
}

// ListByEntity retrieves audit entries for one entity, most recent first
func (a *AuditLogAdapter) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]*entities.AuditLog, error) {
	ds := a.db.Select(
		"id", "action", "entity", "entity_id", "old_values", "new_values",
		"performed_by", "created_at",
	).From("audit_logs").
		Where(goqu.Ex{"entity": entity, "entity_id": entityID}).
		Order(goqu.I("created_at").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list audit entries", err)
	}
	defer rows.Close()

	var entries []*entities.AuditLog
	for rows.Next() {
		entry := &entities.AuditLog{}
		var action string
		var oldValues, newValues []byte

		err := rows.Scan(
			&entry.ID,
			&action,
			&entry.Entity,
			&entry.EntityID,
			&oldValues,
			&newValues,
			&entry.PerformedBy,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan audit entry", err)
		}

		entry.Action = entities.AuditAction(action)
		if len(oldValues) > 0 {
			if err := json.Unmarshal(oldValues, &entry.OldValues); err != nil {
				return nil, apperrors.NewInternalError("failed to unmarshal old values", err)
			}
		}
		if len(newValues) > 0 {
			if err := json.Unmarshal(newValues, &entry.NewValues); err != nil {
				return nil, apperrors.NewInternalError("failed to unmarshal new values", err)
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
