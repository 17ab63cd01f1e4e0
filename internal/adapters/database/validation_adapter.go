package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// ValidationAdapter implements ValidationRepository
type ValidationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewValidationAdapter creates a new validation adapter
func NewValidationAdapter(client *postgres.Client) repositories.ValidationRepository {
	return &ValidationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a validation record
func (a *ValidationAdapter) Create(ctx context.Context, validation *entities.PortValidation) error {
	record := goqu.Record{
		"id":             validation.ID,
		"procedure_code": validation.ProcedureCode,
		"suggested_port": validation.SuggestedPort,
		"actual_port":    validation.ActualPort,
		"is_valid":       validation.IsValid,
		"discrepancy":    validation.Discrepancy,
		"severity":       string(validation.Severity),
		"reason":         validation.Reason,
		"validated_by":   validation.ValidatedBy,
		"validated_at":   validation.ValidatedAt,
	}

	query, args, err := a.db.Insert("port_validations").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create validation record", err)
	}

	return nil
}

// ListByCode retrieves validation history for a procedure code, most recent first
func (a *ValidationAdapter) ListByCode(ctx context.Context, procedureCode string, limit int) ([]*entities.PortValidation, error) {
	ds := a.db.Select(
		"id", "procedure_code", "suggested_port", "actual_port", "is_valid",
		"discrepancy", "severity", "reason", "validated_by", "validated_at",
	).From("port_validations").
		Where(goqu.Ex{"procedure_code": procedureCode}).
		Order(goqu.I("validated_at").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list validations", err)
	}
	defer rows.Close()

	var validations []*entities.PortValidation
	for rows.Next() {
		validation := &entities.PortValidation{}
		var severity string
		err := rows.Scan(
			&validation.ID,
			&validation.ProcedureCode,
			&validation.SuggestedPort,
			&validation.ActualPort,
			&validation.IsValid,
			&validation.Discrepancy,
			&severity,
			&validation.Reason,
			&validation.ValidatedBy,
			&validation.ValidatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan validation", err)
		}
		validation.Severity = entities.ValidationSeverity(severity)
		validations = append(validations, validation)
	}

	return validations, nil
}
