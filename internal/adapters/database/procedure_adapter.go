package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

var procedureColumns = []interface{}{
	"id", "code", "name", "description", "category", "complexity",
	"estimated_duration", "base_price", "currency", "status",
	"scheduled_date", "performed_date", "requires_authorization",
	"authorization_status", "audit_status", "patient_id", "room",
	"hospital", "complications", "created_by", "updated_by",
	"is_active", "created_at", "updated_at",
}

// ProcedureAdapter implements ProcedureRepository
type ProcedureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProcedureAdapter creates a new procedure adapter
func NewProcedureAdapter(client *postgres.Client) repositories.ProcedureRepository {
	return &ProcedureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new procedure
func (a *ProcedureAdapter) Create(ctx context.Context, procedure *entities.Procedure) error {
	record := goqu.Record{
		"id":                     procedure.ID,
		"code":                   procedure.Code,
		"name":                   procedure.Name,
		"description":            sql.NullString{String: procedure.Description, Valid: procedure.Description != ""},
		"category":               string(procedure.Category),
		"complexity":             string(procedure.Complexity),
		"estimated_duration":     procedure.EstimatedDuration,
		"base_price":             procedure.BasePrice,
		"currency":               procedure.Currency,
		"status":                 string(procedure.Status),
		"scheduled_date":         procedure.ScheduledDate,
		"performed_date":         procedure.PerformedDate,
		"requires_authorization": procedure.RequiresAuthorization,
		"authorization_status":   string(procedure.AuthorizationStatus),
		"audit_status":           string(procedure.AuditStatus),
		"patient_id":             procedure.PatientID,
		"room":                   sql.NullString{String: procedure.Room, Valid: procedure.Room != ""},
		"hospital":               sql.NullString{String: procedure.Hospital, Valid: procedure.Hospital != ""},
		"complications":          sql.NullString{String: procedure.Complications, Valid: procedure.Complications != ""},
		"created_by":             procedure.CreatedBy,
		"updated_by":             procedure.UpdatedBy,
		"is_active":              procedure.IsActive,
		"created_at":             procedure.CreatedAt,
		"updated_at":             procedure.UpdatedAt,
	}

	query, args, err := a.db.Insert("procedures").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create procedure", err)
	}

	return nil
}

// GetByID retrieves a procedure by ID
func (a *ProcedureAdapter) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	return a.getByField(ctx, "id", id)
}

// GetByCode retrieves a procedure by code
func (a *ProcedureAdapter) GetByCode(ctx context.Context, code string) (*entities.Procedure, error) {
	return a.getByField(ctx, "code", code)
}

func (a *ProcedureAdapter) getByField(ctx context.Context, field, value string) (*entities.Procedure, error) {
	query, args, err := a.db.Select(procedureColumns...).
		From("procedures").
		Where(goqu.Ex{field: value}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	procedure, err := scanProcedure(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("procedure with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get procedure", err)
	}

	return procedure, nil
}

// Update updates a procedure
func (a *ProcedureAdapter) Update(ctx context.Context, procedure *entities.Procedure) error {
	procedure.UpdatedAt = time.Now()

	record := goqu.Record{
		"code":                   procedure.Code,
		"name":                   procedure.Name,
		"description":            sql.NullString{String: procedure.Description, Valid: procedure.Description != ""},
		"category":               string(procedure.Category),
		"complexity":             string(procedure.Complexity),
		"estimated_duration":     procedure.EstimatedDuration,
		"base_price":             procedure.BasePrice,
		"currency":               procedure.Currency,
		"status":                 string(procedure.Status),
		"scheduled_date":         procedure.ScheduledDate,
		"performed_date":         procedure.PerformedDate,
		"requires_authorization": procedure.RequiresAuthorization,
		"authorization_status":   string(procedure.AuthorizationStatus),
		"audit_status":           string(procedure.AuditStatus),
		"room":                   sql.NullString{String: procedure.Room, Valid: procedure.Room != ""},
		"hospital":               sql.NullString{String: procedure.Hospital, Valid: procedure.Hospital != ""},
		"complications":          sql.NullString{String: procedure.Complications, Valid: procedure.Complications != ""},
		"updated_by":             procedure.UpdatedBy,
		"is_active":              procedure.IsActive,
		"updated_at":             procedure.UpdatedAt,
	}

	query, args, err := a.db.Update("procedures").
		Set(record).
		Where(goqu.Ex{"id": procedure.ID}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update procedure", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("procedure with id %s not found", procedure.ID))
	}

	return nil
}

// Delete soft-deletes a procedure
func (a *ProcedureAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Update("procedures").
		Set(goqu.Record{
			"is_active":  false,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id, "is_active": true}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete procedure", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("procedure with id %s not found", id))
	}

	return nil
}

// List retrieves procedures matching the filter
func (a *ProcedureAdapter) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	ds := a.applyFilter(a.db.Select(procedureColumns...).From("procedures"), filter)
	ds = applyOrder(ds, filter.OrderBy)

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list procedures", err)
	}
	defer rows.Close()

	var procedures []*entities.Procedure
	for rows.Next() {
		procedure, err := scanProcedure(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan procedure", err)
		}
		procedures = append(procedures, procedure)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating procedures", err)
	}

	return procedures, nil
}

// Count counts procedures matching the filter
func (a *ProcedureAdapter) Count(ctx context.Context, filter repositories.ProcedureFilter) (int, error) {
	ds := a.applyFilter(a.db.Select(goqu.COUNT("*")).From("procedures"), filter)

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count procedures", err)
	}

	return count, nil
}

func (a *ProcedureAdapter) applyFilter(ds *goqu.SelectDataset, filter repositories.ProcedureFilter) *goqu.SelectDataset {
	if !filter.IncludeInactive {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": string(filter.Category)})
	}
	if filter.Complexity != "" {
		ds = ds.Where(goqu.Ex{"complexity": string(filter.Complexity)})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.Ex{"status": statuses})
	}
	if filter.OnlyPerformed {
		ds = ds.Where(goqu.I("performed_date").IsNotNull())
	}
	if filter.PerformedAfter != nil {
		ds = ds.Where(goqu.I("performed_date").Gte(*filter.PerformedAfter))
	}
	if filter.PerformedBefore != nil {
		ds = ds.Where(goqu.I("performed_date").Lte(*filter.PerformedBefore))
	}
	if filter.ScheduledAfter != nil {
		ds = ds.Where(goqu.I("scheduled_date").Gte(*filter.ScheduledAfter))
	}
	if filter.ScheduledBefore != nil {
		ds = ds.Where(goqu.I("scheduled_date").Lte(*filter.ScheduledBefore))
	}
	if filter.CreatedAfter != nil {
		ds = ds.Where(goqu.I("created_at").Gte(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		ds = ds.Where(goqu.I("created_at").Lte(*filter.CreatedBefore))
	}
	return ds
}

func applyOrder(ds *goqu.SelectDataset, order repositories.ProcedureOrder) *goqu.SelectDataset {
	switch order {
	case repositories.OrderCreatedDesc:
		return ds.Order(goqu.I("created_at").Desc())
	case repositories.OrderPerformedDesc:
		return ds.Order(goqu.I("performed_date").Desc())
	case repositories.OrderScheduledAsc:
		return ds.Order(goqu.I("scheduled_date").Asc())
	default:
		return ds.Order(goqu.I("created_at").Asc())
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcedure(row rowScanner) (*entities.Procedure, error) {
	procedure := &entities.Procedure{}
	var description, room, hospital, complications sql.NullString
	var scheduledDate, performedDate sql.NullTime
	var category, complexity, status, authStatus, auditStatus string

	err := row.Scan(
		&procedure.ID,
		&procedure.Code,
		&procedure.Name,
		&description,
		&category,
		&complexity,
		&procedure.EstimatedDuration,
		&procedure.BasePrice,
		&procedure.Currency,
		&status,
		&scheduledDate,
		&performedDate,
		&procedure.RequiresAuthorization,
		&authStatus,
		&auditStatus,
		&procedure.PatientID,
		&room,
		&hospital,
		&complications,
		&procedure.CreatedBy,
		&procedure.UpdatedBy,
		&procedure.IsActive,
		&procedure.CreatedAt,
		&procedure.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	procedure.Description = description.String
	procedure.Room = room.String
	procedure.Hospital = hospital.String
	procedure.Complications = complications.String
	procedure.Category = entities.Category(category)
	procedure.Complexity = entities.Complexity(complexity)
	procedure.Status = entities.ProcedureStatus(status)
	procedure.AuthorizationStatus = entities.AuthorizationStatus(authStatus)
	procedure.AuditStatus = entities.AuditStatus(auditStatus)
	if scheduledDate.Valid {
		t := scheduledDate.Time
		procedure.ScheduledDate = &t
	}
	if performedDate.Valid {
		t := performedDate.Time
		procedure.PerformedDate = &t
	}

	return procedure, nil
}
