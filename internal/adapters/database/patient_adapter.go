package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// PatientAdapter implements PatientRepository
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create registers a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	record := goqu.Record{
		"id":         patient.ID,
		"name":       patient.Name,
		"document":   patient.Document,
		"birth_date": patient.BirthDate,
		"is_active":  patient.IsActive,
		"created_at": patient.CreatedAt,
		"updated_at": patient.UpdatedAt,
	}

	query, args, err := a.db.Insert("patients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(
		"id", "name", "document", "birth_date", "is_active", "created_at", "updated_at",
	).From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient := &entities.Patient{}
	var birthDate sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&patient.ID,
		&patient.Name,
		&patient.Document,
		&birthDate,
		&patient.IsActive,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	if birthDate.Valid {
		t := birthDate.Time
		patient.BirthDate = &t
	}

	return patient, nil
}

// List retrieves active patients
func (a *PatientAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Patient, error) {
	ds := a.db.Select(
		"id", "name", "document", "birth_date", "is_active", "created_at", "updated_at",
	).From("patients").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("name").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		patient := &entities.Patient{}
		var birthDate sql.NullTime

		err := rows.Scan(
			&patient.ID,
			&patient.Name,
			&patient.Document,
			&birthDate,
			&patient.IsActive,
			&patient.CreatedAt,
			&patient.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}

		if birthDate.Valid {
			t := birthDate.Time
			patient.BirthDate = &t
		}

		patients = append(patients, patient)
	}

	return patients, nil
}
