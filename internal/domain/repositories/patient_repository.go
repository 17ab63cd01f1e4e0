package repositories

import (
	"context"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create registers a new patient
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// List retrieves active patients
	List(ctx context.Context, limit, offset int) ([]*entities.Patient, error)
}
