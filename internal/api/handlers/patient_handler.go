package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
)

// PatientHandler handles patient-related HTTP requests
type PatientHandler struct {
	patientRepo repositories.PatientRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientRepo repositories.PatientRepository) *PatientHandler {
	return &PatientHandler{
		patientRepo: patientRepo,
	}
}

type createPatientRequest struct {
	Name      string     `json:"name"`
	Document  string     `json:"document"`
	BirthDate *time.Time `json:"birth_date"`
}

// CreatePatient handles POST /api/patients
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "patient name is required")
		return
	}

	now := time.Now()
	patient := &entities.Patient{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Document:  req.Document,
		BirthDate: req.BirthDate,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.patientRepo.Create(r.Context(), patient); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /api/patients/:id
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	patient, err := h.patientRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patientRepo.List(r.Context(), parseIntParam(r, "limit", 30), parseIntParam(r, "offset", 0))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}
