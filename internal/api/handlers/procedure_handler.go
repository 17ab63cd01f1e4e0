package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hospitalcore/surgical-procedures/internal/application/services"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// ProcedureService defines the interface for procedure operations
type ProcedureService interface {
	Create(ctx context.Context, req services.CreateProcedureRequest) (*entities.Procedure, error)
	Get(ctx context.Context, id string) (*entities.Procedure, error)
	List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error)
	ConfirmPorte(ctx context.Context, id string, confirmation services.PorteConfirmation) (*entities.Procedure, error)
	UpdateStatus(ctx context.Context, id string, newStatus entities.ProcedureStatus, actor string) (*entities.Procedure, error)
	Delete(ctx context.Context, id, actor string) error
	PendingSummary(ctx context.Context, recentLimit int) (*services.PendingSummary, error)
}

// ProcedureHandler handles procedure-related HTTP requests
type ProcedureHandler struct {
	service ProcedureService
}

// NewProcedureHandler creates a new procedure handler
func NewProcedureHandler(service ProcedureService) *ProcedureHandler {
	return &ProcedureHandler{
		service: service,
	}
}

type createProcedureRequest struct {
	Code                  string     `json:"code"`
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	Category              string     `json:"category"`
	Complexity            string     `json:"complexity"`
	EstimatedDuration     int        `json:"estimated_duration"`
	ScheduledDate         *time.Time `json:"scheduled_date"`
	RequiresAuthorization bool       `json:"requires_authorization"`
	PatientID             string     `json:"patient_id"`
	Room                  string     `json:"room"`
	Hospital              string     `json:"hospital"`
	CreatedBy             string     `json:"created_by"`
}

// CreateProcedure handles POST /api/procedures
func (h *ProcedureHandler) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	var req createProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	procedure, err := h.service.Create(r.Context(), services.CreateProcedureRequest{
		Code:                  req.Code,
		Name:                  req.Name,
		Description:           req.Description,
		Category:              entities.Category(req.Category),
		Complexity:            entities.Complexity(req.Complexity),
		EstimatedDuration:     req.EstimatedDuration,
		ScheduledDate:         req.ScheduledDate,
		RequiresAuthorization: req.RequiresAuthorization,
		PatientID:             req.PatientID,
		Room:                  req.Room,
		Hospital:              req.Hospital,
		CreatedBy:             req.CreatedBy,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, procedure)
}

// GetProcedure handles GET /api/procedures/:id
func (h *ProcedureHandler) GetProcedure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "procedure ID is required")
		return
	}

	procedure, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, procedure)
}

// ListProcedures handles GET /api/procedures
func (h *ProcedureHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProcedureFilter{
		PatientID:  r.URL.Query().Get("patient_id"),
		Category:   entities.Category(r.URL.Query().Get("category")),
		Complexity: entities.Complexity(r.URL.Query().Get("complexity")),
		Limit:      parseIntParam(r, "limit", 30),
		Offset:     parseIntParam(r, "offset", 0),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		parsed, err := entities.ParseProcedureStatus(status)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Statuses = []entities.ProcedureStatus{parsed}
	}

	procedures, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": procedures,
		"count":      len(procedures),
	})
}

type confirmPorteRequest struct {
	Complexity        string  `json:"complexity"`
	EstimatedDuration int     `json:"estimated_duration"`
	BasePrice         float64 `json:"base_price"`
	ConfirmedBy       string  `json:"confirmed_by"`
}

// ConfirmPorte handles POST /api/procedures/:id/confirm-porte
func (h *ProcedureHandler) ConfirmPorte(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "procedure ID is required")
		return
	}

	var req confirmPorteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	procedure, err := h.service.ConfirmPorte(r.Context(), id, services.PorteConfirmation{
		Complexity:        entities.Complexity(req.Complexity),
		EstimatedDuration: req.EstimatedDuration,
		BasePrice:         req.BasePrice,
		ConfirmedBy:       req.ConfirmedBy,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, procedure)
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	UpdatedBy string `json:"updated_by"`
}

// UpdateStatus handles PATCH /api/procedures/:id/status
func (h *ProcedureHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "procedure ID is required")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	procedure, err := h.service.UpdateStatus(r.Context(), id, entities.ProcedureStatus(req.Status), req.UpdatedBy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, procedure)
}

// DeleteProcedure handles DELETE /api/procedures/:id
func (h *ProcedureHandler) DeleteProcedure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "procedure ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), id, r.URL.Query().Get("actor")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPendingSummary handles GET /api/procedures/pending-summary
func (h *ProcedureHandler) GetPendingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.PendingSummary(r.Context(), parseIntParam(r, "limit", 10))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps application errors to HTTP status codes
func respondWithServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
