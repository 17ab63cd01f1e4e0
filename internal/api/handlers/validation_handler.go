package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// PortValidationService defines the interface for port validation operations
type PortValidationService interface {
	Validate(ctx context.Context, procedureCode string, reportedPort int, validatedBy string) (*entities.PortValidation, error)
	History(ctx context.Context, procedureCode string, limit int) ([]*entities.PortValidation, error)
	CreateRule(ctx context.Context, rule *entities.PortValidationRule) error
	UpdateRule(ctx context.Context, rule *entities.PortValidationRule) error
	ListRules(ctx context.Context, limit, offset int) ([]*entities.PortValidationRule, error)
}

// ValidationHandler handles port validation HTTP requests
type ValidationHandler struct {
	service PortValidationService
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(service PortValidationService) *ValidationHandler {
	return &ValidationHandler{
		service: service,
	}
}

type validatePortRequest struct {
	ProcedureCode string `json:"procedure_code"`
	ReportedPort  int    `json:"reported_port"`
	ValidatedBy   string `json:"validated_by"`
}

// ValidatePort handles POST /api/port-validations
func (h *ValidationHandler) ValidatePort(w http.ResponseWriter, r *http.Request) {
	var req validatePortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	validation, err := h.service.Validate(r.Context(), req.ProcedureCode, req.ReportedPort, req.ValidatedBy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, validation)
}

// GetHistory handles GET /api/port-validations/:code
func (h *ValidationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "procedure code is required")
		return
	}

	validations, err := h.service.History(r.Context(), code, parseIntParam(r, "limit", 50))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"validations": validations,
		"count":       len(validations),
	})
}

type ruleRequest struct {
	ProcedureCode   string `json:"procedure_code"`
	MinimumPort     int    `json:"minimum_port"`
	MaximumPort     int    `json:"maximum_port"`
	RecommendedPort int    `json:"recommended_port"`
	IsActive        *bool  `json:"is_active"`
}

// CreateRule handles POST /api/port-validation-rules
func (h *ValidationHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	rule := &entities.PortValidationRule{
		ProcedureCode:   req.ProcedureCode,
		MinimumPort:     req.MinimumPort,
		MaximumPort:     req.MaximumPort,
		RecommendedPort: req.RecommendedPort,
		IsActive:        true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.service.CreateRule(r.Context(), rule); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/port-validation-rules/:id
func (h *ValidationHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "rule ID is required")
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	rule := &entities.PortValidationRule{
		ID:              id,
		ProcedureCode:   req.ProcedureCode,
		MinimumPort:     req.MinimumPort,
		MaximumPort:     req.MaximumPort,
		RecommendedPort: req.RecommendedPort,
		IsActive:        true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.service.UpdateRule(r.Context(), rule); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rule)
}

// ListRules handles GET /api/port-validation-rules
func (h *ValidationHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListRules(r.Context(), parseIntParam(r, "limit", 50), parseIntParam(r, "offset", 0))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}
