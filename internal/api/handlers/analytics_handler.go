package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hospitalcore/surgical-procedures/internal/application/services"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// AnalyticsService defines the interface for analytics operations
type AnalyticsService interface {
	TopProcedures(ctx context.Context, period string, date time.Time, limit int) ([]services.TopProcedureEntry, error)
	Statistics(ctx context.Context, period string, date time.Time) (*services.PeriodStatistics, error)
	Efficiency(ctx context.Context, period string, date time.Time) (*services.EfficiencyMetrics, error)
	AnalyzeCategory(ctx context.Context, category entities.Category, period string, date time.Time) (*services.CategoryAnalysis, error)
	ProceduresByPeriod(ctx context.Context, period string, date time.Time, statusFilter *entities.ProcedureStatus) ([]*entities.Procedure, error)
}

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	service AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// periodParams reads the period and reference date shared by all analytics
// endpoints. The date defaults to today; the period defaults to month.
func periodParams(r *http.Request) (string, time.Time, error) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = services.PeriodMonth
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", time.Time{}, err
		}
		date = parsed
	}

	return period, date, nil
}

// GetTopProcedures handles GET /api/analytics/top-procedures
func (h *AnalyticsHandler) GetTopProcedures(w http.ResponseWriter, r *http.Request) {
	period, date, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	entries, err := h.service.TopProcedures(r.Context(), period, date, parseIntParam(r, "limit", 10))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": entries,
		"count":      len(entries),
	})
}

// GetStatistics handles GET /api/analytics/statistics
func (h *AnalyticsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	period, date, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	stats, err := h.service.Statistics(r.Context(), period, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetEfficiency handles GET /api/analytics/efficiency
func (h *AnalyticsHandler) GetEfficiency(w http.ResponseWriter, r *http.Request) {
	period, date, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	metrics, err := h.service.Efficiency(r.Context(), period, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, metrics)
}

// GetCategoryAnalysis handles GET /api/analytics/categories/:category
func (h *AnalyticsHandler) GetCategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	category, err := entities.ParseCategory(r.PathValue("category"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	period, date, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	analysis, err := h.service.AnalyzeCategory(r.Context(), category, period, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, analysis)
}

// GetProceduresByPeriod handles GET /api/analytics/procedures
func (h *AnalyticsHandler) GetProceduresByPeriod(w http.ResponseWriter, r *http.Request) {
	period, date, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	var statusFilter *entities.ProcedureStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := entities.ParseProcedureStatus(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		statusFilter = &parsed
	}

	procedures, err := h.service.ProceduresByPeriod(r.Context(), period, date, statusFilter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": procedures,
		"count":      len(procedures),
	})
}
