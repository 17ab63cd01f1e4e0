package routes

import (
	"net/http"

	"github.com/hospitalcore/surgical-procedures/internal/api/handlers"
	"github.com/hospitalcore/surgical-procedures/internal/api/middleware"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	procedureHandler  *handlers.ProcedureHandler
	validationHandler *handlers.ValidationHandler
	analyticsHandler  *handlers.AnalyticsHandler
	patientHandler    *handlers.PatientHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	procedureHandler *handlers.ProcedureHandler,
	validationHandler *handlers.ValidationHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	patientHandler *handlers.PatientHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		procedureHandler:  procedureHandler,
		validationHandler: validationHandler,
		analyticsHandler:  analyticsHandler,
		patientHandler:    patientHandler,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Procedure endpoints
	r.mux.HandleFunc("POST /api/procedures", r.procedureHandler.CreateProcedure)
	r.mux.HandleFunc("GET /api/procedures", r.procedureHandler.ListProcedures)
	r.mux.HandleFunc("GET /api/procedures/pending-summary", r.procedureHandler.GetPendingSummary)
	r.mux.HandleFunc("GET /api/procedures/{id}", r.procedureHandler.GetProcedure)
	r.mux.HandleFunc("POST /api/procedures/{id}/confirm-porte", r.procedureHandler.ConfirmPorte)
	r.mux.HandleFunc("PATCH /api/procedures/{id}/status", r.procedureHandler.UpdateStatus)
	r.mux.HandleFunc("DELETE /api/procedures/{id}", r.procedureHandler.DeleteProcedure)

	// Port validation endpoints
	r.mux.HandleFunc("POST /api/port-validations", r.validationHandler.ValidatePort)
	r.mux.HandleFunc("GET /api/port-validations/{code}", r.validationHandler.GetHistory)

	// Rule administration endpoints
	r.mux.HandleFunc("GET /api/port-validation-rules", r.validationHandler.ListRules)
	r.mux.HandleFunc("POST /api/port-validation-rules", r.validationHandler.CreateRule)
	r.mux.HandleFunc("PUT /api/port-validation-rules/{id}", r.validationHandler.UpdateRule)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/top-procedures", r.analyticsHandler.GetTopProcedures)
	r.mux.HandleFunc("GET /api/analytics/statistics", r.analyticsHandler.GetStatistics)
	r.mux.HandleFunc("GET /api/analytics/efficiency", r.analyticsHandler.GetEfficiency)
	r.mux.HandleFunc("GET /api/analytics/categories/{category}", r.analyticsHandler.GetCategoryAnalysis)
	r.mux.HandleFunc("GET /api/analytics/procedures", r.analyticsHandler.GetProceduresByPeriod)

	// Patient endpoints
	r.mux.HandleFunc("POST /api/patients", r.patientHandler.CreatePatient)
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also carry CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}

	handler = middleware.CORSMiddleware(handler)

	return handler
}
