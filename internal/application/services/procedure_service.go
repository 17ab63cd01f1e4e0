package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/providers"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/observability"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// ProcedureService orchestrates the procedure lifecycle: creation, porte
// confirmation and status transitions. Durable state lives entirely in the
// repositories; the service itself is stateless and safe for concurrent use.
type ProcedureService struct {
	procedureRepo repositories.ProcedureRepository
	patientRepo   repositories.PatientRepository
	auditLogRepo  repositories.AuditLogRepository
	eventBus      providers.EventBus
	pricing       *PricingService
	auditPolicy   *AuditPolicy
}

// NewProcedureService creates a new procedure service
func NewProcedureService(
	procedureRepo repositories.ProcedureRepository,
	patientRepo repositories.PatientRepository,
	auditLogRepo repositories.AuditLogRepository,
	eventBus providers.EventBus,
	pricing *PricingService,
	auditPolicy *AuditPolicy,
) *ProcedureService {
	return &ProcedureService{
		procedureRepo: procedureRepo,
		patientRepo:   patientRepo,
		auditLogRepo:  auditLogRepo,
		eventBus:      eventBus,
		pricing:       pricing,
		auditPolicy:   auditPolicy,
	}
}

// CreateProcedureRequest carries the fields needed to register a procedure
type CreateProcedureRequest struct {
	Code                  string
	Name                  string
	Description           string
	Category              entities.Category
	Complexity            entities.Complexity
	EstimatedDuration     int
	ScheduledDate         *time.Time
	RequiresAuthorization bool
	PatientID             string
	Room                  string
	Hospital              string
	CreatedBy             string
}

// PorteConfirmation carries the operator-confirmed classification. The
// confirmed price is authoritative; it is not recomputed from the price
// model.
type PorteConfirmation struct {
	Complexity        entities.Complexity
	EstimatedDuration int
	BasePrice         float64
	ConfirmedBy       string
}

// PendingSummary is the operational triage view over procedures that still
// need attention
type PendingSummary struct {
	TotalPending         int                   `json:"total_pending"`
	NeedingAuthorization int                   `json:"needing_authorization"`
	NeedingAudit         int                   `json:"needing_audit"`
	ScheduledToday       int                   `json:"scheduled_today"`
	ScheduledWithin7Days int                   `json:"scheduled_within_7_days"`
	Recent               []*entities.Procedure `json:"recent"`
}

// Create registers a new procedure. The base price is derived from the
// submitted complexity and duration. The primary write commits before any
// event is published; publish failures are logged and never fail the
// operation.
func (s *ProcedureService) Create(ctx context.Context, req CreateProcedureRequest) (*entities.Procedure, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	patient, err := s.patientRepo.GetByID(ctx, req.PatientID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("patient not found")
		}
		return nil, apperrors.NewInternalError("failed to load patient", err)
	}
	if patient == nil {
		return nil, apperrors.NewNotFoundError("patient not found")
	}

	price, err := s.pricing.Price(req.Complexity, req.EstimatedDuration)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	authStatus := entities.AuthorizationNotRequired
	if req.RequiresAuthorization {
		authStatus = entities.AuthorizationPending
	}

	procedure := &entities.Procedure{
		ID:                    uuid.New().String(),
		Code:                  req.Code,
		Name:                  req.Name,
		Description:           req.Description,
		Category:              req.Category,
		Complexity:            req.Complexity,
		EstimatedDuration:     req.EstimatedDuration,
		BasePrice:             price,
		Currency:              DefaultCurrency,
		Status:                entities.StatusScheduled,
		ScheduledDate:         req.ScheduledDate,
		RequiresAuthorization: req.RequiresAuthorization,
		AuthorizationStatus:   authStatus,
		AuditStatus:           entities.AuditPending,
		PatientID:             req.PatientID,
		Room:                  req.Room,
		Hospital:              req.Hospital,
		CreatedBy:             req.CreatedBy,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.procedureRepo.Create(ctx, procedure); err != nil {
		return nil, apperrors.NewInternalError("failed to create procedure", err)
	}

	s.appendAudit(ctx, entities.AuditActionCreate, procedure.ID, nil, map[string]interface{}{
		"code":       procedure.Code,
		"complexity": procedure.Complexity,
		"status":     procedure.Status,
		"base_price": procedure.BasePrice,
	}, req.CreatedBy)

	s.publish(ctx, providers.EventChannelProcedureUpdates, entities.NewProcedureEvent(
		procedure.ID, entities.ProcedureEventTypeCreated, map[string]interface{}{
			"code":       procedure.Code,
			"category":   procedure.Category,
			"complexity": procedure.Complexity,
			"patient_id": procedure.PatientID,
		}))

	if s.auditPolicy.RequiresAudit(procedure.Complexity) {
		s.publish(ctx, providers.EventChannelAuditRequests, entities.NewProcedureEvent(
			procedure.ID, entities.ProcedureEventTypeAuditRequested, map[string]interface{}{
				"complexity": procedure.Complexity,
				"priority":   s.auditPolicy.AuditPriorityFor(procedure.Complexity),
			}))
	}

	return procedure, nil
}

func (s *ProcedureService) validateCreate(req CreateProcedureRequest) error {
	switch {
	case req.Code == "":
		return apperrors.NewValidationError("procedure code is required")
	case req.Name == "":
		return apperrors.NewValidationError("procedure name is required")
	case req.PatientID == "":
		return apperrors.NewValidationError("patient id is required")
	case req.EstimatedDuration < 0:
		return apperrors.NewValidationError("estimated duration must not be negative")
	}
	if _, err := entities.ParseComplexity(string(req.Complexity)); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := entities.ParseCategory(string(req.Category)); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// ConfirmPorte overwrites the classification fields with the confirmed
// values. The confirmed price is operator-supplied and stored as-is.
func (s *ProcedureService) ConfirmPorte(ctx context.Context, id string, confirmation PorteConfirmation) (*entities.Procedure, error) {
	if _, err := entities.ParseComplexity(string(confirmation.Complexity)); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if confirmation.EstimatedDuration < 0 {
		return nil, apperrors.NewValidationError("estimated duration must not be negative")
	}
	if confirmation.BasePrice < 0 {
		return nil, apperrors.NewValidationError("base price must not be negative")
	}

	procedure, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	oldValues := map[string]interface{}{
		"complexity":         procedure.Complexity,
		"estimated_duration": procedure.EstimatedDuration,
		"base_price":         procedure.BasePrice,
	}

	procedure.Complexity = confirmation.Complexity
	procedure.EstimatedDuration = confirmation.EstimatedDuration
	procedure.BasePrice = confirmation.BasePrice
	procedure.UpdatedBy = confirmation.ConfirmedBy
	procedure.UpdatedAt = time.Now()

	if err := s.procedureRepo.Update(ctx, procedure); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to update procedure", err)
	}

	s.appendAudit(ctx, entities.AuditActionPorteConfirmed, procedure.ID, oldValues, map[string]interface{}{
		"complexity":         procedure.Complexity,
		"estimated_duration": procedure.EstimatedDuration,
		"base_price":         procedure.BasePrice,
	}, confirmation.ConfirmedBy)

	s.publish(ctx, providers.EventChannelProcedureUpdates, entities.NewProcedureEvent(
		procedure.ID, entities.ProcedureEventTypePorteConfirmed, map[string]interface{}{
			"complexity": procedure.Complexity,
			"base_price": procedure.BasePrice,
		}))

	return procedure, nil
}

// UpdateStatus moves a procedure through its lifecycle. Transitions are
// checked against the legal state graph; COMPLETED stamps the performed
// date if not already set.
func (s *ProcedureService) UpdateStatus(ctx context.Context, id string, newStatus entities.ProcedureStatus, actor string) (*entities.Procedure, error) {
	if _, err := entities.ParseProcedureStatus(string(newStatus)); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	procedure, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if !procedure.Status.CanTransitionTo(newStatus) {
		return nil, apperrors.NewValidationError(
			"illegal status transition from " + string(procedure.Status) + " to " + string(newStatus))
	}

	oldStatus := procedure.Status
	procedure.Status = newStatus
	procedure.UpdatedBy = actor
	procedure.UpdatedAt = time.Now()

	if newStatus == entities.StatusCompleted && procedure.PerformedDate == nil {
		now := time.Now()
		procedure.PerformedDate = &now
	}

	if err := s.procedureRepo.Update(ctx, procedure); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to update procedure status", err)
	}

	s.appendAudit(ctx, entities.AuditActionUpdate, procedure.ID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": newStatus}, actor)

	s.publish(ctx, providers.EventChannelProcedureUpdates, entities.NewProcedureEvent(
		procedure.ID, entities.ProcedureEventTypeStatusUpdated, map[string]interface{}{
			"old_status": oldStatus,
			"new_status": newStatus,
		}))

	return procedure, nil
}

// Get retrieves a single procedure
func (s *ProcedureService) Get(ctx context.Context, id string) (*entities.Procedure, error) {
	return s.getExisting(ctx, id)
}

// List retrieves procedures matching the filter
func (s *ProcedureService) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	return s.procedureRepo.List(ctx, filter)
}

// Delete soft-deletes a procedure and records the action
func (s *ProcedureService) Delete(ctx context.Context, id, actor string) error {
	procedure, err := s.getExisting(ctx, id)
	if err != nil {
		return err
	}

	if err := s.procedureRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.appendAudit(ctx, entities.AuditActionDelete, id,
		map[string]interface{}{"is_active": true, "status": procedure.Status},
		map[string]interface{}{"is_active": false}, actor)

	return nil
}

// PendingSummary computes the triage counters over SCHEDULED and CONFIRMED
// procedures. Recent lists the oldest pending first so long-waiting cases
// surface before fresh ones.
func (s *ProcedureService) PendingSummary(ctx context.Context, recentLimit int) (*PendingSummary, error) {
	if recentLimit <= 0 {
		recentLimit = 10
	}

	pending, err := s.procedureRepo.List(ctx, repositories.ProcedureFilter{
		Statuses: []entities.ProcedureStatus{entities.StatusScheduled, entities.StatusConfirmed},
		OrderBy:  repositories.OrderCreatedAsc,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list pending procedures", err)
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	weekHorizon := startOfDay.AddDate(0, 0, 7)

	summary := &PendingSummary{
		TotalPending: len(pending),
		Recent:       []*entities.Procedure{},
	}

	for _, p := range pending {
		if p.RequiresAuthorization && p.AuthorizationStatus == entities.AuthorizationPending {
			summary.NeedingAuthorization++
		}
		if s.auditPolicy.RequiresAudit(p.Complexity) && p.AuditStatus == entities.AuditPending {
			summary.NeedingAudit++
		}
		if p.ScheduledDate != nil {
			if !p.ScheduledDate.Before(startOfDay) && p.ScheduledDate.Before(endOfDay) {
				summary.ScheduledToday++
			}
			if !p.ScheduledDate.Before(startOfDay) && p.ScheduledDate.Before(weekHorizon) {
				summary.ScheduledWithin7Days++
			}
		}
	}

	if len(pending) > recentLimit {
		summary.Recent = pending[:recentLimit]
	} else {
		summary.Recent = pending
	}

	return summary, nil
}

func (s *ProcedureService) getExisting(ctx context.Context, id string) (*entities.Procedure, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("procedure id is required")
	}
	procedure, err := s.procedureRepo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("procedure not found")
		}
		return nil, apperrors.NewInternalError("failed to load procedure", err)
	}
	return procedure, nil
}

// appendAudit writes an audit trail entry. Audit write failures are logged
// but do not fail the primary operation that already committed.
func (s *ProcedureService) appendAudit(ctx context.Context, action entities.AuditAction, entityID string, oldValues, newValues map[string]interface{}, actor string) {
	entry := &entities.AuditLog{
		ID:          uuid.New().String(),
		Action:      action,
		Entity:      "procedure",
		EntityID:    entityID,
		OldValues:   oldValues,
		NewValues:   newValues,
		PerformedBy: actor,
		CreatedAt:   time.Now(),
	}
	if err := s.auditLogRepo.Append(ctx, entry); err != nil {
		observability.GetLogger().Warn().Err(err).
			Str("entity_id", entityID).
			Str("action", string(action)).
			Msg("failed to append audit log entry")
	}
}

// publish sends a lifecycle event. Publish failures are logged at warn
// level and never surfaced to the caller; business-state durability is
// decoupled from notification durability.
func (s *ProcedureService) publish(ctx context.Context, channel string, event *entities.ProcedureEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, channel, event); err != nil {
		observability.GetLogger().Warn().Err(err).
			Str("channel", channel).
			Str("event_type", string(event.EventType)).
			Str("procedure_id", event.ProcedureID).
			Msg("failed to publish event")
	}
}
