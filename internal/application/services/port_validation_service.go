package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/observability"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// PortValidationService checks a reported port against the active
// institutional rule for the procedure code
type PortValidationService struct {
	ruleRepo       repositories.RuleRepository
	validationRepo repositories.ValidationRepository
}

// NewPortValidationService creates a new port validation service
func NewPortValidationService(
	ruleRepo repositories.RuleRepository,
	validationRepo repositories.ValidationRepository,
) *PortValidationService {
	return &PortValidationService{
		ruleRepo:       ruleRepo,
		validationRepo: validationRepo,
	}
}

// Validate compares reportedPort against the active rule for procedureCode
// and persists the verdict as an immutable PortValidation record.
//
// When no active rule exists the verdict is deliberately permissive:
// valid, severity INFO, expected = reported. Unknown procedures are never
// auto-rejected.
func (s *PortValidationService) Validate(ctx context.Context, procedureCode string, reportedPort int, validatedBy string) (*entities.PortValidation, error) {
	if procedureCode == "" {
		return nil, apperrors.NewValidationError("procedure code is required")
	}
	if reportedPort <= 0 {
		return nil, apperrors.NewValidationError("reported port must be a positive integer")
	}

	rule, err := s.ruleRepo.GetActiveByCode(ctx, procedureCode)
	if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, apperrors.NewInternalError("failed to look up validation rule", err)
	}

	verdict := s.evaluate(rule, procedureCode, reportedPort)
	verdict.ValidatedBy = validatedBy

	if err := s.validationRepo.Create(ctx, verdict); err != nil {
		return nil, apperrors.NewInternalError("failed to persist validation record", err)
	}

	return verdict, nil
}

// evaluate produces the verdict without touching storage
func (s *PortValidationService) evaluate(rule *entities.PortValidationRule, procedureCode string, reportedPort int) *entities.PortValidation {
	now := time.Now()

	if rule == nil {
		return &entities.PortValidation{
			ID:            uuid.New().String(),
			ProcedureCode: procedureCode,
			SuggestedPort: reportedPort,
			ActualPort:    reportedPort,
			IsValid:       true,
			Discrepancy:   0,
			Severity:      entities.SeverityInfo,
			Reason:        fmt.Sprintf("no active validation rule for code %s", procedureCode),
			ValidatedAt:   now,
		}
	}

	isValid := reportedPort >= rule.MinimumPort && reportedPort <= rule.MaximumPort
	discrepancy := reportedPort - rule.RecommendedPort
	if discrepancy < 0 {
		discrepancy = -discrepancy
	}

	severity := entities.SeverityInfo
	reason := fmt.Sprintf("reported port %d within allowed range [%d, %d]", reportedPort, rule.MinimumPort, rule.MaximumPort)
	if !isValid {
		switch {
		case discrepancy >= 2:
			severity = entities.SeverityHigh
		case discrepancy == 1:
			severity = entities.SeverityMedium
		default:
			// inside the recommended port but outside [min, max]; the rule
			// itself is degenerate
			severity = entities.SeverityLow
		}
		reason = fmt.Sprintf("reported port %d outside allowed range [%d, %d], recommended %d",
			reportedPort, rule.MinimumPort, rule.MaximumPort, rule.RecommendedPort)
	}

	return &entities.PortValidation{
		ID:            uuid.New().String(),
		ProcedureCode: procedureCode,
		SuggestedPort: rule.RecommendedPort,
		ActualPort:    reportedPort,
		IsValid:       isValid,
		Discrepancy:   discrepancy,
		Severity:      severity,
		Reason:        reason,
		ValidatedAt:   now,
	}
}

// History returns the most recent validation records for a code
func (s *PortValidationService) History(ctx context.Context, procedureCode string, limit int) ([]*entities.PortValidation, error) {
	if procedureCode == "" {
		return nil, apperrors.NewValidationError("procedure code is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.validationRepo.ListByCode(ctx, procedureCode, limit)
}

// CreateRule registers a new validation rule after checking its bounds
func (s *PortValidationService) CreateRule(ctx context.Context, rule *entities.PortValidationRule) error {
	if err := rule.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt

	if existing, err := s.ruleRepo.GetActiveByCode(ctx, rule.ProcedureCode); err == nil && existing != nil && rule.IsActive {
		return apperrors.NewConflictError(fmt.Sprintf("an active rule already exists for code %s", rule.ProcedureCode))
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return apperrors.NewInternalError("failed to create validation rule", err)
	}

	observability.GetLogger().Info().
		Str("procedure_code", rule.ProcedureCode).
		Int("minimum_port", rule.MinimumPort).
		Int("maximum_port", rule.MaximumPort).
		Msg("validation rule created")

	return nil
}

// UpdateRule updates an existing validation rule
func (s *PortValidationService) UpdateRule(ctx context.Context, rule *entities.PortValidationRule) error {
	if err := rule.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	rule.UpdatedAt = time.Now()
	return s.ruleRepo.Update(ctx, rule)
}

// ListRules returns the configured rules
func (s *PortValidationService) ListRules(ctx context.Context, limit, offset int) ([]*entities.PortValidationRule, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.ruleRepo.List(ctx, limit, offset)
}
