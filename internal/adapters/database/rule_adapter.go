package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// RuleAdapter implements RuleRepository
type RuleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRuleAdapter creates a new rule adapter
func NewRuleAdapter(client *postgres.Client) repositories.RuleRepository {
	return &RuleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetActiveByCode retrieves the active rule for a procedure code
func (a *RuleAdapter) GetActiveByCode(ctx context.Context, procedureCode string) (*entities.PortValidationRule, error) {
	query, args, err := a.db.Select(
		"id", "procedure_code", "minimum_port", "maximum_port",
		"recommended_port", "is_active", "created_at", "updated_at",
	).From("port_validation_rules").
		Where(goqu.Ex{"procedure_code": procedureCode, "is_active": true}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rule := &entities.PortValidationRule{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&rule.ID,
		&rule.ProcedureCode,
		&rule.MinimumPort,
		&rule.MaximumPort,
		&rule.RecommendedPort,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no active rule for procedure code %s", procedureCode))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rule", err)
	}

	return rule, nil
}

// Create creates a new rule
func (a *RuleAdapter) Create(ctx context.Context, rule *entities.PortValidationRule) error {
	record := goqu.Record{
		"id":               rule.ID,
		"procedure_code":   rule.ProcedureCode,
		"minimum_port":     rule.MinimumPort,
		"maximum_port":     rule.MaximumPort,
		"recommended_port": rule.RecommendedPort,
		"is_active":        rule.IsActive,
		"created_at":       rule.CreatedAt,
		"updated_at":       rule.UpdatedAt,
	}

	query, args, err := a.db.Insert("port_validation_rules").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create rule", err)
	}

	return nil
}

// Update updates an existing rule
func (a *RuleAdapter) Update(ctx context.Context, rule *entities.PortValidationRule) error {
	rule.UpdatedAt = time.Now()

	record := goqu.Record{
		"minimum_port":     rule.MinimumPort,
		"maximum_port":     rule.MaximumPort,
		"recommended_port": rule.RecommendedPort,
		"is_active":        rule.IsActive,
		"updated_at":       rule.UpdatedAt,
	}

	query, args, err := a.db.Update("port_validation_rules").
		Set(record).
		Where(goqu.Ex{"id": rule.ID}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update rule", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("rule with id %s not found", rule.ID))
	}

	return nil
}

// List retrieves all rules
func (a *RuleAdapter) List(ctx context.Context, limit, offset int) ([]*entities.PortValidationRule, error) {
	ds := a.db.Select(
		"id", "procedure_code", "minimum_port", "maximum_port",
		"recommended_port", "is_active", "created_at", "updated_at",
	).From("port_validation_rules").
		Order(goqu.I("procedure_code").Asc())

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
		return nil, apperrors.NewInternalError("failed to list rules", err)
	}
	defer rows.Close()

	var rules []*entities.PortValidationRule
	for rows.Next() {
		rule := &entities.PortValidationRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.ProcedureCode,
			&rule.MinimumPort,
			&rule.MaximumPort,
			&rule.RecommendedPort,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan rule", err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}
