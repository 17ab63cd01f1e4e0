package entities

import (
	"fmt"
	"time"
)

// ValidationSeverity grades how far a reported port strays from the rule
type ValidationSeverity string

const (
	SeverityInfo   ValidationSeverity = "INFO"
	SeverityLow    ValidationSeverity = "LOW"
	SeverityMedium ValidationSeverity = "MEDIUM"
	SeverityHigh   ValidationSeverity = "HIGH"
)

// PortValidationRule is the institutional rule for one procedure code.
// Exactly one active rule may exist per code.
type PortValidationRule struct {
	ID              string    `json:"id" db:"id"`
	ProcedureCode   string    `json:"procedure_code" db:"procedure_code"`
	MinimumPort     int       `json:"minimum_port" db:"minimum_port"`
	MaximumPort     int       `json:"maximum_port" db:"maximum_port"`
	RecommendedPort int       `json:"recommended_port" db:"recommended_port"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the internal consistency of the rule bounds
func (r *PortValidationRule) Validate() error {
	if r.ProcedureCode == "" {
		return fmt.Errorf("procedure code is required")
	}
	if r.MinimumPort > r.RecommendedPort || r.RecommendedPort > r.MaximumPort {
		return fmt.Errorf("rule bounds must satisfy minimum <= recommended <= maximum, got %d <= %d <= %d",
			r.MinimumPort, r.RecommendedPort, r.MaximumPort)
	}
	return nil
}

// PortValidation is an immutable record of one validation event. It is
// written once when a reported port is checked against a rule and never
// mutated afterwards.
type PortValidation struct {
	ID            string             `json:"id" db:"id"`
	ProcedureCode string             `json:"procedure_code" db:"procedure_code"`
	SuggestedPort int                `json:"suggested_port" db:"suggested_port"`
	ActualPort    int                `json:"actual_port" db:"actual_port"`
	IsValid       bool               `json:"is_valid" db:"is_valid"`
	Discrepancy   int                `json:"discrepancy" db:"discrepancy"`
	Severity      ValidationSeverity `json:"severity" db:"severity"`
	Reason        string             `json:"reason" db:"reason"`
	ValidatedBy   string             `json:"validated_by" db:"validated_by"`
	ValidatedAt   time.Time          `json:"validated_at" db:"validated_at"`
}
