package entities

import (
	"fmt"
	"time"
)

// Complexity is the "porte" classification of a surgical procedure.
// Tiers are ordered: Porte1 < Porte2 < Porte3 < Porte4 < PorteEspecial.
type Complexity string

const (
	ComplexityPorte1        Complexity = "PORTE_1"
	ComplexityPorte2        Complexity = "PORTE_2"
	ComplexityPorte3        Complexity = "PORTE_3"
	ComplexityPorte4        Complexity = "PORTE_4"
	ComplexityPorteEspecial Complexity = "PORTE_ESPECIAL"
)

var complexityRanks = map[Complexity]int{
	ComplexityPorte1:        1,
	ComplexityPorte2:        2,
	ComplexityPorte3:        3,
	ComplexityPorte4:        4,
	ComplexityPorteEspecial: 5,
}

// ParseComplexity validates a raw complexity token
func ParseComplexity(raw string) (Complexity, error) {
	c := Complexity(raw)
	if _, ok := complexityRanks[c]; !ok {
		return "", fmt.Errorf("unknown complexity %q", raw)
	}
	return c, nil
}

// Rank returns the ordinal position of the tier (1 = lowest). Unknown
// values rank 0 so they sort below every valid tier.
func (c Complexity) Rank() int {
	return complexityRanks[c]
}

// Port returns the numeric port equivalent used by port validation rules.
// PORTE_ESPECIAL validates as port 5.
func (c Complexity) Port() int {
	return complexityRanks[c]
}

// ComplexityFromPort maps a numeric port back to its tier
func ComplexityFromPort(port int) (Complexity, error) {
	for c, rank := range complexityRanks {
		if rank == port {
			return c, nil
		}
	}
	return "", fmt.Errorf("no complexity tier for port %d", port)
}

// Category is the surgical domain of a procedure
type Category string

const (
	CategoryGeneralSurgery Category = "GENERAL_SURGERY"
	CategoryCardiovascular Category = "CARDIOVASCULAR"
	CategoryOrthopedics    Category = "ORTHOPEDICS"
	CategoryNeurosurgery   Category = "NEUROSURGERY"
	CategoryGynecology     Category = "GYNECOLOGY"
	CategoryUrology        Category = "UROLOGY"
	CategoryOphthalmology  Category = "OPHTHALMOLOGY"
	CategoryPlasticSurgery Category = "PLASTIC_SURGERY"
)

var validCategories = map[Category]struct{}{
	CategoryGeneralSurgery: {},
	CategoryCardiovascular: {},
	CategoryOrthopedics:    {},
	CategoryNeurosurgery:   {},
	CategoryGynecology:     {},
	CategoryUrology:        {},
	CategoryOphthalmology:  {},
	CategoryPlasticSurgery: {},
}

// ParseCategory validates a raw category token
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if _, ok := validCategories[c]; !ok {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

// ProcedureStatus is the lifecycle state of a procedure
type ProcedureStatus string

const (
	StatusScheduled  ProcedureStatus = "SCHEDULED"
	StatusConfirmed  ProcedureStatus = "CONFIRMED"
	StatusInProgress ProcedureStatus = "IN_PROGRESS"
	StatusCompleted  ProcedureStatus = "COMPLETED"
	StatusCancelled  ProcedureStatus = "CANCELLED"
	StatusPostponed  ProcedureStatus = "POSTPONED"
)

// statusTransitions is the legal transition graph. COMPLETED and CANCELLED
// are terminal; CANCELLED and POSTPONED are reachable from any non-terminal
// state.
var statusTransitions = map[ProcedureStatus][]ProcedureStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusPostponed},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusPostponed},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusPostponed},
	StatusPostponed:  {StatusScheduled, StatusConfirmed, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ParseProcedureStatus validates a raw status token
func ParseProcedureStatus(raw string) (ProcedureStatus, error) {
	s := ProcedureStatus(raw)
	if _, ok := statusTransitions[s]; !ok {
		return "", fmt.Errorf("unknown procedure status %q", raw)
	}
	return s, nil
}

// CanTransitionTo reports whether moving to next is a legal lifecycle step
func (s ProcedureStatus) CanTransitionTo(next ProcedureStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s ProcedureStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// AuthorizationStatus tracks the institutional authorization workflow
type AuthorizationStatus string

const (
	AuthorizationPending     AuthorizationStatus = "PENDING"
	AuthorizationApproved    AuthorizationStatus = "APPROVED"
	AuthorizationRejected    AuthorizationStatus = "REJECTED"
	AuthorizationNotRequired AuthorizationStatus = "NOT_REQUIRED"
)

// AuditStatus tracks the independent clinical audit workflow
type AuditStatus string

const (
	AuditPending  AuditStatus = "PENDING_AUDIT"
	AuditApproved AuditStatus = "AUDIT_APPROVED"
	AuditRejected AuditStatus = "AUDIT_REJECTED"
	AuditExempt   AuditStatus = "AUDIT_EXEMPT"
)

// Procedure is a surgical procedure record
type Procedure struct {
	ID                    string              `json:"id" db:"id"`
	Code                  string              `json:"code" db:"code"`
	Name                  string              `json:"name" db:"name"`
	Description           string              `json:"description" db:"description"`
	Category              Category            `json:"category" db:"category"`
	Complexity            Complexity          `json:"complexity" db:"complexity"`
	EstimatedDuration     int                 `json:"estimated_duration" db:"estimated_duration"` // in minutes
	BasePrice             float64             `json:"base_price" db:"base_price"`
	Currency              string              `json:"currency" db:"currency"`
	Status                ProcedureStatus     `json:"status" db:"status"`
	ScheduledDate         *time.Time          `json:"scheduled_date" db:"scheduled_date"`
	PerformedDate         *time.Time          `json:"performed_date" db:"performed_date"`
	RequiresAuthorization bool                `json:"requires_authorization" db:"requires_authorization"`
	AuthorizationStatus   AuthorizationStatus `json:"authorization_status" db:"authorization_status"`
	AuditStatus           AuditStatus         `json:"audit_status" db:"audit_status"`
	PatientID             string              `json:"patient_id" db:"patient_id"`
	Room                  string              `json:"room" db:"room"`
	Hospital              string              `json:"hospital" db:"hospital"`
	Complications         string              `json:"complications" db:"complications"`
	CreatedBy             string              `json:"created_by" db:"created_by"`
	UpdatedBy             string              `json:"updated_by" db:"updated_by"`
	IsActive              bool                `json:"is_active" db:"is_active"`
	CreatedAt             time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at" db:"updated_at"`
}

// IsPending reports whether the procedure still needs operational attention
func (p *Procedure) IsPending() bool {
	return p.Status == StatusScheduled || p.Status == StatusConfirmed
}
