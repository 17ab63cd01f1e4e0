package services

import (
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// AuditPolicy decides whether a confirmed complexity requires an
// independent audit workflow
type AuditPolicy struct{}

// NewAuditPolicy creates a new audit policy
func NewAuditPolicy() *AuditPolicy {
	return &AuditPolicy{}
}

// RequiresAudit returns true for PORTE_3 and above. Total function, never
// fails; unknown tiers never trigger an audit.
func (p *AuditPolicy) RequiresAudit(complexity entities.Complexity) bool {
	switch complexity {
	case entities.ComplexityPorte3, entities.ComplexityPorte4, entities.ComplexityPorteEspecial:
		return true
	default:
		return false
	}
}

// AuditPriorityFor maps a complexity to the priority of its audit request.
// PORTE_ESPECIAL cases are escalated to URGENT.
func (p *AuditPolicy) AuditPriorityFor(complexity entities.Complexity) entities.AuditPriority {
	if complexity == entities.ComplexityPorteEspecial {
		return entities.AuditPriorityUrgent
	}
	return entities.AuditPriorityHigh
}
