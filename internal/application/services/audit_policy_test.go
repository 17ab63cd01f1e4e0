package services

import (
	"testing"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestAuditPolicy_RequiresAudit(t *testing.T) {
	policy := NewAuditPolicy()

	tests := []struct {
		complexity entities.Complexity
		want       bool
	}{
		{entities.ComplexityPorte1, false},
		{entities.ComplexityPorte2, false},
		{entities.ComplexityPorte3, true},
		{entities.ComplexityPorte4, true},
		{entities.ComplexityPorteEspecial, true},
		{entities.Complexity("UNKNOWN"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.complexity), func(t *testing.T) {
			assert.Equal(t, tt.want, policy.RequiresAudit(tt.complexity))
		})
	}
}

func TestAuditPolicy_AuditPriorityFor(t *testing.T) {
	policy := NewAuditPolicy()

	assert.Equal(t, entities.AuditPriorityUrgent, policy.AuditPriorityFor(entities.ComplexityPorteEspecial))
	assert.Equal(t, entities.AuditPriorityHigh, policy.AuditPriorityFor(entities.ComplexityPorte3))
	assert.Equal(t, entities.AuditPriorityHigh, policy.AuditPriorityFor(entities.ComplexityPorte4))
}
