package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ProcedureEventType represents the type of procedure lifecycle event
type ProcedureEventType string

const (
	ProcedureEventTypeCreated        ProcedureEventType = "procedure_created"
	ProcedureEventTypePorteConfirmed ProcedureEventType = "porte_confirmed"
	ProcedureEventTypeStatusUpdated  ProcedureEventType = "surgery_status_updated"
	ProcedureEventTypeAuditRequested ProcedureEventType = "audit_requested"
)

// AuditPriority is attached to audit request events
type AuditPriority string

const (
	AuditPriorityHigh   AuditPriority = "HIGH"
	AuditPriorityUrgent AuditPriority = "URGENT"
)

// ProcedureEvent is the envelope published on the event bus for lifecycle
// changes. Payload carries the event-type-specific fields.
type ProcedureEvent struct {
	ID          string                 `json:"id"`
	ProcedureID string                 `json:"procedure_id"`
	EventType   ProcedureEventType     `json:"event_type"`
	Timestamp   time.Time              `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload"`
}

// NewProcedureEvent creates a new procedure event
func NewProcedureEvent(procedureID string, eventType ProcedureEventType, payload map[string]interface{}) *ProcedureEvent {
	return &ProcedureEvent{
		ID:          generateEventID(),
		ProcedureID: procedureID,
		EventType:   eventType,
		Timestamp:   time.Now(),
		Payload:     payload,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
