package entities

import "time"

// AuditAction identifies the kind of state change being recorded
type AuditAction string

const (
	AuditActionCreate         AuditAction = "CREATE"
	AuditActionUpdate         AuditAction = "UPDATE"
	AuditActionPorteConfirmed AuditAction = "PORTE_CONFIRMED"
	AuditActionDelete         AuditAction = "DELETE"
)

// AuditLog is an append-only record of a state-changing action. The engine
// only ever writes these; it never reads them back.
type AuditLog struct {
	ID          string                 `json:"id" db:"id"`
	Action      AuditAction            `json:"action" db:"action"`
	Entity      string                 `json:"entity" db:"entity"`
	EntityID    string                 `json:"entity_id" db:"entity_id"`
	OldValues   map[string]interface{} `json:"old_values" db:"old_values"`
	NewValues   map[string]interface{} `json:"new_values" db:"new_values"`
	PerformedBy string                 `json:"performed_by" db:"performed_by"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
