package providers

import (
	"context"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// procedure lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ProcedureEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ProcedureEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event streams
const (
	// EventChannelProcedureUpdates carries all procedure lifecycle events
	EventChannelProcedureUpdates = "procedures:updates"

	// EventChannelAuditRequests carries audit trigger notifications
	EventChannelAuditRequests = "procedures:audit-requests"

	// EventChannelProcedurePrefix is the prefix for per-procedure channels
	EventChannelProcedurePrefix = "procedures:"
)

// GetProcedureChannel returns the channel name for a specific procedure
func GetProcedureChannel(procedureID string) string {
	return EventChannelProcedurePrefix + procedureID
}
