package providers

import (
	"context"

	"github.com/labcita/scheduling/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to booking
// events. Publishing is best-effort: a failed publish must never roll back
// the booking operation that produced the event.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelBookingUpdates is the channel carrying every booking event
	EventChannelBookingUpdates = "bookings:updates"

	// EventChannelPatientPrefix is the prefix for patient-specific channels
	EventChannelPatientPrefix = "patient:"
)

// GetPatientChannel returns the channel name for a specific patient
func GetPatientChannel(patientID string) string {
	return EventChannelPatientPrefix + patientID
}
