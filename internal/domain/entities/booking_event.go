package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// BookingEventType represents the type of booking event
type BookingEventType string

const (
	BookingEventTypeCreated     BookingEventType = "booking.created"
	BookingEventTypeConfirmed   BookingEventType = "booking.confirmed"
	BookingEventTypeCancelled   BookingEventType = "booking.cancelled"
	BookingEventTypeRescheduled BookingEventType = "booking.rescheduled"
)

// BookingEvent is the domain event emitted after a successful booking
// operation. Delivery is fire-and-forget; external collaborators (audit,
// notification) subscribe independently.
type BookingEvent struct {
	ID        string           `json:"id"`
	EventType BookingEventType `json:"event_type"`
	BookingID string           `json:"booking_id"`
	SlotID    string           `json:"slot_id"`
	PatientID string           `json:"patient_id"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewBookingEvent creates a new booking event
func NewBookingEvent(eventType BookingEventType, bookingID, slotID, patientID string) *BookingEvent {
	return &BookingEvent{
		ID:        generateEventID(),
		EventType: eventType,
		BookingID: bookingID,
		SlotID:    slotID,
		PatientID: patientID,
		Timestamp: time.Now(),
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
