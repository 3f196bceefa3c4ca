package entities

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// allowedTransitions is the booking state machine. Cancelled, completed and
// no-show are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusScheduled: {
		BookingStatusConfirmed,
		BookingStatusCancelled,
		BookingStatusCompleted,
		BookingStatusNoShow,
	},
	BookingStatusConfirmed: {
		BookingStatusCancelled,
		BookingStatusCompleted,
		BookingStatusNoShow,
	},
}

// Booking is a patient's claim on one slot. Bookings are never hard-deleted;
// status transitions are the only mutation path.
type Booking struct {
	ID           string        `json:"id" db:"id"`
	SlotID       string        `json:"slot_id" db:"slot_id"`
	PatientID    string        `json:"patient_id" db:"patient_id"`
	Status       BookingStatus `json:"status" db:"status"`
	Notes        string        `json:"notes,omitempty" db:"notes"`
	CancelReason *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the booking is in a terminal state
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCancelled, BookingStatusCompleted, BookingStatusNoShow:
		return true
	}
	return false
}

// IsActive returns true if the booking still claims a seat on its slot
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusScheduled || b.Status == BookingStatusConfirmed
}

// CanTransitionTo returns true if the state machine allows moving from the
// booking's current status to next
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range allowedTransitions[b.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}
