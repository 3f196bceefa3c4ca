package repositories

import (
	"context"
	"time"

	"github.com/labcita/scheduling/internal/domain/entities"
)

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// BookingConflict describes an existing booking that overlaps a candidate
// time range. It carries enough context for an actionable error message.
type BookingConflict struct {
	BookingID   string
	SlotID      string
	ServiceName string
	StartTime   time.Time
	EndTime     time.Time
}

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create inserts a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// UpdateStatus sets the booking status and, for cancellations, the
	// cancellation reason
	UpdateStatus(ctx context.Context, id string, status entities.BookingStatus, cancelReason *string) error

	// UpdateSlot moves the booking to a different slot
	UpdateSlot(ctx context.Context, id string, slotID string) error

	// FindOverlapping returns the first non-cancelled booking of the
	// patient whose slot time range overlaps [start, end) on the same
	// calendar date, or nil if there is none. excludeBookingID, when not
	// empty, is skipped (used by reschedule to ignore the booking's own
	// current slot).
	FindOverlapping(ctx context.Context, patientID string, start, end time.Time, excludeBookingID string) (*BookingConflict, error)

	// ListByPatient retrieves bookings for a patient
	ListByPatient(ctx context.Context, patientID string, filter BookingFilter) ([]*entities.Booking, error)
}
