package repositories

import (
	"context"
	"time"

	"github.com/labcita/scheduling/internal/domain/entities"
)

// SlotFilter defines filters for listing slots
type SlotFilter struct {
	ServiceID  string
	LocationID string

	// From is inclusive, To exclusive: slots with From <= start < To match.
	From *time.Time
	To   *time.Time

	// OnlyAvailable restricts the listing to active, future slots with
	// remaining capacity.
	OnlyAvailable bool

	Limit  int
	Offset int
}

// SlotRepository defines the interface for slot data operations, including
// the capacity ledger. Reserve and Release are expected to run inside the
// same transaction as the booking mutation they accompany.
type SlotRepository interface {
	// InsertNew inserts the given slots, silently skipping any whose
	// natural key (service, location, start, end) already exists, and
	// returns how many rows were actually inserted. Existing rows keep
	// their reserved counts and active flags.
	InsertNew(ctx context.Context, slots []*entities.Slot) (int, error)

	// GetByID retrieves a slot by ID
	GetByID(ctx context.Context, id string) (*entities.Slot, error)

	// List retrieves slots matching the filter, ordered by start time
	List(ctx context.Context, filter SlotFilter) ([]*entities.Slot, error)

	// Reserve atomically increments the reserved count by one, but only
	// while the slot is active, starts after now and has remaining
	// capacity. It returns false when the conditional update matched no
	// row, i.e. the seat could not be taken.
	Reserve(ctx context.Context, id string, now time.Time) (bool, error)

	// Release decrements the reserved count by one, floored at zero.
	Release(ctx context.Context, id string) error

	// Deactivate soft-deletes a slot; it disappears from availability
	// listings but keeps its booking history.
	Deactivate(ctx context.Context, id string) error

	// Delete hard-deletes a slot. Only valid for slots without bookings.
	Delete(ctx context.Context, id string) error

	// HasBookings reports whether any booking references the slot
	HasBookings(ctx context.Context, id string) (bool, error)
}
