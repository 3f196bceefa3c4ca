package entities

import (
	"time"
)

// Slot is the atomic bookable unit: a fixed time window for a service at a
// location with a seat capacity. The natural key is
// (service, location, start, end); slot generation is idempotent against it.
type Slot struct {
	ID         string    `json:"id" db:"id"`
	ServiceID  string    `json:"service_id" db:"service_id"`
	LocationID string    `json:"location_id" db:"location_id"`
	StartTime  time.Time `json:"start_time" db:"start_time"`
	EndTime    time.Time `json:"end_time" db:"end_time"`
	Capacity   int       `json:"capacity" db:"capacity"`
	Reserved   int       `json:"reserved" db:"reserved"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsFull returns true if the slot has no remaining seats
func (s *Slot) IsFull() bool {
	return s.Reserved >= s.Capacity
}

// Available returns the number of remaining seats
func (s *Slot) Available() int {
	if s.Reserved >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Reserved
}

// IsBookable returns true if the slot accepts new bookings at the given time
func (s *Slot) IsBookable(now time.Time) bool {
	return s.Active && !s.IsFull() && s.StartTime.After(now)
}
