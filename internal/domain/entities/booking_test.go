package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/labcita/scheduling/internal/domain/entities"
)

func TestBooking_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    entities.BookingStatus
		to      entities.BookingStatus
		allowed bool
	}{
		{"scheduled to confirmed", entities.BookingStatusScheduled, entities.BookingStatusConfirmed, true},
		{"scheduled to cancelled", entities.BookingStatusScheduled, entities.BookingStatusCancelled, true},
		{"scheduled to completed", entities.BookingStatusScheduled, entities.BookingStatusCompleted, true},
		{"scheduled to no_show", entities.BookingStatusScheduled, entities.BookingStatusNoShow, true},
		{"confirmed to cancelled", entities.BookingStatusConfirmed, entities.BookingStatusCancelled, true},
		{"confirmed to completed", entities.BookingStatusConfirmed, entities.BookingStatusCompleted, true},
		{"confirmed to scheduled", entities.BookingStatusConfirmed, entities.BookingStatusScheduled, false},
		{"confirmed to confirmed", entities.BookingStatusConfirmed, entities.BookingStatusConfirmed, false},
		{"cancelled is terminal", entities.BookingStatusCancelled, entities.BookingStatusConfirmed, false},
		{"completed is terminal", entities.BookingStatusCompleted, entities.BookingStatusCancelled, false},
		{"no_show is terminal", entities.BookingStatusNoShow, entities.BookingStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := &entities.Booking{Status: tt.from}
			assert.Equal(t, tt.allowed, booking.CanTransitionTo(tt.to))
		})
	}
}

func TestBooking_IsTerminal(t *testing.T) {
	assert.False(t, (&entities.Booking{Status: entities.BookingStatusScheduled}).IsTerminal())
	assert.False(t, (&entities.Booking{Status: entities.BookingStatusConfirmed}).IsTerminal())
	assert.True(t, (&entities.Booking{Status: entities.BookingStatusCancelled}).IsTerminal())
	assert.True(t, (&entities.Booking{Status: entities.BookingStatusCompleted}).IsTerminal())
	assert.True(t, (&entities.Booking{Status: entities.BookingStatusNoShow}).IsTerminal())
}

func TestSlot_IsBookable(t *testing.T) {
	now := time.Now()
	base := entities.Slot{
		StartTime: now.Add(time.Hour),
		Capacity:  2,
		Reserved:  0,
		Active:    true,
	}

	t.Run("active future slot with seats", func(t *testing.T) {
		slot := base
		assert.True(t, slot.IsBookable(now))
	})

	t.Run("full slot", func(t *testing.T) {
		slot := base
		slot.Reserved = 2
		assert.False(t, slot.IsBookable(now))
		assert.Equal(t, 0, slot.Available())
	})

	t.Run("inactive slot", func(t *testing.T) {
		slot := base
		slot.Active = false
		assert.False(t, slot.IsBookable(now))
	})

	t.Run("slot in the past", func(t *testing.T) {
		slot := base
		slot.StartTime = now.Add(-time.Minute)
		assert.False(t, slot.IsBookable(now))
	})
}
