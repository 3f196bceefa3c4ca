package repositories

import (
	"context"

	"github.com/labcita/scheduling/internal/domain/entities"
)

// ScheduleRepository defines the interface for weekly template and holiday
// calendar persistence
type ScheduleRepository interface {
	// SaveWeeklyTemplate upserts the template for a service/location pair.
	// Empty IDs address the global default template.
	SaveWeeklyTemplate(ctx context.Context, serviceID, locationID string, template *entities.WeeklyTemplate) error

	// GetWeeklyTemplate retrieves the template for a service/location
	// pair, or nil if none is persisted
	GetWeeklyTemplate(ctx context.Context, serviceID, locationID string) (*entities.WeeklyTemplate, error)

	// UpsertHoliday inserts or updates a holiday entry by date
	UpsertHoliday(ctx context.Context, entry *entities.HolidayEntry) error

	// ListHolidays retrieves holiday entries with dates in [from, to],
	// both civil dates in entities.CivilDateLayout
	ListHolidays(ctx context.Context, from, to string) ([]*entities.HolidayEntry, error)
}
