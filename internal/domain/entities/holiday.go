package entities

import (
	"time"
)

// CivilDateLayout is the wire and storage format for calendar dates. Slot
// generation iterates civil dates deliberately, so generated slot boundaries
// stay aligned to the clinic's calendar regardless of server time zone.
const CivilDateLayout = "2006-01-02"

// HolidayScope qualifies which sites a holiday applies to.
type HolidayScope string

const (
	HolidayScopeGlobal   HolidayScope = "global"
	HolidayScopeLocation HolidayScope = "location"
)

// HolidayEntry is a calendar date excluded from slot generation.
type HolidayEntry struct {
	Date      string       `json:"date" db:"date"`
	Label     string       `json:"label" db:"label"`
	Scope     HolidayScope `json:"scope" db:"scope"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}
