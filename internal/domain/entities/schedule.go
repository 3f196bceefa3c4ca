package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeRange is an open-hours range within a day, expressed as civil "HH:MM"
// times. End is exclusive.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Minutes returns the start and end of the range as minutes since midnight
func (r TimeRange) Minutes() (int, int, error) {
	start, err := parseClock(r.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", r.Start, err)
	}
	end, err := parseClock(r.End)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", r.End, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("range start %q is not before end %q", r.Start, r.End)
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour")
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute")
	}
	return hour*60 + minute, nil
}

// WeeklyTemplate defines the recurring open hours per weekday. A weekday maps
// to at most two ranges (typically morning and afternoon); an absent or empty
// weekday is closed. Slots already generated are not recomputed when the
// template changes.
type WeeklyTemplate struct {
	Days map[time.Weekday][]TimeRange `json:"days"`
}

// RangesFor returns the open ranges for a weekday
func (t *WeeklyTemplate) RangesFor(day time.Weekday) []TimeRange {
	if t == nil || t.Days == nil {
		return nil
	}
	return t.Days[day]
}

// Validate checks that every weekday has at most two non-overlapping,
// well-formed ranges
func (t *WeeklyTemplate) Validate() error {
	if t == nil || t.Days == nil {
		return fmt.Errorf("template has no days")
	}
	for day, ranges := range t.Days {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("invalid weekday %d", day)
		}
		if len(ranges) > 2 {
			return fmt.Errorf("%s has %d ranges, at most 2 allowed", day, len(ranges))
		}
		starts := make([]int, len(ranges))
		ends := make([]int, len(ranges))
		for i, r := range ranges {
			start, end, err := r.Minutes()
			if err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			starts[i] = start
			ends[i] = end
		}
		// Declaration order is not significant, so the pair is checked
		// symmetrically.
		if len(ranges) == 2 && starts[0] < ends[1] && starts[1] < ends[0] {
			return fmt.Errorf("%s: ranges overlap", day)
		}
	}
	return nil
}

// DefaultWeeklyTemplate returns the built-in fallback template: Monday to
// Saturday 07:00-12:00 and 14:00-17:00, Sunday 07:00-12:00.
func DefaultWeeklyTemplate() *WeeklyTemplate {
	morning := TimeRange{Start: "07:00", End: "12:00"}
	afternoon := TimeRange{Start: "14:00", End: "17:00"}

	days := map[time.Weekday][]TimeRange{
		time.Sunday: {morning},
	}
	for day := time.Monday; day <= time.Saturday; day++ {
		days[day] = []TimeRange{morning, afternoon}
	}
	return &WeeklyTemplate{Days: days}
}
