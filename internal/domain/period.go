package domain

import (
	"errors"
	"fmt"
	"time"

	// Europe/Stockholm must resolve on hosts without a zoneinfo database
	_ "time/tzdata"
)

// DefaultTimezone is the landlord-facing reference zone
const DefaultTimezone = "Europe/Stockholm"

const (
	MinDueDay = 1
	MaxDueDay = 28
)

// ErrInvalidDueDay is returned for due days outside 1..28
var ErrInvalidDueDay = errors.New("due day must be between 1 and 28")

// LoadLocation resolves a zone name, falling back to DefaultTimezone when empty
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}

// MonthWindow returns the first local instant and the last local millisecond
// of the calendar month containing now, in loc.
func MonthWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// StartOfDay returns local midnight of the day containing now
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DueDateFor returns local midnight of dueDay in the given period.
// Days 1..28 exist in every month, so the result never spills into the next month.
func DueDateFor(year int, month time.Month, dueDay int, loc *time.Location) (time.Time, error) {
	if dueDay < MinDueDay || dueDay > MaxDueDay {
		return time.Time{}, ErrInvalidDueDay
	}
	return time.Date(year, month, dueDay, 0, 0, 0, 0, loc), nil
}

// PeriodOf derives the invoice period from a due date, read in loc
func PeriodOf(dueDate time.Time, loc *time.Location) (year int, month int) {
	local := dueDate.In(loc)
	return local.Year(), int(local.Month())
}
