package domain

import (
	"fmt"
	"strings"
	"time"
)

// ParseDay parses a YYYY-MM-DD value and returns local midnight of that day in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return day, nil
}

// CalendarDate maps an instant to its calendar day as UTC midnight, the form
// ledger dates are stored in.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func NextDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}
