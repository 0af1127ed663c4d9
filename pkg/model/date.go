package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for check-in/check-out dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date and normalizes it to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, must be YYYY-MM-DD: %w", s, err)
	}
	return t.UTC(), nil
}

// Today returns the current calendar date at UTC midnight.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Nights returns the number of nights between two calendar dates.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}
