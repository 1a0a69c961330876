package api

import (
	"fmt"
	"time"
)

// DateLayout is the compact date format used by every RoomBoss date parameter.
const DateLayout = "20060102"

// FormatDate renders the calendar date of t, ignoring its time of day and zone.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d%02d%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a yyyyMMdd value into midnight UTC of that calendar date.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected yyyyMMdd)", value)
	}
	return parsed, nil
}
