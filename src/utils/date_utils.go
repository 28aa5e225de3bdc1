package utils

import (
	"fmt"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a UTC calendar date and returns the unix time of its
// first second.
func ParseDate(dateStr string) (int64, error) {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		return 0, fmt.Errorf("invalid date '%s' (want YYYY-MM-DD): %w", dateStr, err)
	}
	return t.Unix(), nil
}

// EndOfDay extends a date's unix time to the last second of that UTC day.
// Date-range filters treat the end date as inclusive.
func EndOfDay(dayStart int64) int64 {
	return dayStart + 24*3600 - 1
}

// FormatDate renders a unix time as a UTC calendar date.
func FormatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(DefaultDateFormat)
}

// FormatTime renders the time-of-day portion of a unix time, UTC.
func FormatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("15:04:05")
}
