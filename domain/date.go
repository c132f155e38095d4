package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire and cut-key format for calendar dates.
const DateLayout = "2006-01-02"

var (
	// PlaceholderSprintStart marks the legacy "no sprint" record; it is never a
	// schedulable sprint.
	PlaceholderSprintStart = time.Date(1969, time.December, 31, 0, 0, 0, 0, time.UTC)

	// FarFutureDate orders tasks without a deadline after every dated task.
	FarFutureDate = time.Date(2222, time.December, 22, 0, 0, 0, 0, time.UTC)
)

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DateKey formats a civil date as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a civil date by n days.
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
