package utils

import "time"

// StartOfDayUTC truncates t to midnight of its UTC calendar day.
func StartOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateUTC formats t as an ISO date in UTC.
func DateUTC(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
