package utils

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01-02 15:04"

// FormatPeriod renders a report window in UTC.
func FormatPeriod(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.UTC().Format(periodLayout), end.UTC().Format(periodLayout))
}
