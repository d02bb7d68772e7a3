// backend/src/utils/date_utils.go
package utils

import (
	"fmt"
	"time"
)

const DayFormat = "2006-01-02"

// statement formats seen in exports from the club's banks
var statementDateFormats = []string{
	DayFormat,
	"02-01-2006",
	"02/01/2006",
}

// ParseStatementDate parses a date string from a bank statement, trying the
// known export formats in order. The result is truncated to calendar day
// precision in UTC.
func ParseStatementDate(dateStr string) (time.Time, error) {
	for _, layout := range statementDateFormats {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}

// Day truncates a time to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute distance between two calendar days.
func DaysBetween(a, b time.Time) int {
	d := int(Day(a).Sub(Day(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
