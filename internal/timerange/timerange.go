// Package timerange resolves relative Vietnamese time phrases into date ranges.
package timerange

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the date-granularity layout used throughout the pipeline.
const DateFormat = "2006-01-02"

// defaultLookbackDays is used when a phrase carries no recognizable span.
const defaultLookbackDays = 30

// phrasePattern matches "<n> <unit>" with the Vietnamese units for
// day, week, month, quarter and year. "nam" is the unaccented spelling.
var phrasePattern = regexp.MustCompile(`(?i)(\d+)\s*(ngày|tuần|tháng|quý|nam|năm)`)

// Resolve parses a relative-time phrase and returns the concrete start and end
// dates, anchored at now. Month, quarter and year spans use calendar-aware
// subtraction; days and weeks subtract exact day counts. An unrecognized
// phrase defaults to the trailing 30 days.
func Resolve(phrase string, now time.Time) (start, end time.Time) {
	now = truncateToDate(now)

	m := phrasePattern.FindStringSubmatch(phrase)
	if m == nil {
		return now.AddDate(0, 0, -defaultLookbackDays), now
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return now.AddDate(0, 0, -defaultLookbackDays), now
	}

	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "ngày"):
		start = now.AddDate(0, 0, -n)
	case strings.HasPrefix(unit, "tuần"):
		start = now.AddDate(0, 0, -7*n)
	case strings.HasPrefix(unit, "tháng"):
		start = now.AddDate(0, -n, 0)
	case strings.HasPrefix(unit, "quý"):
		start = now.AddDate(0, -3*n, 0)
	default: // năm / nam
		start = now.AddDate(-n, 0, 0)
	}

	return start, now
}

// truncateToDate drops the time-of-day component.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
