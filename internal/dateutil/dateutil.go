package dateutil

import (
	"fmt"
	"time"
)

// DayFormat is the canonical calendar-day form used in the database and
// in every request/response body.
const DayFormat = "2006-01-02"

// acceptedLayouts are tried in order when normalizing client input. The
// front end sends plain days, but RFC3339 timestamps show up from older
// clients and are truncated to their day.
var acceptedLayouts = []string{
	DayFormat,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Normalize parses a client-supplied date string and returns it in
// canonical YYYY-MM-DD form.
func Normalize(s string) (string, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DayFormat), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", s)
}

// Today returns the canonical day string for the given instant, in UTC.
func Today(now time.Time) string {
	return now.UTC().Format(DayFormat)
}

// WindowStart returns the day string `days` calendar days before now.
func WindowStart(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, -days).Format(DayFormat)
}

// PrevDay returns the day string one calendar day before the given one.
// The input must already be in canonical form.
func PrevDay(day string) string {
	t, _ := time.Parse(DayFormat, day)
	return t.AddDate(0, 0, -1).Format(DayFormat)
}
