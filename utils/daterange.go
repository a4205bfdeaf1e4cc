package utils

import (
	"fmt"
	"time"
)

// ISODateLayout is the calendar-date layout used for check-in dates and series keys.
const ISODateLayout = "2006-01-02"

// ISODate formats t as YYYY-MM-DD in t's own location.
func ISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// ParseISODate parses a YYYY-MM-DD string as midnight in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(ISODateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateWindow returns the ISO dates of the days-long window ending on end's
// calendar date, oldest first. days < 1 yields an empty window.
func DateWindow(end time.Time, days int) []string {
	if days < 1 {
		return []string{}
	}
	last := StartOfDay(end)
	out := make([]string, days)
	for i := 0; i < days; i++ {
		out[i] = ISODate(last.AddDate(0, 0, i-days+1))
	}
	return out
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
// It is DST-safe because both ends are normalized to UTC dates first.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
