// Package timeutil provides date helpers for certificate timestamps.
// All persisted times are UTC; formatting for display happens at the edges.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// issueDateLayout is the human-readable layout printed on certificates.
const issueDateLayout = "2 January 2006"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// TruncateToDay returns the UTC midnight of the given time's day.
func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatIssueDate renders a timestamp the way it appears on a certificate,
// e.g. "30 August 2026".
func FormatIssueDate(t time.Time) string {
	return t.UTC().Format(issueDateLayout)
}

// FormatTimestamp renders a timestamp in RFC 3339 for wire payloads.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// IsSameDay reports whether two times fall on the same UTC calendar day.
func IsSameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.YearDay() == bu.YearDay()
}

// DaysSince returns the number of whole UTC days elapsed since t.
func DaysSince(t time.Time) int {
	return int(TruncateToDay(Now()).Sub(TruncateToDay(t)).Hours() / 24)
}
