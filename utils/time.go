// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// RangeBounds returns the half-open UTC interval covering the calendar days from..to inclusive
func RangeBounds(from, to time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(from, loc)
	end := StartOfDay(to, loc).AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, value, loc)
}

// FormatDate formats t as YYYY-MM-DD in loc
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
