package dateutil

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the canonical calendar-date string used across the API.
	DateLayout = "2006-01-02"
	// TimeLayout is the canonical zero-padded time-of-day string.
	TimeLayout = "15:04"
)

// Business hours bound the week/day calendar grids.
const (
	BusinessStartMinute = 8 * 60  // 08:00
	BusinessEndMinute   = 18 * 60 // 18:00
)

// ParseDate parses a YYYY-MM-DD date string in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateutil: invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseTime parses a zero-padded HH:mm time-of-day string.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateutil: invalid time %q: %w", s, err)
	}
	return t, nil
}

// FormatTime renders t as HH:mm.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// IsValidDateString reports whether s is a well-formed YYYY-MM-DD date.
func IsValidDateString(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// IsValidTimeString reports whether s is a well-formed HH:mm time.
func IsValidTimeString(s string) bool {
	_, err := ParseTime(s)
	return err == nil
}

// MinuteOfDay converts an HH:mm string into minutes since midnight.
// Malformed input yields -1.
func MinuteOfDay(s string) int {
	t, err := ParseTime(s)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

// IsBusinessHour reports whether the minute-of-day offset falls inside the
// 08:00-18:00 grid window.
func IsBusinessHour(minuteOfDay int) bool {
	return minuteOfDay >= BusinessStartMinute && minuteOfDay < BusinessEndMinute
}

// MonthBounds returns the first and last day of t's month, at midnight UTC.
func MonthBounds(t time.Time) (first, last time.Time) {
	first = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// AddDays shifts t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Truncate drops the time-of-day component, keeping the calendar day in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsFutureDate reports whether the date string lies strictly after today.
func IsFutureDate(s string, now time.Time) bool {
	t, err := ParseDate(s)
	if err != nil {
		return false
	}
	return t.After(Truncate(now))
}

// IsPastDate reports whether the date string lies strictly before today.
func IsPastDate(s string, now time.Time) bool {
	t, err := ParseDate(s)
	if err != nil {
		return false
	}
	return t.Before(Truncate(now))
}
