package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// DayKey formats t as a log key in its own location.
func DayKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Midnight truncates t to the start of its calendar day in its location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDay validates a YYYY-MM-DD string and parses it in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	return t, nil
}

// AddDays shifts a log key by n calendar days. Calendar arithmetic on the
// date alone avoids DST-length days.
func AddDays(day string, n int) (string, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// DaysBetween walks the calendar from start (exclusive) to end (inclusive).
func DaysBetween(start, end string) ([]string, error) {
	from, err := time.Parse(constants.DateFormat, start)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", start)
	}
	to, err := time.Parse(constants.DateFormat, end)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", end)
	}
	var days []string
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(constants.DateFormat))
	}
	return days, nil
}

// ParseClockTimes parses a comma-separated list of HH:MM reminder times and
// anchors each on day in loc.
func ParseClockTimes(s string, day time.Time) ([]time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var times []time.Time
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		t, err := time.Parse(constants.TimeFormat, part)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q (expected HH:MM)", part)
		}
		times = append(times, time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()))
	}
	return times, nil
}

// FormatClockTimes renders reminder times as HH:MM in loc.
func FormatClockTimes(times []time.Time, loc *time.Location) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = t.In(loc).Format(constants.TimeFormat)
	}
	return strings.Join(parts, ",")
}
