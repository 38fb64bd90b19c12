// Package parse holds the tolerant date and time parsers used everywhere a
// spreadsheet cell has to be interpreted. Failure is reported through the ok
// result, never as an error.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hours   int
	Minutes int
}

// String renders the clock as military time, e.g. "0730".
func (c Clock) String() string {
	return fmt.Sprintf("%02d%02d", c.Hours, c.Minutes)
}

// Time parses "H:MM"/"HH:MM" or bare military time "HMM"/"HHMM".
func Time(text string) (Clock, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Clock{}, false
	}

	if i := strings.IndexByte(s, ':'); i >= 0 {
		h, m := s[:i], s[i+1:]
		if len(h) < 1 || len(h) > 2 || len(m) != 2 || !allDigits(h) || !allDigits(m) {
			return Clock{}, false
		}
		return clock(h, m)
	}

	if !allDigits(s) {
		return Clock{}, false
	}
	switch len(s) {
	case 3:
		return clock(s[:1], s[1:])
	case 4:
		return clock(s[:2], s[2:])
	}
	return Clock{}, false
}

func clock(h, m string) (Clock, bool) {
	hh, err := strconv.Atoi(h)
	if err != nil {
		return Clock{}, false
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return Clock{}, false
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return Clock{}, false
	}
	return Clock{Hours: hh, Minutes: mm}, true
}

// ValidTime is shorthand for the ok result of Time.
func ValidTime(text string) bool {
	_, ok := Time(text)
	return ok
}

// FormatTime renders a parseable time as "HHMM" and returns anything else
// unchanged.
func FormatTime(text string) string {
	c, ok := Time(text)
	if !ok {
		return text
	}
	return c.String()
}

// isoLayouts are tried before the split heuristic.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"Mon, 02 Jan 2006",
}

// Date parses a loosely formatted calendar date. The result is midnight UTC
// of that date.
func Date(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t.Year(), t.Month(), t.Day()), true
		}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 3 {
		return time.Time{}, false
	}
	for _, p := range parts {
		if !allDigits(p) {
			return time.Time{}, false
		}
	}

	switch {
	case len(parts[0]) == 4:
		return calendarDate(parts[0], parts[1], parts[2])
	case len(parts[2]) == 4:
		return calendarDate(parts[2], parts[0], parts[1])
	}
	return time.Time{}, false
}

// ValidDate is shorthand for the ok result of Date.
func ValidDate(text string) bool {
	_, ok := Date(text)
	return ok
}

func calendarDate(y, m, d string) (time.Time, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(d)
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := midnight(year, time.Month(month), day)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func midnight(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Instant combines a date cell and a time cell into one moment in loc. It
// fails if either part is unparseable.
func Instant(date, clockText string, loc *time.Location) (time.Time, bool) {
	d, ok := Date(date)
	if !ok {
		return time.Time{}, false
	}
	c, ok := Time(clockText)
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hours, c.Minutes, 0, 0, loc), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
