// Package timeutil provides the clock abstraction and civil-date helpers used by
// the placement hub. Opportunity windows are calendar dates in the configured
// campus timezone; entity timestamps are instants.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultZone is the campus timezone (UTC+8, no DST).
var DefaultZone = time.FixedZone("Asia/Singapore", 8*60*60)

// Common date/time formats.
const (
	// FormatDate is the persisted date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTimestamp is the persisted timestamp format.
	FormatTimestamp = time.RFC3339Nano
	// FormatDateTime is the human-readable datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// Layouts accepted when reading timestamps back. Files written by older tools
// carry local date-times without an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	FormatDateTime,
}

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock returns a SystemClock for loc (DefaultZone when nil).
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = DefaultZone
	}
	return SystemClock{Location: loc}
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = DefaultZone
	}
	return time.Now().In(loc)
}

// FixedClock is a manually driven clock for tests and replays.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock returns a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the frozen instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ══════════════════════════════════════════════════════════════════════════════
// CIVIL DATES
// ══════════════════════════════════════════════════════════════════════════════

// Date creates midnight of the given day in loc (DefaultZone when nil).
func Date(year int, month time.Month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultZone
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today returns midnight of the clock's current day.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}

// SameDay reports whether a and b fall on the same calendar day of a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// WithinWindow reports whether day lies in the inclusive date window [from, to].
// A zero bound is treated as open.
func WithinWindow(day, from, to time.Time) bool {
	d := StartOfDay(day)
	if !from.IsZero() && d.Before(StartOfDay(from.In(day.Location()))) {
		return false
	}
	if !to.IsZero() && d.After(StartOfDay(to.In(day.Location()))) {
		return false
	}
	return true
}

// DaysBetween returns the whole number of days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b.In(a.Location())).Sub(StartOfDay(a)).Hours() / 24)
}

// ══════════════════════════════════════════════════════════════════════════════
// FORMATTING & PARSING
// ══════════════════════════════════════════════════════════════════════════════

// FormatDateStr formats t as YYYY-MM-DD, or "" for the zero time.
func FormatDateStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(FormatDate)
}

// FormatTimestampStr formats t as RFC3339 with nanoseconds, or "" for the zero time.
func FormatTimestampStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(FormatTimestamp)
}

// ParseDate parses YYYY-MM-DD in loc. Blank input yields the zero time and no error.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = DefaultZone
	}
	t, err := time.ParseInLocation(FormatDate, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date %q: %w", value, err)
	}
	return t, nil
}

// ParseTimestamp parses any of the accepted timestamp layouts. Layouts without an
// offset are interpreted in loc. Blank input yields the zero time and no error.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = DefaultZone
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: invalid timestamp %q", value)
}

// FormatRelative renders the distance between t and now in short English form.
func FormatRelative(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}

	var s string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}
