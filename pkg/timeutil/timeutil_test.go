package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 30, 0, 0, DefaultZone)
	c := NewFixedClock(start)

	assert.Equal(t, start, c.Now())
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
	assert.Equal(t, Date(2025, 3, 1, DefaultZone), Today(c))
}

func TestWithinWindow(t *testing.T) {
	open := Date(2025, 3, 1, nil)
	closeDay := Date(2025, 3, 31, nil)

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"before open", Date(2025, 2, 28, nil), false},
		{"open day", open, true},
		{"late on close day", time.Date(2025, 3, 31, 23, 59, 0, 0, DefaultZone), true},
		{"after close", Date(2025, 4, 1, nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinWindow(tt.day, open, closeDay))
		})
	}

	assert.True(t, WithinWindow(open, time.Time{}, time.Time{}), "zero bounds are open")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-15", DefaultZone)
	require.NoError(t, err)
	assert.Equal(t, Date(2025, 6, 15, DefaultZone), d)

	blank, err := ParseDate("  ", DefaultZone)
	require.NoError(t, err)
	assert.True(t, blank.IsZero())

	_, err = ParseDate("15/06/2025", DefaultZone)
	assert.Error(t, err)
}

func TestParseTimestamp_Layouts(t *testing.T) {
	want := time.Date(2025, 6, 15, 10, 20, 30, 0, DefaultZone)

	for _, s := range []string{
		"2025-06-15T10:20:30+08:00",
		"2025-06-15T10:20:30",
		"2025-06-15T10:20:30.000",
		"2025-06-15 10:20:30",
	} {
		got, err := ParseTimestamp(s, DefaultZone)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	_, err := ParseTimestamp("yesterday", DefaultZone)
	assert.Error(t, err)
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 15, 10, 20, 30, 123456789, DefaultZone)
	got, err := ParseTimestamp(FormatTimestampStr(ts), DefaultZone)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
	assert.Equal(t, "", FormatTimestampStr(time.Time{}))
	assert.Equal(t, "", FormatDateStr(time.Time{}))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 3, DaysBetween(Date(2025, 1, 1, nil), Date(2025, 1, 4, nil)))
	assert.Equal(t, -1, DaysBetween(Date(2025, 1, 2, nil), Date(2025, 1, 1, nil)))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, DefaultZone)
	assert.Equal(t, "just now", FormatRelative(now, now))
	assert.Equal(t, "5m ago", FormatRelative(now.Add(-5*time.Minute), now))
	assert.Equal(t, "2d ago", FormatRelative(now.Add(-48*time.Hour), now))
	assert.Equal(t, "in 3h", FormatRelative(now.Add(3*time.Hour), now))
}
