// Package records defines the tabular form every collection is persisted in
// and the Store contract the storage backends implement.
//
// A collection is a header row plus one record per entity. Backends only move
// tables around; encoding entities into fields is done by the repositories
// with the codecs in this package.
package records

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ipms/placement-hub/pkg/timeutil"
)

// Collection names.
const (
	Students      = "students"
	Staff         = "staff"
	Reps          = "reps"
	Opportunities = "opportunities"
	Applications  = "applications"
	Withdrawals   = "withdrawals"
	Registrations = "registrations"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("records: store is closed")

// Table is one persisted collection.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Rows)
}

// Store loads and saves whole collections. Save replaces the stored table.
// Loading a collection that was never saved returns an empty table.
type Store interface {
	Load(ctx context.Context, collection string) (Table, error)
	Save(ctx context.Context, collection string, t Table) error
	Close() error
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELD CODECS
// ══════════════════════════════════════════════════════════════════════════════

// Record reads fields of one row. Missing trailing fields read as "".
type Record []string

// Get returns field i trimmed, or "" when the row is short.
func (r Record) Get(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// Bool reads field i as a boolean. Anything but "true" (any case) is false.
func (r Record) Bool(i int) bool {
	return strings.EqualFold(r.Get(i), "true")
}

// Int reads field i as an integer, returning def when blank or malformed.
func (r Record) Int(i, def int) int {
	n, err := strconv.Atoi(r.Get(i))
	if err != nil {
		return def
	}
	return n
}

// Date reads field i as YYYY-MM-DD in loc. Malformed values read as zero.
func (r Record) Date(i int, loc *time.Location) time.Time {
	t, err := timeutil.ParseDate(r.Get(i), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Timestamp reads field i as a timestamp in loc. Malformed values read as zero.
func (r Record) Timestamp(i int, loc *time.Location) time.Time {
	t, err := timeutil.ParseTimestamp(r.Get(i), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

var cleaner = strings.NewReplacer(",", " ", "\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// Clean makes free text safe for a delimited file: commas, tabs and line
// breaks become spaces.
func Clean(s string) string {
	return strings.TrimSpace(cleaner.Replace(s))
}

// FormatBool writes a boolean as true|false.
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// FormatInt writes an integer.
func FormatInt(n int) string {
	return strconv.Itoa(n)
}

// FormatDate writes a civil date, "" for the zero time.
func FormatDate(t time.Time) string {
	return timeutil.FormatDateStr(t)
}

// FormatTimestamp writes an instant, "" for the zero time.
func FormatTimestamp(t time.Time) string {
	return timeutil.FormatTimestampStr(t)
}
