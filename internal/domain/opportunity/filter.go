package opportunity

import (
	"sort"
	"strings"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SORT KEYS
// ══════════════════════════════════════════════════════════════════════════════

// SortKey orders opportunity listings.
type SortKey string

const (
	SortTitle       SortKey = "TITLE_ASC"
	SortClosingDate SortKey = "CLOSING_DATE_ASC"
	SortCompany     SortKey = "COMPANY_ASC"
	SortLevel       SortKey = "LEVEL_ASC"
)

// SortKeys lists the keys in menu order.
var SortKeys = []SortKey{SortTitle, SortClosingDate, SortCompany, SortLevel}

// IsValid checks if the key is known.
func (k SortKey) IsValid() bool {
	switch k {
	case SortTitle, SortClosingDate, SortCompany, SortLevel:
		return true
	}
	return false
}

// ParseSortKey accepts the full key or a short alias (title, closing, company, level).
func ParseSortKey(value string) (SortKey, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch v {
	case "", "TITLE":
		return SortTitle, nil
	case "CLOSING", "CLOSE", "CLOSING_DATE":
		return SortClosingDate, nil
	case "COMPANY":
		return SortCompany, nil
	case "LEVEL":
		return SortLevel, nil
	}
	k := SortKey(v)
	if !k.IsValid() {
		return "", shared.Validation("opportunity", "ParseSortKey", "unknown sort key %q", value)
	}
	return k, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FILTER
// ══════════════════════════════════════════════════════════════════════════════

// Filter is a record of optional criteria plus a sort key. Zero values mean
// "no constraint"; a zero SortKey means TITLE_ASC.
type Filter struct {
	Status         Status    `json:"status,omitempty"`
	PreferredMajor string    `json:"preferredMajor,omitempty"`
	Level          Level     `json:"level,omitempty"`
	ClosingBy      time.Time `json:"closingBy,omitempty"`
	SortKey        SortKey   `json:"sortKey,omitempty"`
}

// IsEmpty reports whether the filter has no criteria and the default sort.
func (f Filter) IsEmpty() bool {
	return f.Status == "" && f.PreferredMajor == "" && f.Level == "" &&
		f.ClosingBy.IsZero() && (f.SortKey == "" || f.SortKey == SortTitle)
}

// Key returns the effective sort key.
func (f Filter) Key() SortKey {
	if f.SortKey.IsValid() {
		return f.SortKey
	}
	return SortTitle
}

// Matches accepts o when every set criterion matches.
func (f Filter) Matches(o *Opportunity) bool {
	if o == nil {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PreferredMajor != "" && !shared.EqualFold(o.PreferredMajor, f.PreferredMajor) {
		return false
	}
	if f.Level != "" && o.Level != f.Level {
		return false
	}
	if !f.ClosingBy.IsZero() {
		if o.CloseDate.IsZero() {
			return false
		}
		if timeutil.StartOfDay(o.CloseDate).After(timeutil.StartOfDay(f.ClosingBy.In(o.CloseDate.Location()))) {
			return false
		}
	}
	return true
}

// Apply returns the matching opportunities sorted by the filter's key.
// The input slice is not modified.
func (f Filter) Apply(all []*Opportunity) []*Opportunity {
	out := make([]*Opportunity, 0, len(all))
	for _, o := range all {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	Sort(out, f.Key())
	return out
}

// Sort orders list in place by key. Missing values sort last, strings compare
// case-insensitively, and ties fall back to id for a stable result.
func Sort(list []*Opportunity, key SortKey) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if c := compare(a, b, key); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func compare(a, b *Opportunity, key SortKey) int {
	switch key {
	case SortClosingDate:
		return compareDates(a.CloseDate, b.CloseDate)
	case SortCompany:
		return compareText(a.CompanyName, b.CompanyName)
	case SortLevel:
		return compareRank(a.Level.Rank(), b.Level.Rank())
	default:
		return compareText(a.Title, b.Title)
	}
}

func compareText(a, b string) int {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}

func compareDates(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareRank(a, b int) int {
	switch {
	case a == b:
		return 0
	case a == 0:
		return 1
	case b == 0:
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// VisibleFor returns the opportunities student s may see on day today:
// APPROVED and visible, open on today, eligible by year and level, and
// matching f, sorted by f's key.
func VisibleFor(s *user.Student, f Filter, all []*Opportunity, today time.Time) []*Opportunity {
	if s == nil {
		return nil
	}
	out := make([]*Opportunity, 0, len(all))
	for _, o := range all {
		if o == nil || !o.IsPublished() || !o.IsOpenOn(today) || !o.EligibleFor(s) {
			continue
		}
		if !f.Matches(o) {
			continue
		}
		out = append(out, o)
	}
	Sort(out, f.Key())
	return out
}
