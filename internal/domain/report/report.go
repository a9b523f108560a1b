// Package report aggregates published opportunities into the staff report.
package report

import (
	"sort"
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// Filter selects report rows. Zero fields mean "no constraint".
type Filter struct {
	Status         opportunity.Status
	PreferredMajor string
	Level          opportunity.Level
	Company        string

	// OpenDateFrom keeps opportunities opening on or after the date.
	OpenDateFrom time.Time

	// CloseDateBy keeps opportunities closing on or before the date.
	CloseDateBy time.Time
}

// IsEmpty reports whether the filter has no criteria.
func (f Filter) IsEmpty() bool {
	return f.Status == "" && f.PreferredMajor == "" && f.Level == "" &&
		f.Company == "" && f.OpenDateFrom.IsZero() && f.CloseDateBy.IsZero()
}

// Matches accepts o when every set criterion matches.
func (f Filter) Matches(o *opportunity.Opportunity) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PreferredMajor != "" && !shared.EqualFold(o.PreferredMajor, f.PreferredMajor) {
		return false
	}
	if f.Level != "" && o.Level != f.Level {
		return false
	}
	if f.Company != "" && !shared.EqualFold(o.CompanyName, f.Company) {
		return false
	}
	if !f.OpenDateFrom.IsZero() {
		if o.OpenDate.IsZero() || timeutil.StartOfDay(o.OpenDate).Before(timeutil.StartOfDay(f.OpenDateFrom)) {
			return false
		}
	}
	if !f.CloseDateBy.IsZero() {
		if o.CloseDate.IsZero() || timeutil.StartOfDay(o.CloseDate).After(timeutil.StartOfDay(f.CloseDateBy)) {
			return false
		}
	}
	return true
}

// Row summarises one opportunity.
type Row struct {
	OpportunityID  string
	Title          string
	CompanyName    string
	Level          opportunity.Level
	Status         opportunity.Status
	PreferredMajor string

	TotalApplications int

	// FilledSlots counts applications in SUCCESSFUL.
	FilledSlots int

	// RemainingSlots is max(0, slots - FilledSlots).
	RemainingSlots int

	TotalSlots int
}

// Report is a generated snapshot.
type Report struct {
	GeneratedAt time.Time
	Filter      Filter
	Rows        []Row
}

// Totals sums the numeric columns over all rows.
func (r *Report) Totals() (applications, filled, remaining int) {
	for _, row := range r.Rows {
		applications += row.TotalApplications
		filled += row.FilledSlots
		remaining += row.RemainingSlots
	}
	return applications, filled, remaining
}

// Build derives the report over published opportunities (APPROVED and
// visible) that match f. Rows are ordered by opportunity id.
func Build(f Filter, opps []*opportunity.Opportunity, apps []*application.Application, now time.Time) *Report {
	total := make(map[string]int)
	successful := make(map[string]int)
	for _, a := range apps {
		total[a.OpportunityID]++
		if a.Status == application.StatusSuccessful {
			successful[a.OpportunityID]++
		}
	}

	rows := make([]Row, 0, len(opps))
	for _, o := range opps {
		if o == nil || !o.IsPublished() || !f.Matches(o) {
			continue
		}
		filled := successful[o.ID]
		remaining := o.Slots - filled
		if remaining < 0 {
			remaining = 0
		}
		rows = append(rows, Row{
			OpportunityID:     o.ID,
			Title:             o.Title,
			CompanyName:       o.CompanyName,
			Level:             o.Level,
			Status:            o.Status,
			PreferredMajor:    o.PreferredMajor,
			TotalApplications: total[o.ID],
			FilledSlots:       filled,
			RemainingSlots:    remaining,
			TotalSlots:        o.TotalSlots,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OpportunityID < rows[j].OpportunityID })

	return &Report{GeneratedAt: now, Filter: f, Rows: rows}
}
