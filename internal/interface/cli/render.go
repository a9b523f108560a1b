package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ipms/placement-hub/internal/application/query"
	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/notification"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/report"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// Plain-text tables for the terminal.
// ══════════════════════════════════════════════════════════════════════════════

type presenter struct {
	out io.Writer
	now func() time.Time
}

func (p presenter) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func (p presenter) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p presenter) empty(what string) {
	p.line("no %s", what)
}

func dateOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return timeutil.FormatDateStr(t)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ─── opportunities ───────────────────────────────────────────────────────────

func (p presenter) opportunities(list []*opportunity.Opportunity, withStatus bool) {
	if len(list) == 0 {
		p.empty("opportunities")
		return
	}
	header := []string{"ID", "TITLE", "COMPANY", "LEVEL", "MAJOR", "OPENS", "CLOSES", "SLOTS"}
	if withStatus {
		header = append(header, "STATUS", "VISIBLE")
	}
	tw := p.table(header...)
	for _, o := range list {
		row := []string{
			o.ID, o.Title, o.CompanyName, o.Level.String(), orDash(o.PreferredMajor),
			dateOrDash(o.OpenDate), dateOrDash(o.CloseDate),
			fmt.Sprintf("%d/%d", o.Slots, o.TotalSlots),
		}
		if withStatus {
			row = append(row, o.Status.String(), yesNo(o.Visible))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func (p presenter) opportunity(o *opportunity.Opportunity) {
	p.line("%s  %s", o.ID, o.Title)
	p.line("  company:   %s", o.CompanyName)
	p.line("  level:     %s", o.Level)
	p.line("  major:     %s", orDash(o.PreferredMajor))
	p.line("  window:    %s .. %s", dateOrDash(o.OpenDate), dateOrDash(o.CloseDate))
	p.line("  slots:     %d of %d left", o.Slots, o.TotalSlots)
	p.line("  status:    %s (visible: %s)", o.Status, yesNo(o.Visible))
	if o.Description != "" {
		p.line("  %s", o.Description)
	}
}

// ─── applications ────────────────────────────────────────────────────────────

func (p presenter) applications(list []query.ApplicationView) {
	if len(list) == 0 {
		p.empty("applications")
		return
	}
	tw := p.table("ID", "STUDENT", "OPPORTUNITY", "COMPANY", "STATUS", "APPLIED", "WITHDRAWAL")
	for _, a := range list {
		title := a.OpportunityID + " " + a.OpportunityTitle
		if a.OpportunityDeleted {
			title = a.OpportunityID + " (deleted opportunity)"
		}
		student := a.StudentID
		if a.StudentName != "" {
			student += " " + a.StudentName
		}
		fmt.Fprintln(tw, strings.Join([]string{
			a.ID, student, title, orDash(a.CompanyName), a.Status.String(),
			timeutil.FormatRelative(a.AppliedAt, p.now()), yesNo(a.WithdrawalRequested),
		}, "\t"))
	}
	tw.Flush()
}

func (p presenter) application(a *application.Application) {
	p.line("%s  %s -> %s  [%s]", a.ID, a.StudentID, a.OpportunityID, a.Status)
}

func (p presenter) withdrawals(list []*application.WithdrawalRequest) {
	if len(list) == 0 {
		p.empty("withdrawal requests")
		return
	}
	tw := p.table("ID", "APPLICATION", "STUDENT", "STATUS", "REQUESTED", "REASON")
	for _, r := range list {
		fmt.Fprintln(tw, strings.Join([]string{
			r.ID, r.ApplicationID, r.StudentID, r.Status.String(),
			timeutil.FormatRelative(r.RequestedAt, p.now()), orDash(r.Reason),
		}, "\t"))
	}
	tw.Flush()
}

func (p presenter) registrations(list []query.RegistrationView) {
	if len(list) == 0 {
		p.empty("registration requests")
		return
	}
	tw := p.table("ID", "REP", "NAME", "COMPANY", "DEPARTMENT", "POSITION", "STATUS", "REQUESTED")
	for _, r := range list {
		fmt.Fprintln(tw, strings.Join([]string{
			r.RequestID, r.RepID, orDash(r.RepName), orDash(r.CompanyName),
			orDash(r.Department), orDash(r.Position), r.Status.String(),
			timeutil.FormatRelative(r.RequestedAt, p.now()),
		}, "\t"))
	}
	tw.Flush()
}

func (p presenter) notifications(list []notification.Notification) {
	if len(list) == 0 {
		p.line("nothing new")
		return
	}
	for _, n := range list {
		p.line("* %s (%s, %s)", n.Message(), n.SubjectID, timeutil.FormatRelative(n.At, p.now()))
	}
}

// ─── report ──────────────────────────────────────────────────────────────────

var reportHeader = []string{
	"ID", "TITLE", "COMPANY", "LEVEL", "STATUS", "MAJOR",
	"APPLICATIONS", "FILLED", "REMAINING", "TOTAL",
}

func reportRecord(r report.Row) []string {
	return []string{
		r.OpportunityID, r.Title, r.CompanyName, r.Level.String(), r.Status.String(), r.PreferredMajor,
		strconv.Itoa(r.TotalApplications), strconv.Itoa(r.FilledSlots),
		strconv.Itoa(r.RemainingSlots), strconv.Itoa(r.TotalSlots),
	}
}

func (p presenter) report(r *report.Report) {
	p.line("placement report, generated %s", timeutil.FormatDateStr(r.GeneratedAt))
	if len(r.Rows) == 0 {
		p.empty("opportunities match")
		return
	}
	tw := p.table(reportHeader...)
	for _, row := range r.Rows {
		rec := reportRecord(row)
		rec[5] = orDash(rec[5])
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	apps, filled, remaining := r.Totals()
	fmt.Fprintln(tw, strings.Join([]string{
		"", "TOTAL", "", "", "", "",
		strconv.Itoa(apps), strconv.Itoa(filled), strconv.Itoa(remaining), "",
	}, "\t"))
	tw.Flush()
}

func (p presenter) reportCSV(r *report.Report) error {
	w := csv.NewWriter(p.out)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := w.Write(reportRecord(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
