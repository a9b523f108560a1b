package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ipms/placement-hub/internal/application/query"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/report"
)

func (a *App) reportCmd() *cobra.Command {
	var (
		status, major, level, company, openFrom, closeBy string
		asCSV                                            bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Staff: placement report over published opportunities",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := report.Filter{
				PreferredMajor: strings.TrimSpace(major),
				Company:        strings.TrimSpace(company),
			}
			var err error
			if status != "" {
				if f.Status, err = opportunity.ParseStatus(status); err != nil {
					return err
				}
			}
			if level != "" {
				if f.Level, err = opportunity.ParseLevel(level); err != nil {
					return err
				}
			}
			if openFrom != "" {
				if f.OpenDateFrom, err = parseDate("open-from", openFrom, a.location()); err != nil {
					return err
				}
			}
			if closeBy != "" {
				if f.CloseDateBy, err = parseDate("close-by", closeBy, a.location()); err != nil {
					return err
				}
			}

			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				r, err := query.NewGenerateReportHandler(c.Queries).Handle(ctx, query.GenerateReportQuery{
					StaffID: s.UserID,
					Filter:  f,
				})
				if err != nil {
					return err
				}
				p := a.present(c)
				if asCSV {
					return p.reportCSV(r)
				}
				p.report(r)
				return nil
			})(cmd, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&status, "status", "", "opportunity status")
	fs.StringVar(&major, "major", "", "preferred major")
	fs.StringVar(&level, "level", "", "BASIC, INTERMEDIATE or ADVANCED")
	fs.StringVar(&company, "company", "", "company name")
	fs.StringVar(&openFrom, "open-from", "", "opening date on or after YYYY-MM-DD")
	fs.StringVar(&closeBy, "close-by", "", "closing date on or before YYYY-MM-DD")
	fs.BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}
