package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipms/placement-hub/internal/application/command"
	"github.com/ipms/placement-hub/internal/application/query"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPPORTUNITY COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) opportunitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "opportunities",
		Aliases: []string{"opp", "opps"},
		Short:   "Browse and manage internship opportunities",
	}
	cmd.AddCommand(
		a.oppListCmd(),
		a.oppFilterCmd(),
		a.oppCreateCmd(),
		a.oppEditCmd(),
		a.oppReviewCmd("approve", true),
		a.oppReviewCmd("reject", false),
		a.oppVisibilityCmd(),
		a.oppDeleteCmd(),
		a.oppCheckFilledCmd(),
	)
	return cmd
}

// ─── filter flags ────────────────────────────────────────────────────────────

var filterFlagNames = []string{"status", "major", "level", "closing-by", "sort"}

type filterFlags struct {
	status, major, level, closingBy, sort string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.status, "status", "", "PENDING, APPROVED, REJECTED or FILLED")
	fs.StringVar(&f.major, "major", "", "preferred major")
	fs.StringVar(&f.level, "level", "", "BASIC, INTERMEDIATE or ADVANCED")
	fs.StringVar(&f.closingBy, "closing-by", "", "close date on or before YYYY-MM-DD")
	fs.StringVar(&f.sort, "sort", "", "TITLE, CLOSING, COMPANY or LEVEL")
}

func changedAny(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

func (f *filterFlags) build(loc *time.Location) (opportunity.Filter, error) {
	var out opportunity.Filter
	var err error
	if f.status != "" {
		if out.Status, err = opportunity.ParseStatus(f.status); err != nil {
			return out, err
		}
	}
	if f.level != "" {
		if out.Level, err = opportunity.ParseLevel(f.level); err != nil {
			return out, err
		}
	}
	if f.closingBy != "" {
		if out.ClosingBy, err = parseDate("closing-by", f.closingBy, loc); err != nil {
			return out, err
		}
	}
	if f.sort != "" {
		if out.SortKey, err = opportunity.ParseSortKey(f.sort); err != nil {
			return out, err
		}
	}
	out.PreferredMajor = strings.TrimSpace(f.major)
	return out, nil
}

func describeFilter(f opportunity.Filter) string {
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+f.Status.String())
	}
	if f.PreferredMajor != "" {
		parts = append(parts, "major="+f.PreferredMajor)
	}
	if f.Level != "" {
		parts = append(parts, "level="+f.Level.String())
	}
	if !f.ClosingBy.IsZero() {
		parts = append(parts, "closing-by="+timeutil.FormatDateStr(f.ClosingBy))
	}
	parts = append(parts, "sort="+string(f.Key()))
	return strings.Join(parts, " ")
}

func parseDate(flag, value string, loc *time.Location) (time.Time, error) {
	t, err := timeutil.ParseDate(value, loc)
	if err != nil {
		return time.Time{}, invalidFlag(flag, value)
	}
	return t, nil
}

// ─── list / filter ───────────────────────────────────────────────────────────

func (a *App) oppListCmd() *cobra.Command {
	var ff filterFlags
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List opportunities (students: eligible and open; reps: own; staff: all)",
	}
	cmd.RunE = a.run(false, func(ctx context.Context, c *Container, s *Session) error {
		f := s.Filter
		if changedAny(cmd, filterFlagNames...) {
			var err error
			if f, err = ff.build(a.location()); err != nil {
				return err
			}
		}
		res, err := query.NewListOpportunitiesHandler(c.Queries).Handle(ctx, query.ListOpportunitiesQuery{
			ActorID:     s.UserID,
			Filter:      f,
			PendingOnly: pending,
		})
		if err != nil {
			return err
		}
		p := a.present(c)
		if res.Notice != "" {
			p.line("%s", res.Notice)
			return nil
		}
		p.opportunities(res.Opportunities, res.Role != user.RoleStudent)
		return nil
	})
	ff.bind(cmd)
	cmd.Flags().BoolVar(&pending, "pending", false, "staff: only submissions awaiting review")
	return cmd
}

func (a *App) oppFilterCmd() *cobra.Command {
	var ff filterFlags
	var reset bool
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Save the filter applied to your listings",
	}
	cmd.RunE = a.run(false, func(ctx context.Context, c *Container, s *Session) error {
		p := a.present(c)
		switch {
		case reset:
			s.Filter = opportunity.Filter{}
		case changedAny(cmd, filterFlagNames...):
			f, err := ff.build(a.location())
			if err != nil {
				return err
			}
			s.Filter = f
		default:
			p.line("filter: %s", describeFilter(s.Filter))
			return nil
		}
		if err := c.Sessions.Save(ctx, s); err != nil {
			return err
		}
		p.line("filter saved: %s", describeFilter(s.Filter))
		return nil
	})
	ff.bind(cmd)
	cmd.Flags().BoolVar(&reset, "clear", false, "remove the saved filter")
	return cmd
}

// ─── rep commands ────────────────────────────────────────────────────────────

type draftFlags struct {
	title, description, level, major, closeDate string
	slots                                      int
}

func (d *draftFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&d.title, "title", "", "title")
	fs.StringVar(&d.description, "description", "", "description")
	fs.StringVar(&d.level, "level", "", "BASIC, INTERMEDIATE or ADVANCED")
	fs.StringVar(&d.major, "major", "", "preferred major")
	fs.StringVar(&d.closeDate, "close", "", "closing date YYYY-MM-DD")
	fs.IntVar(&d.slots, "slots", 1, "number of placements")
}

func (a *App) oppCreateCmd() *cobra.Command {
	var d draftFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a new opportunity for review",
	}
	cmd.RunE = a.run(false, func(ctx context.Context, c *Container, s *Session) error {
		in := command.CreateOpportunityCommand{
			RepID:          s.UserID,
			Title:          d.title,
			Description:    d.description,
			PreferredMajor: d.major,
			Slots:          d.slots,
		}
		if d.level != "" {
			lvl, err := opportunity.ParseLevel(d.level)
			if err != nil {
				return err
			}
			in.Level = lvl
		}
		if d.closeDate != "" {
			t, err := parseDate("close", d.closeDate, a.location())
			if err != nil {
				return err
			}
			in.CloseDate = t
		}
		o, err := command.NewCreateOpportunityHandler(c.Commands).Handle(ctx, in)
		if err != nil {
			return err
		}
		p := a.present(c)
		p.line("submitted for review:")
		p.opportunity(o)
		return nil
	})
	d.bind(cmd)
	return cmd
}

func (a *App) oppEditCmd() *cobra.Command {
	var d draftFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a pending opportunity",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		changes, err := d.edits(cmd, a.location())
		if err != nil {
			return err
		}
		return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
			o, err := command.NewEditOpportunityHandler(c.Commands).Handle(ctx, command.EditOpportunityCommand{
				RepID:         s.UserID,
				OpportunityID: args[0],
				Changes:       changes,
			})
			if err != nil {
				return err
			}
			a.present(c).opportunity(o)
			return nil
		})(cmd, args)
	}
	d.bind(cmd)
	return cmd
}

// edits collects the flags that were set on the command line.
func (d *draftFlags) edits(cmd *cobra.Command, loc *time.Location) (opportunity.EditParams, error) {
	var p opportunity.EditParams
	fs := cmd.Flags()
	if fs.Changed("title") {
		p.Title = &d.title
	}
	if fs.Changed("description") {
		p.Description = &d.description
	}
	if fs.Changed("major") {
		p.PreferredMajor = &d.major
	}
	if fs.Changed("slots") {
		p.Slots = &d.slots
	}
	if fs.Changed("level") {
		lvl, err := opportunity.ParseLevel(d.level)
		if err != nil {
			return p, err
		}
		p.Level = &lvl
	}
	if fs.Changed("close") {
		t, err := parseDate("close", d.closeDate, loc)
		if err != nil {
			return p, err
		}
		p.CloseDate = &t
	}
	return p, nil
}

func (a *App) oppVisibilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visibility <id> on|off",
		Short: "Show or hide an approved opportunity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseSwitch(args[1])
			if err != nil {
				return err
			}
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				res, err := command.NewSetVisibilityHandler(c.Commands).Handle(ctx, command.SetVisibilityCommand{
					RepID:         s.UserID,
					OpportunityID: args[0],
					Visible:       on,
				})
				if err != nil {
					return err
				}
				p := a.present(c)
				switch {
				case res.Notice != "":
					p.line("%s", res.Notice)
				case res.Changed:
					p.line("%s is now %s", res.Opportunity.ID, visibleWord(res.Opportunity.Visible))
				default:
					p.line("%s is already %s", res.Opportunity.ID, visibleWord(res.Opportunity.Visible))
				}
				return nil
			})(cmd, args)
		},
	}
}

func visibleWord(v bool) string {
	if v {
		return "visible"
	}
	return "hidden"
}

func (a *App) oppDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an opportunity you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				err := command.NewDeleteOpportunityHandler(c.Commands).Handle(ctx, command.DeleteOpportunityCommand{
					RepID:         s.UserID,
					OpportunityID: args[0],
				})
				if err != nil {
					return err
				}
				a.present(c).line("%s deleted", args[0])
				return nil
			})(cmd, args)
		},
	}
}

// ─── staff commands ──────────────────────────────────────────────────────────

func (a *App) oppReviewCmd(verb string, approve bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: fmt.Sprintf("Staff: %s a pending opportunity", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				res, err := command.NewReviewOpportunityHandler(c.Commands).Handle(ctx, command.ReviewOpportunityCommand{
					StaffID:       s.UserID,
					OpportunityID: args[0],
					Approve:       approve,
				})
				if err != nil {
					return err
				}
				p := a.present(c)
				if !res.Changed {
					p.line("%s is already %s", res.Opportunity.ID, res.Opportunity.Status)
					return nil
				}
				p.line("%s is now %s", res.Opportunity.ID, res.Opportunity.Status)
				return nil
			})(cmd, args)
		},
	}
}

func (a *App) oppCheckFilledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-filled <id>",
		Short: "Staff: mark an approved opportunity without slots as FILLED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				o, changed, err := command.NewUpdateFilledStatusHandler(c.Commands).Handle(ctx, command.UpdateFilledStatusCommand{
					StaffID:       s.UserID,
					OpportunityID: args[0],
				})
				if err != nil {
					return err
				}
				p := a.present(c)
				if changed {
					p.line("%s is now %s", o.ID, o.Status)
					return nil
				}
				p.line("%s unchanged: %s with %d slot(s) left", o.ID, o.Status, o.Slots)
				return nil
			})(cmd, args)
		},
	}
}
