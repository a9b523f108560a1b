package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ipms/placement-hub/internal/application/command"
	"github.com/ipms/placement-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION, WITHDRAWAL AND REGISTRATION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) applicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"app", "apps"},
		Short:   "Apply for and review internship applications",
	}

	var opportunityID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List applications (students: own; reps: to own opportunities; staff: all)",
		RunE: a.run(false, func(ctx context.Context, c *Container, s *Session) error {
			views, err := query.NewListApplicationsHandler(c.Queries).Handle(ctx, query.ListApplicationsQuery{
				ActorID:       s.UserID,
				OpportunityID: opportunityID,
			})
			if err != nil {
				return err
			}
			a.present(c).applications(views)
			return nil
		}),
	}
	list.Flags().StringVar(&opportunityID, "opportunity", "", "only applications to this opportunity")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "apply <opportunityId>",
			Short: "Apply for an opportunity",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
					app, err := command.NewApplyHandler(c.Commands).Handle(ctx, command.ApplyCommand{
						StudentID:     s.UserID,
						OpportunityID: args[0],
					})
					if err != nil {
						return err
					}
					p := a.present(c)
					p.line("application submitted:")
					p.application(app)
					return nil
				})(cmd, args)
			},
		},
		list,
		&cobra.Command{
			Use:   "review <applicationId> approve|reject",
			Short: "Rep: decide a pending application",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				approve, err := parseDecision(args[1])
				if err != nil {
					return err
				}
				return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
					app, err := command.NewReviewApplicationHandler(c.Commands).Handle(ctx, command.ReviewApplicationCommand{
						RepID:         s.UserID,
						ApplicationID: args[0],
						Approve:       approve,
					})
					if err != nil {
						return err
					}
					a.present(c).application(app)
					return nil
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "accept <applicationId>",
			Short: "Accept a successful application",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
					res, err := command.NewAcceptOfferHandler(c.Commands).Handle(ctx, command.AcceptOfferCommand{
						StudentID:     s.UserID,
						ApplicationID: args[0],
					})
					if err != nil {
						return err
					}
					p := a.present(c)
					p.line("placement accepted: %s at %s", res.Opportunity.Title, res.Opportunity.CompanyName)
					if len(res.Withdrawn) > 0 {
						p.line("withdrawn automatically: %s", strings.Join(res.Withdrawn, ", "))
					}
					return nil
				})(cmd, args)
			},
		},
	)
	return cmd
}

func (a *App) withdrawalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "Request and process application withdrawals",
	}

	var reason string
	request := &cobra.Command{
		Use:   "request <applicationId>",
		Short: "Ask career center staff to withdraw an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				req, err := command.NewRequestWithdrawalHandler(c.Commands).Handle(ctx, command.RequestWithdrawalCommand{
					StudentID:     s.UserID,
					ApplicationID: args[0],
					Reason:        reason,
				})
				if err != nil {
					return err
				}
				a.present(c).line("withdrawal request %s submitted for %s", req.ID, req.ApplicationID)
				return nil
			})(cmd, args)
		},
	}
	request.Flags().StringVar(&reason, "reason", "", "why you are withdrawing")

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List withdrawal requests (students: own; staff: pending)",
		RunE: a.run(false, func(ctx context.Context, c *Container, s *Session) error {
			reqs, err := query.NewListWithdrawalsHandler(c.Queries).Handle(ctx, query.ListWithdrawalsQuery{
				ActorID: s.UserID,
				All:     all,
			})
			if err != nil {
				return err
			}
			a.present(c).withdrawals(reqs)
			return nil
		}),
	}
	list.Flags().BoolVar(&all, "all", false, "staff: include processed requests")

	process := &cobra.Command{
		Use:   "process <requestId> approve|reject",
		Short: "Staff: decide a withdrawal request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			approve, err := parseDecision(args[1])
			if err != nil {
				return err
			}
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				res, err := command.NewProcessWithdrawalHandler(c.Commands).Handle(ctx, command.ProcessWithdrawalCommand{
					StaffID:   s.UserID,
					RequestID: args[0],
					Approve:   approve,
				})
				if err != nil {
					return err
				}
				p := a.present(c)
				p.line("%s %s; application %s is %s",
					res.Request.ID, res.Request.Status, res.Application.ID, res.Application.Status)
				if res.SlotReturned {
					p.line("a slot was returned to %s", res.Application.OpportunityID)
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(request, list, process)
	return cmd
}

func (a *App) registrationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registrations",
		Short: "Staff: company representative registrations",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List pending registrations",
		RunE: a.run(false, func(ctx context.Context, c *Container, s *Session) error {
			views, err := query.NewListRegistrationsHandler(c.Queries).Handle(ctx, query.ListRegistrationsQuery{
				StaffID: s.UserID,
				All:     all,
			})
			if err != nil {
				return err
			}
			a.present(c).registrations(views)
			return nil
		}),
	}
	list.Flags().BoolVar(&all, "all", false, "include processed requests")

	process := &cobra.Command{
		Use:   "process <requestId> approve|reject",
		Short: "Approve or reject a registration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			approve, err := parseDecision(args[1])
			if err != nil {
				return err
			}
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				res, err := command.NewProcessRegistrationHandler(c.Commands).Handle(ctx, command.ProcessRegistrationCommand{
					StaffID:   s.UserID,
					RequestID: args[0],
					Approve:   approve,
				})
				if err != nil {
					return err
				}
				a.present(c).line("%s is now %s", res.Rep.ID, res.Rep.Status)
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(list, process)
	return cmd
}
