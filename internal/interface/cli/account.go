package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ipms/placement-hub/internal/application/command"
	"github.com/ipms/placement-hub/internal/application/query"
	"github.com/ipms/placement-hub/internal/infrastructure/importer"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) importCmd() *cobra.Command {
	var students, staff, reps string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the sample student, staff and representative lists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.deps(ctx)
			if err != nil {
				return err
			}
			p := a.present(c)
			lists := []struct {
				kind importer.Kind
				path string
			}{
				{importer.KindStudents, students},
				{importer.KindStaff, staff},
				{importer.KindReps, reps},
			}
			done := 0
			for _, l := range lists {
				if l.path == "" {
					continue
				}
				res, err := c.Importer.ImportFile(ctx, l.kind, l.path)
				if err != nil {
					return err
				}
				p.line("%s", res)
				done++
			}
			if done == 0 {
				p.line("nothing to import; pass --students, --staff or --reps")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&students, "students", "", "student list file")
	cmd.Flags().StringVar(&staff, "staff", "", "staff list file")
	cmd.Flags().StringVar(&reps, "reps", "", "company representative list file")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var pw string
	cmd := &cobra.Command{
		Use:   "login <userId>",
		Short: "Log in and start a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.deps(ctx)
			if err != nil {
				return err
			}
			res, err := command.NewLoginHandler(c.Commands).Handle(ctx, command.LoginCommand{
				UserID:   args[0],
				Password: pw,
			})
			if err != nil {
				return err
			}

			s := NewSession(res.User, res.MustChangePassword, c.Clock.Now())
			if err := c.Sessions.Save(ctx, s); err != nil {
				return err
			}
			a.log.Info("session started", logger.UserID(s.UserID), logger.SessionID(s.Token))

			p := a.present(c)
			p.line("welcome, %s (%s)", res.User.Name(), res.User.Role().Label())
			if res.MustChangePassword {
				p.line("you are using the default password; change it with `ipms passwd` before continuing")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&pw, "password", "p", "", "password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.deps(ctx)
			if err != nil {
				return err
			}
			if err := c.Sessions.Clear(ctx); err != nil {
				return err
			}
			a.present(c).line("logged out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: a.run(true, func(ctx context.Context, c *Container, s *Session) error {
			u, _ := c.Users.FindByID(ctx, s.UserID)
			p := a.present(c)
			p.line("%s  %s  (%s)", u.UserID(), u.Name(), u.Role().Label())
			if s.MustChangePassword {
				p.line("password change required")
			}
			if !s.Filter.IsEmpty() {
				p.line("saved filter: %s", describeFilter(s.Filter))
			}
			return nil
		}),
	}
}

func (a *App) passwdCmd() *cobra.Command {
	var oldPW, newPW string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: a.run(true, func(ctx context.Context, c *Container, s *Session) error {
			err := command.NewChangePasswordHandler(c.Commands).Handle(ctx, command.ChangePasswordCommand{
				UserID:      s.UserID,
				OldPassword: oldPW,
				NewPassword: newPW,
			})
			if err != nil {
				return err
			}
			s.MustChangePassword = false
			if err := c.Sessions.Save(ctx, s); err != nil {
				return err
			}
			a.present(c).line("password changed")
			return nil
		}),
	}
	cmd.Flags().StringVar(&oldPW, "old", "", "current password")
	cmd.Flags().StringVar(&newPW, "new", "", "new password")
	return cmd
}

func (a *App) registerRepCmd() *cobra.Command {
	var in command.RegisterRepCommand
	cmd := &cobra.Command{
		Use:   "register-rep",
		Short: "Register as a company representative",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.deps(ctx)
			if err != nil {
				return err
			}
			res, err := command.NewRegisterRepHandler(c.Commands).Handle(ctx, in)
			if err != nil {
				return err
			}
			a.present(c).line("registration %s submitted for %s; wait for career center approval",
				res.Request.ID, res.Rep.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "company email (login id)")
	f.StringVar(&in.Name, "name", "", "your name")
	f.StringVar(&in.CompanyName, "company", "", "company name")
	f.StringVar(&in.Department, "department", "", "department")
	f.StringVar(&in.Position, "position", "", "position")
	f.StringVar(&in.Password, "password", "", "password")
	return cmd
}

func (a *App) notificationsCmd() *cobra.Command {
	var peek bool
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show what changed since you last looked",
		RunE: a.run(false, func(ctx context.Context, c *Container, s *Session) error {
			list, err := query.NewGetNotificationsHandler(c.Queries).Handle(ctx, query.GetNotificationsQuery{
				UserID: s.UserID,
				Peek:   peek,
			})
			if err != nil {
				return err
			}
			a.present(c).notifications(list)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&peek, "peek", false, "do not mark notifications as read")
	return cmd
}

func (a *App) studentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "student", Short: "Student settings"}
	cmd.AddCommand(&cobra.Command{
		Use:   "visibility on|off",
		Short: "Opt in or out of browsing and applying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			return a.run(false, func(ctx context.Context, c *Container, s *Session) error {
				st, err := command.NewSetStudentVisibilityHandler(c.Commands).Handle(ctx, command.SetStudentVisibilityCommand{
					StudentID: s.UserID,
					Visible:   on,
				})
				if err != nil {
					return err
				}
				a.present(c).line("visibility is now %s", onOff(st.Visible))
				return nil
			})(cmd, args)
		},
	})
	return cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
