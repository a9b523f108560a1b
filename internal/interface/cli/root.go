// Package cli is the command-line boundary of the placement system. Each
// command resolves the active session, makes exactly one handler call and
// renders the result.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipms/placement-hub/config"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// App wires the command tree to a lazily built container.
type App struct {
	cfg  *config.Config
	log  *logger.Logger
	opts ContainerOptions

	out    io.Writer
	errOut io.Writer

	container *Container
}

// Option customises an App.
type Option func(*App)

// WithOutput redirects normal and error output.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// WithContainerOptions overrides the container's collaborators.
func WithContainerOptions(opts ContainerOptions) Option {
	return func(a *App) { a.opts = opts }
}

// New creates the application.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *App {
	if log == nil {
		log = logger.Discard()
	}
	a := &App{cfg: cfg, log: log, out: os.Stdout, errOut: os.Stderr}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Execute runs one invocation and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.Root()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	if cerr := a.Close(); cerr != nil {
		a.log.Warn("failed to close storage", logger.Err(cerr))
	}
	if err != nil {
		fmt.Fprintln(a.errOut, userMessage(err))
		return 1
	}
	return 0
}

// Close releases the container, if one was built.
func (a *App) Close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}

// Root builds the command tree.
func (a *App) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "ipms",
		Short:         "Internship placement management",
		Version:       a.cfg.App.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		a.importCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.passwdCmd(),
		a.registerRepCmd(),
		a.notificationsCmd(),
		a.opportunitiesCmd(),
		a.applicationsCmd(),
		a.withdrawalsCmd(),
		a.registrationsCmd(),
		a.studentCmd(),
		a.reportCmd(),
	)
	return root
}

// ─── plumbing shared by the commands ─────────────────────────────────────────

func (a *App) deps(ctx context.Context) (*Container, error) {
	if a.container != nil {
		return a.container, nil
	}
	c, err := NewContainer(ctx, a.cfg, a.log, a.opts)
	if err != nil {
		return nil, err
	}
	a.container = c
	return c, nil
}

func (a *App) present(c *Container) presenter {
	return presenter{out: a.out, now: c.Clock.Now}
}

// session resolves the active session. Accounts still on the default
// password are held at passwd unless allowMustChange is set.
func (a *App) session(ctx context.Context, c *Container, allowMustChange bool) (*Session, error) {
	s, err := c.Sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Users.FindByID(ctx, s.UserID); !ok {
		_ = c.Sessions.Clear(ctx)
		return nil, ErrNoSession
	}
	if s.MustChangePassword && !allowMustChange {
		return nil, shared.Precondition("session", "Gate",
			"change the default password first with `ipms passwd --old <old> --new <new>`")
	}
	return s, nil
}

// run resolves the container and session and calls fn.
func (a *App) run(allowMustChange bool, fn func(ctx context.Context, c *Container, s *Session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		c, err := a.deps(ctx)
		if err != nil {
			return err
		}
		s, err := a.session(ctx, c, allowMustChange)
		if err != nil {
			return err
		}
		// Handler logs carry the session that caused them.
		log := a.log.With(logger.SessionID(s.Token), logger.Role(s.Role.String()))
		c.Commands.Logger = log
		c.Queries.Logger = log
		return fn(ctx, c, s)
	}
}

func parseDecision(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "approve", "approved", "yes", "y":
		return true, nil
	case "reject", "rejected", "no", "n":
		return false, nil
	}
	return false, shared.Validation("cli", "ParseDecision", "expected approve or reject, got %q", arg)
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, shared.Validation("cli", "ParseSwitch", "expected on or off, got %q", arg)
}

func (a *App) location() *time.Location {
	return a.cfg.App.Location
}

func invalidFlag(flag, value string) error {
	return shared.Validation("cli", "ParseFlag", "--%s: cannot read %q", flag, value)
}
