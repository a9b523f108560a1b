package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ipms/placement-hub/config"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/password"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

type harness struct {
	t     *testing.T
	dir   string
	cfg   *config.Config
	clock *timeutil.FixedClock
	opts  ContainerOptions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.App.DataDir = dir
	cfg.App.Location = timeutil.DefaultZone

	clock := timeutil.NewFixedClock(timeutil.Date(2025, 3, 3, nil).Add(10 * time.Hour))
	hasher := password.NewHasher(bcrypt.MinCost)
	return &harness{
		t:     t,
		dir:   dir,
		cfg:   cfg,
		clock: clock,
		opts:  ContainerOptions{Clock: clock, Hasher: &hasher},
	}
}

// exec runs one invocation the way a fresh process would.
func (h *harness) exec(args ...string) (string, string, int) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	app := New(h.cfg, nil, WithOutput(&out, &errOut), WithContainerOptions(h.opts))
	code := app.Execute(context.Background(), args)
	return out.String(), errOut.String(), code
}

// ok runs args and requires success.
func (h *harness) ok(args ...string) string {
	h.t.Helper()
	out, errOut, code := h.exec(args...)
	require.Equal(h.t, 0, code, "ipms %s failed: %s", strings.Join(args, " "), errOut)
	return out
}

// fail runs args and requires failure, returning stderr.
func (h *harness) fail(args ...string) string {
	h.t.Helper()
	_, errOut, code := h.exec(args...)
	require.Equal(h.t, 1, code, "ipms %s unexpectedly succeeded", strings.Join(args, " "))
	return errOut
}

func (h *harness) write(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.t.TempDir(), name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) seed() {
	h.t.Helper()
	students := h.write("students.csv", "StudentID,Name,Password,Year,Major\nU2310001A,Chloe Lim,x,3,CSC\n")
	staff := h.write("staff.csv", "StaffID,Name,Role,Department,Email\nsng001,Ng Sze,Staff,CCDS,sng001@ntu.edu.sg\n")
	reps := h.write("reps.csv", "Email,Name,Password,Company,Department,Position\nhr@acme.com,Alice,secret,Acme,HR,Recruiter\n")

	out := h.ok("import", "--students", students, "--staff", staff, "--reps", reps)
	assert.Contains(h.t, out, "students: imported 1")
	assert.Contains(h.t, out, "staff: imported 1")
	assert.Contains(h.t, out, "reps: imported 1")
}

func TestCLI_PlacementJourney(t *testing.T) {
	h := newHarness(t)
	h.seed()

	// Staff must change the default password before doing anything else.
	out := h.ok("login", "sng001@ntu.edu.sg", "--password", "password")
	assert.Contains(t, out, "default password")
	assert.Contains(t, h.fail("opportunities", "list"), "not allowed: change the default password")
	h.ok("passwd", "--old", "password", "--new", "s3cret")

	out = h.ok("registrations", "list")
	assert.Contains(t, out, "REG001")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, h.fail("registrations", "process", "REG001", "maybe"), "invalid input")
	assert.Contains(t, h.ok("registrations", "process", "REG001", "approve"), "hr@acme.com is now APPROVED")

	// The rep drafts an opportunity; visibility waits for approval.
	h.ok("login", "hr@acme.com", "--password", "secret")
	out = h.ok("opportunities", "create", "--title", "Backend Intern", "--level", "basic",
		"--close", "2025-03-31", "--slots", "1")
	assert.Contains(t, out, "O001")
	assert.Contains(t, h.ok("opportunities", "visibility", "O001", "on"), "once the opportunity is approved")

	h.ok("login", "sng001@ntu.edu.sg", "--password", "s3cret")
	assert.Contains(t, h.ok("opportunities", "list", "--pending"), "Backend Intern")
	assert.Contains(t, h.ok("opportunities", "approve", "O001"), "O001 is now APPROVED")

	h.ok("login", "hr@acme.com", "--password", "secret")
	assert.Contains(t, h.ok("opportunities", "visibility", "O001", "on"), "O001 is now visible")

	// The student opts in, applies and is offered the place.
	h.ok("login", "U2310001A", "--password", "password")
	h.ok("passwd", "--old", "password", "--new", "pw2")
	assert.Contains(t, h.ok("opportunities", "list"), "visibility is off")
	h.ok("student", "visibility", "on")
	assert.Contains(t, h.ok("opportunities", "list"), "Backend Intern")
	assert.Contains(t, h.ok("applications", "apply", "O001"), "A001")
	assert.Contains(t, h.fail("applications", "apply", "O001"), "not allowed: student already has an active application")

	h.ok("login", "hr@acme.com", "--password", "secret")
	out = h.ok("applications", "list")
	assert.Contains(t, out, "Chloe Lim")
	h.ok("applications", "review", "A001", "approve")

	h.ok("login", "U2310001A", "--password", "pw2")
	assert.Contains(t, h.ok("applications", "accept", "A001"), "placement accepted: Backend Intern at Acme")
	assert.Contains(t, h.ok("notifications"), "Internship application update")
	assert.Contains(t, h.ok("notifications"), "nothing new")
	assert.Contains(t, h.ok("withdrawals", "request", "A001", "--reason", "changed plans"), "W001")

	// Staff approves the withdrawal; the slot comes back and shows in the report.
	h.ok("login", "sng001@ntu.edu.sg", "--password", "s3cret")
	assert.Contains(t, h.ok("withdrawals", "list"), "changed plans")
	assert.Contains(t, h.ok("withdrawals", "process", "W001", "approve"), "a slot was returned to O001")
	assert.Contains(t, h.ok("opportunities", "check-filled", "O001"), "O001 unchanged: APPROVED with 1 slot(s) left")

	out = h.ok("report", "--csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,TITLE,COMPANY,LEVEL,STATUS,MAJOR,APPLICATIONS,FILLED,REMAINING,TOTAL", lines[0])
	assert.Equal(t, "O001,Backend Intern,Acme,BASIC,APPROVED,,1,0,1,1", lines[1])

	assert.Contains(t, h.ok("report", "--company", "acme"), "TOTAL")
	assert.Contains(t, h.fail("report", "--open-from", "soon"), "invalid input: --open-from")

	h.ok("logout")
	assert.Contains(t, h.fail("whoami"), "no active session")
}

func TestCLI_Login(t *testing.T) {
	h := newHarness(t)
	h.seed()

	assert.Contains(t, h.fail("login", "sng001@ntu.edu.sg", "--password", "nope"), "not allowed: wrong user id or password")
	assert.Contains(t, h.fail("login", "hr@acme.com", "--password", "secret"), "registration pending")
	assert.Contains(t, h.fail("notifications"), "no active session")

	h.ok("register-rep", "--email", "boss@globex.com", "--name", "Bo", "--company", "Globex",
		"--position", "CEO", "--password", "pw")
	assert.Contains(t, h.fail("register-rep", "--email", "boss@globex.com", "--name", "Bo", "--company", "Globex",
		"--password", "pw"), "already taken")
	assert.Contains(t, h.fail("register-rep", "--email", "not-an-email", "--name", "Bo", "--company", "Globex",
		"--password", "pw"), "invalid input")

	h.ok("login", "U2310001A", "--password", "password")
	out := h.ok("whoami")
	assert.Contains(t, out, "U2310001A")
	assert.Contains(t, out, "password change required")
}

func TestCLI_SavedFilter(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.ok("login", "sng001@ntu.edu.sg", "--password", "password")
	h.ok("passwd", "--old", "password", "--new", "s3cret")
	h.ok("registrations", "process", "REG001", "approve")

	h.ok("login", "hr@acme.com", "--password", "secret")
	h.ok("opportunities", "create", "--title", "Zeta", "--level", "BASIC", "--close", "2025-03-10")
	h.ok("opportunities", "create", "--title", "Alpha", "--level", "ADVANCED", "--close", "2025-04-10")

	out := h.ok("opportunities", "filter", "--sort", "closing")
	assert.Contains(t, out, "sort=CLOSING_DATE_ASC")

	out = h.ok("opportunities", "list")
	assert.Less(t, strings.Index(out, "Zeta"), strings.Index(out, "Alpha"))

	out = h.ok("opportunities", "list", "--level", "advanced")
	assert.Contains(t, out, "Alpha")
	assert.NotContains(t, out, "Zeta")

	h.ok("opportunities", "filter", "--clear")
	out = h.ok("opportunities", "list")
	assert.Less(t, strings.Index(out, "Alpha"), strings.Index(out, "Zeta"))

	assert.Contains(t, h.ok("opportunities", "edit", "O002", "--title", "Alpha Prime"), "Alpha Prime")
	assert.Contains(t, h.fail("opportunities", "edit", "O002", "--slots", "-1"), "invalid input")
	assert.Contains(t, h.fail("opportunities", "list", "--closing-by", "tomorrow"), "invalid input")
	assert.Contains(t, h.ok("opportunities", "delete", "O001"), "O001 deleted")
	assert.NotContains(t, h.ok("opportunities", "list"), "Zeta")
}

func TestFileSessionStore(t *testing.T) {
	ctx := context.Background()
	clock := timeutil.NewFixedClock(timeutil.Date(2025, 3, 3, nil))
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "s", "session.json"), time.Hour, clock)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	st, err := user.NewStudent(user.NewStudentParams{ID: "U2310001A", Name: "Chloe", YearOfStudy: 1, Major: "CSC"})
	require.NoError(t, err)
	s := NewSession(st, true, clock.Now())
	s.Filter = opportunity.Filter{Level: opportunity.LevelBasic, SortKey: opportunity.SortCompany}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)
	assert.Equal(t, user.RoleStudent, got.Role)
	assert.True(t, got.MustChangePassword)
	assert.Equal(t, s.Filter, got.Filter)

	clock.Advance(2 * time.Hour)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession, "expired sessions are dropped")

	require.NoError(t, store.Clear(ctx))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{shared.ErrNegativeSlots, "invalid input: slots cannot be negative"},
		{shared.ErrNoSlotsLeft, "not allowed: opportunity has no slots left"},
		{shared.NotFound("query", "X", "opportunity", "O9"), `not found: opportunity "O9" not found`},
		{shared.Forbidden("query", "X", "only staff"), "not allowed: only staff"},
		{shared.ErrBadCredentials, "not allowed: wrong user id or password"},
		{ErrNoSession, ErrNoSession.Error()},
		{errors.New("disk on fire"), "error: disk on fire"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
	assert.Empty(t, userMessage(nil))
}
