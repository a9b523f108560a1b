package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/ipms/placement-hub/pkg/password"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

const (
	staffID  = "sng001@ntu.edu.sg"
	repID    = "hr@acme.com"
	otherRep = "boss@globex.com"
	senior   = "U2345123F"
	junior   = "U2310001B"
	senior2  = "U2310002C"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	clock *timeutil.FixedClock
	deps  Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	opts := memory.Options{}
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		clock: timeutil.NewFixedClock(timeutil.Date(2025, 3, 3, nil).Add(10 * time.Hour)),
	}
	f.deps = Deps{
		Users:         memory.NewUserRepository(opts),
		Opportunities: memory.NewOpportunityRepository(opts),
		Applications:  memory.NewApplicationRepository(opts),
		Withdrawals:   memory.NewWithdrawalRepository(opts),
		Registrations: memory.NewRegistrationRepository(opts),
		Clock:         f.clock,
		Hasher:        password.NewHasher(bcrypt.MinCost),
		Policy:        DefaultPolicy(),
	}

	f.addStaff(staffID)
	f.addRep(repID, "Acme", shared.RequestApproved)
	f.addRep(otherRep, "Globex", shared.RequestApproved)
	f.addStudent(senior, 3)
	f.addStudent(senior2, 4)
	f.addStudent(junior, 1)
	return f
}

func (f *fixture) digest(plain string) string {
	d, err := f.deps.Hasher.Hash(plain)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) addStaff(id string) {
	s, err := user.NewStaff(user.NewStaffParams{ID: id, Name: "Sng", Department: "CCDS", PasswordDigest: f.digest("password")})
	require.NoError(f.t, err)
	require.NoError(f.t, f.deps.Users.Save(f.ctx, s))
}

func (f *fixture) addRep(id, company string, status shared.RequestStatus) {
	r, err := user.NewRep(user.NewRepParams{ID: id, Name: "Rep", CompanyName: company, PasswordDigest: f.digest("secret")})
	require.NoError(f.t, err)
	r.Status = status
	require.NoError(f.t, f.deps.Users.Save(f.ctx, r))
}

func (f *fixture) addStudent(id string, year int) {
	s, err := user.NewStudent(user.NewStudentParams{ID: id, Name: "Student " + id, YearOfStudy: year, Major: "CSC", PasswordDigest: f.digest("password")})
	require.NoError(f.t, err)
	s.Visible = true
	require.NoError(f.t, f.deps.Users.Save(f.ctx, s))
}

// publish drafts, approves, and shows an opportunity owned by repID.
func (f *fixture) publish(level opportunity.Level, slots int) *opportunity.Opportunity {
	f.t.Helper()
	o, err := NewCreateOpportunityHandler(f.deps).Handle(f.ctx, CreateOpportunityCommand{
		RepID:     repID,
		Title:     "Platform intern",
		Level:     level,
		CloseDate: f.clock.Now().AddDate(0, 1, 0),
		Slots:     slots,
	})
	require.NoError(f.t, err)

	_, err = NewReviewOpportunityHandler(f.deps).Handle(f.ctx, ReviewOpportunityCommand{StaffID: staffID, OpportunityID: o.ID, Approve: true})
	require.NoError(f.t, err)
	res, err := NewSetVisibilityHandler(f.deps).Handle(f.ctx, SetVisibilityCommand{RepID: repID, OpportunityID: o.ID, Visible: true})
	require.NoError(f.t, err)
	require.Empty(f.t, res.Notice)
	return res.Opportunity
}

func (f *fixture) apply(studentID, oppID string) (*application.Application, error) {
	return NewApplyHandler(f.deps).Handle(f.ctx, ApplyCommand{StudentID: studentID, OpportunityID: oppID})
}

func (f *fixture) mustApply(studentID, oppID string) *application.Application {
	f.t.Helper()
	app, err := f.apply(studentID, oppID)
	require.NoError(f.t, err)
	return app
}

func (f *fixture) review(appID string, approve bool) error {
	_, err := NewReviewApplicationHandler(f.deps).Handle(f.ctx, ReviewApplicationCommand{RepID: repID, ApplicationID: appID, Approve: approve})
	return err
}

func (f *fixture) accept(studentID, appID string) (*AcceptOfferResult, error) {
	return NewAcceptOfferHandler(f.deps).Handle(f.ctx, AcceptOfferCommand{StudentID: studentID, ApplicationID: appID})
}

func (f *fixture) opp(id string) *opportunity.Opportunity {
	o, ok := f.deps.Opportunities.FindByID(f.ctx, id)
	require.True(f.t, ok)
	return o
}

func (f *fixture) app(id string) *application.Application {
	a, ok := f.deps.Applications.FindByID(f.ctx, id)
	require.True(f.t, ok)
	return a
}

func (f *fixture) student(id string) *user.Student {
	s, ok := f.deps.Users.FindStudent(f.ctx, id)
	require.True(f.t, ok)
	return s
}

// checkInvariants asserts the slot, exclusivity, and FILLED rules over the
// whole state.
func (f *fixture) checkInvariants() {
	f.t.Helper()
	for _, o := range f.deps.Opportunities.FindAll(f.ctx) {
		assert.GreaterOrEqual(f.t, o.Slots, 0, "slots of %s", o.ID)
		if o.Status == opportunity.StatusFilled {
			assert.Zero(f.t, o.Slots, "filled %s", o.ID)
		}
		if o.Status == opportunity.StatusApproved {
			assert.Positive(f.t, o.Slots, "approved %s", o.ID)
		}
	}

	for _, s := range f.deps.Users.Students(f.ctx) {
		apps := f.deps.Applications.FindByStudent(f.ctx, s.ID)
		accepted := 0
		for _, a := range apps {
			if a.Status == application.StatusAccepted {
				accepted++
			}
		}
		assert.LessOrEqual(f.t, accepted, 1, "accepted applications of %s", s.ID)
		if accepted == 1 {
			for _, a := range apps {
				if a.Status != application.StatusAccepted {
					assert.Contains(f.t, []application.Status{application.StatusWithdrawn, application.StatusUnsuccessful}, a.Status)
				}
			}
		}
	}
}
