package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ipms/placement-hub/internal/application/command"
	"github.com/ipms/placement-hub/internal/domain/notification"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/report"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
	"github.com/ipms/placement-hub/pkg/password"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

const (
	staffID = "sng001@ntu.edu.sg"
	repID   = "hr@acme.com"
	rep2ID  = "boss@globex.com"
	year3   = "U2345123F"
	year1   = "U2310001B"
)

type env struct {
	t     *testing.T
	ctx   context.Context
	clock *timeutil.FixedClock
	cmd   command.Deps
	q     Deps
}

func newEnv(t *testing.T, opts memory.Options) *env {
	t.Helper()
	e := &env{
		t:     t,
		ctx:   context.Background(),
		clock: timeutil.NewFixedClock(timeutil.Date(2025, 3, 3, nil).Add(9 * time.Hour)),
	}
	users := memory.NewUserRepository(opts)
	opps := memory.NewOpportunityRepository(opts)
	apps := memory.NewApplicationRepository(opts)
	withdrawals := memory.NewWithdrawalRepository(opts)
	regs := memory.NewRegistrationRepository(opts)

	e.cmd = command.Deps{
		Users: users, Opportunities: opps, Applications: apps, Withdrawals: withdrawals, Registrations: regs,
		Clock: e.clock, Hasher: password.NewHasher(bcrypt.MinCost), Policy: command.DefaultPolicy(),
	}
	e.q = Deps{
		Users: users, Opportunities: opps, Applications: apps, Withdrawals: withdrawals, Registrations: regs,
		Clock: e.clock,
	}

	staff, err := user.NewStaff(user.NewStaffParams{ID: staffID, Name: "Sng"})
	require.NoError(t, err)
	require.NoError(t, users.Save(e.ctx, staff))
	for _, r := range []struct{ id, company string }{{repID, "Acme"}, {rep2ID, "Globex"}} {
		rep, err := user.NewRep(user.NewRepParams{ID: r.id, Name: "Rep", CompanyName: r.company})
		require.NoError(t, err)
		rep.Status = shared.RequestApproved
		require.NoError(t, users.Save(e.ctx, rep))
	}
	for _, s := range []struct {
		id   string
		year int
	}{{year3, 3}, {year1, 1}} {
		st, err := user.NewStudent(user.NewStudentParams{ID: s.id, Name: "S", YearOfStudy: s.year, Major: "CSC"})
		require.NoError(t, err)
		st.Visible = true
		require.NoError(t, users.Save(e.ctx, st))
	}
	return e
}

// publish creates an opportunity for owner and takes it to APPROVED+visible.
func (e *env) publish(owner, title string, level opportunity.Level, closeIn int, slots int) string {
	e.t.Helper()
	var closeDate time.Time
	if closeIn > 0 {
		closeDate = e.clock.Now().AddDate(0, 0, closeIn)
	}
	o, err := command.NewCreateOpportunityHandler(e.cmd).Handle(e.ctx, command.CreateOpportunityCommand{
		RepID: owner, Title: title, Level: level, CloseDate: closeDate, Slots: slots,
	})
	require.NoError(e.t, err)
	_, err = command.NewReviewOpportunityHandler(e.cmd).Handle(e.ctx, command.ReviewOpportunityCommand{StaffID: staffID, OpportunityID: o.ID, Approve: true})
	require.NoError(e.t, err)
	_, err = command.NewSetVisibilityHandler(e.cmd).Handle(e.ctx, command.SetVisibilityCommand{RepID: owner, OpportunityID: o.ID, Visible: true})
	require.NoError(e.t, err)
	return o.ID
}

func (e *env) list(actor string, f opportunity.Filter) *ListOpportunitiesResult {
	e.t.Helper()
	res, err := NewListOpportunitiesHandler(e.q).Handle(e.ctx, ListOpportunitiesQuery{ActorID: actor, Filter: f})
	require.NoError(e.t, err)
	return res
}

func titles(list []*opportunity.Opportunity) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.Title)
	}
	return out
}

func TestListOpportunities_StudentSortAndFilter(t *testing.T) {
	e := newEnv(t, memory.Options{})
	e.publish(repID, "Beta", opportunity.LevelBasic, 20, 1)
	e.publish(rep2ID, "Alpha", opportunity.LevelBasic, 0, 1)
	e.publish(repID, "Gamma", opportunity.LevelBasic, 10, 1)

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(e.list(year3, opportunity.Filter{}).Opportunities))
	assert.Equal(t, []string{"Gamma", "Beta", "Alpha"},
		titles(e.list(year3, opportunity.Filter{SortKey: opportunity.SortClosingDate}).Opportunities),
		"open-ended close dates sort last")

	closing := opportunity.Filter{ClosingBy: e.clock.Now().AddDate(0, 0, 15)}
	assert.Equal(t, []string{"Gamma"}, titles(e.list(year3, closing).Opportunities))
}

func TestListOpportunities_VisibleImpliesEligibleAndOpen(t *testing.T) {
	e := newEnv(t, memory.Options{})
	e.publish(repID, "Basic", opportunity.LevelBasic, 5, 1)
	e.publish(repID, "Advanced", opportunity.LevelAdvanced, 5, 1)

	hidden, err := command.NewCreateOpportunityHandler(e.cmd).Handle(e.ctx, command.CreateOpportunityCommand{
		RepID: repID, Title: "Draft", Level: opportunity.LevelBasic, Slots: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Basic"}, titles(e.list(year1, opportunity.Filter{}).Opportunities))
	assert.Equal(t, []string{"Advanced", "Basic"}, titles(e.list(year3, opportunity.Filter{}).Opportunities))

	e.clock.Advance(10 * 24 * time.Hour)
	assert.Empty(t, e.list(year3, opportunity.Filter{}).Opportunities, "closed windows are not visible")

	today := e.q.today()
	for _, id := range []string{year1, year3} {
		s, _ := e.q.Users.FindStudent(e.ctx, id)
		for _, o := range e.list(id, opportunity.Filter{}).Opportunities {
			assert.True(t, o.IsPublished())
			assert.True(t, o.IsOpenOn(today))
			assert.True(t, o.EligibleFor(s))
			assert.NotEqual(t, hidden.ID, o.ID)
		}
	}
}

func TestListOpportunities_HiddenStudentGetsNotice(t *testing.T) {
	e := newEnv(t, memory.Options{})
	e.publish(repID, "Basic", opportunity.LevelBasic, 5, 1)
	_, err := command.NewSetStudentVisibilityHandler(e.cmd).Handle(e.ctx, command.SetStudentVisibilityCommand{StudentID: year3})
	require.NoError(t, err)

	res := e.list(year3, opportunity.Filter{})
	assert.Empty(t, res.Opportunities)
	assert.NotEmpty(t, res.Notice)
}

func TestListOpportunities_RepAndStaff(t *testing.T) {
	e := newEnv(t, memory.Options{})
	e.publish(repID, "Mine", opportunity.LevelBasic, 5, 1)
	e.publish(rep2ID, "Theirs", opportunity.LevelBasic, 5, 1)
	_, err := command.NewCreateOpportunityHandler(e.cmd).Handle(e.ctx, command.CreateOpportunityCommand{
		RepID: repID, Title: "Draft", Level: opportunity.LevelAdvanced, Slots: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Draft", "Mine"}, titles(e.list(repID, opportunity.Filter{}).Opportunities))
	assert.Equal(t, []string{"Draft", "Mine", "Theirs"}, titles(e.list(staffID, opportunity.Filter{}).Opportunities))

	res, err := NewListOpportunitiesHandler(e.q).Handle(e.ctx, ListOpportunitiesQuery{ActorID: staffID, PendingOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft"}, titles(res.Opportunities))

	_, err = NewListOpportunitiesHandler(e.q).Handle(e.ctx, ListOpportunitiesQuery{ActorID: "nobody@x.com"})
	assert.True(t, shared.IsNotFound(err))
}

func TestListApplications(t *testing.T) {
	e := newEnv(t, memory.Options{})
	mine := e.publish(repID, "Mine", opportunity.LevelBasic, 5, 1)
	theirs := e.publish(rep2ID, "Theirs", opportunity.LevelBasic, 5, 1)
	apply := command.NewApplyHandler(e.cmd)
	for _, o := range []string{mine, theirs} {
		_, err := apply.Handle(e.ctx, command.ApplyCommand{StudentID: year3, OpportunityID: o})
		require.NoError(t, err)
	}

	h := NewListApplicationsHandler(e.q)

	own, err := h.Handle(e.ctx, ListApplicationsQuery{ActorID: year3})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	repView, err := h.Handle(e.ctx, ListApplicationsQuery{ActorID: repID})
	require.NoError(t, err)
	require.Len(t, repView, 1)
	assert.Equal(t, "Mine", repView[0].OpportunityTitle)
	assert.Equal(t, "S", repView[0].StudentName)

	_, err = h.Handle(e.ctx, ListApplicationsQuery{ActorID: repID, OpportunityID: theirs})
	assert.ErrorIs(t, err, shared.ErrNotOpportunityOwner)

	all, err := h.Handle(e.ctx, ListApplicationsQuery{ActorID: staffID, OpportunityID: theirs})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, command.NewDeleteOpportunityHandler(e.cmd).Handle(e.ctx, command.DeleteOpportunityCommand{RepID: repID, OpportunityID: mine}))
	own, err = h.Handle(e.ctx, ListApplicationsQuery{ActorID: year3})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.True(t, own[0].OpportunityDeleted)
	assert.False(t, own[1].OpportunityDeleted)
}

func TestListWithdrawalsAndRegistrations(t *testing.T) {
	e := newEnv(t, memory.Options{})
	o := e.publish(repID, "Mine", opportunity.LevelBasic, 5, 1)
	app, err := command.NewApplyHandler(e.cmd).Handle(e.ctx, command.ApplyCommand{StudentID: year3, OpportunityID: o})
	require.NoError(t, err)
	_, err = command.NewRequestWithdrawalHandler(e.cmd).Handle(e.ctx, command.RequestWithdrawalCommand{StudentID: year3, ApplicationID: app.ID})
	require.NoError(t, err)

	wh := NewListWithdrawalsHandler(e.q)
	pending, err := wh.Handle(e.ctx, ListWithdrawalsQuery{ActorID: staffID})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	own, err := wh.Handle(e.ctx, ListWithdrawalsQuery{ActorID: year1})
	require.NoError(t, err)
	assert.Empty(t, own)
	_, err = wh.Handle(e.ctx, ListWithdrawalsQuery{ActorID: repID})
	assert.True(t, shared.IsForbidden(err))

	_, err = command.NewRegisterRepHandler(e.cmd).Handle(e.ctx, command.RegisterRepCommand{
		Email: "new@initech.com", Name: "New", CompanyName: "Initech", Position: "HR", Password: "pw",
	})
	require.NoError(t, err)

	regs, err := NewListRegistrationsHandler(e.q).Handle(e.ctx, ListRegistrationsQuery{StaffID: staffID})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Initech", regs[0].CompanyName)
	assert.Equal(t, shared.RequestPending, regs[0].Status)

	_, err = NewListRegistrationsHandler(e.q).Handle(e.ctx, ListRegistrationsQuery{StaffID: repID})
	assert.True(t, shared.IsForbidden(err))
}

func TestGenerateReport_WithdrawalReopensSlot(t *testing.T) {
	e := newEnv(t, memory.Options{})
	o := e.publish(repID, "Mine", opportunity.LevelBasic, 5, 1)
	e.publish(rep2ID, "Theirs", opportunity.LevelBasic, 5, 2)

	app, err := command.NewApplyHandler(e.cmd).Handle(e.ctx, command.ApplyCommand{StudentID: year3, OpportunityID: o})
	require.NoError(t, err)
	_, err = command.NewReviewApplicationHandler(e.cmd).Handle(e.ctx, command.ReviewApplicationCommand{RepID: repID, ApplicationID: app.ID, Approve: true})
	require.NoError(t, err)

	h := NewGenerateReportHandler(e.q)
	r, err := h.Handle(e.ctx, GenerateReportQuery{StaffID: staffID, Filter: report.Filter{Company: "acme"}})
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, 1, r.Rows[0].FilledSlots)
	assert.Equal(t, 0, r.Rows[0].RemainingSlots)

	_, err = command.NewAcceptOfferHandler(e.cmd).Handle(e.ctx, command.AcceptOfferCommand{StudentID: year3, ApplicationID: app.ID})
	require.NoError(t, err)
	r, err = h.Handle(e.ctx, GenerateReportQuery{StaffID: staffID})
	require.NoError(t, err)
	assert.Len(t, r.Rows, 1, "FILLED opportunities leave the report")

	req, err := command.NewRequestWithdrawalHandler(e.cmd).Handle(e.ctx, command.RequestWithdrawalCommand{StudentID: year3, ApplicationID: app.ID})
	require.NoError(t, err)
	_, err = command.NewProcessWithdrawalHandler(e.cmd).Handle(e.ctx, command.ProcessWithdrawalCommand{StaffID: staffID, RequestID: req.ID, Approve: true})
	require.NoError(t, err)

	r, err = h.Handle(e.ctx, GenerateReportQuery{StaffID: staffID, Filter: report.Filter{Company: "Acme"}})
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	row := r.Rows[0]
	assert.Equal(t, o, row.OpportunityID)
	assert.Equal(t, opportunity.StatusApproved, row.Status)
	assert.Equal(t, 0, row.FilledSlots)
	assert.Equal(t, 1, row.RemainingSlots)
	assert.Equal(t, 1, row.TotalApplications)

	_, err = h.Handle(e.ctx, GenerateReportQuery{StaffID: year3})
	assert.True(t, shared.IsForbidden(err))
}

func TestGetNotifications_Freshness(t *testing.T) {
	e := newEnv(t, memory.Options{})
	o := e.publish(repID, "Mine", opportunity.LevelBasic, 5, 1)
	h := NewGetNotificationsHandler(e.q)

	first, err := h.Handle(e.ctx, GetNotificationsQuery{UserID: year3})
	require.NoError(t, err)
	assert.Equal(t, []notification.Type{notification.TypeNewOpportunity}, notification.Types(first))

	again, err := h.Handle(e.ctx, GetNotificationsQuery{UserID: year3})
	require.NoError(t, err)
	assert.Empty(t, again)

	e.clock.Advance(time.Second)
	app, err := command.NewApplyHandler(e.cmd).Handle(e.ctx, command.ApplyCommand{StudentID: year3, OpportunityID: o})
	require.NoError(t, err)

	e.clock.Advance(time.Second)
	_, err = command.NewReviewApplicationHandler(e.cmd).Handle(e.ctx, command.ReviewApplicationCommand{RepID: repID, ApplicationID: app.ID, Approve: true})
	require.NoError(t, err)

	peek, err := h.Handle(e.ctx, GetNotificationsQuery{UserID: year3, Peek: true})
	require.NoError(t, err)
	assert.Equal(t, []notification.Type{notification.TypeApplicationUpdate}, notification.Types(peek))

	e.clock.Advance(time.Second)
	got, err := h.Handle(e.ctx, GetNotificationsQuery{UserID: year3})
	require.NoError(t, err)
	assert.Equal(t, peek, got)

	got, err = h.Handle(e.ctx, GetNotificationsQuery{UserID: year3})
	require.NoError(t, err)
	assert.Empty(t, got)

	repNotes, err := h.Handle(e.ctx, GetNotificationsQuery{UserID: repID})
	require.NoError(t, err)
	assert.Equal(t, []notification.Type{notification.TypeNewApplication, notification.TypeOpportunityStatus}, notification.Types(repNotes))
}

// brokenStore fails every load.
type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (records.Table, error) {
	return records.Table{}, errors.New("disk gone")
}
func (brokenStore) Save(context.Context, string, records.Table) error { return nil }
func (brokenStore) Close() error                                      { return nil }

func TestQueries_ServeCachedStateWhenReloadFails(t *testing.T) {
	e := newEnv(t, memory.Options{Store: brokenStore{}})
	e.publish(repID, "Mine", opportunity.LevelBasic, 5, 1)

	res := e.list(year3, opportunity.Filter{})
	assert.Equal(t, []string{"Mine"}, titles(res.Opportunities))
}
