package opportunity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

var (
	today = timeutil.Date(2025, 3, 10, nil)
	now   = today.Add(9 * time.Hour)
)

func approvedRep() *user.CompanyRepresentative {
	return &user.CompanyRepresentative{
		Account:     user.Account{ID: "hr@acme.com", DisplayName: "HR"},
		CompanyName: "Acme",
		Status:      shared.RequestApproved,
	}
}

func published(id, title string, level Level) *Opportunity {
	return &Opportunity{
		ID:          id,
		Title:       title,
		Level:       level,
		Status:      StatusApproved,
		Visible:     true,
		OpenDate:    today.AddDate(0, 0, -5),
		CloseDate:   today.AddDate(0, 0, 5),
		CompanyName: "Acme",
		OwnerRepID:  "hr@acme.com",
		Slots:       2,
		TotalSlots:  2,
	}
}

func TestNewDraft(t *testing.T) {
	o, err := NewDraft(DraftParams{
		ID:        "O001",
		Title:     " Backend Intern ",
		Level:     LevelBasic,
		CloseDate: today.AddDate(0, 1, 0),
		Slots:     3,
	}, approvedRep(), today, now)
	require.NoError(t, err)

	assert.Equal(t, "Backend Intern", o.Title)
	assert.Equal(t, StatusPending, o.Status)
	assert.False(t, o.Visible)
	assert.Equal(t, "Acme", o.CompanyName)
	assert.Equal(t, "hr@acme.com", o.OwnerRepID)
	assert.Equal(t, today, o.OpenDate)
	assert.Equal(t, 3, o.TotalSlots)
}

func TestNewDraft_Validation(t *testing.T) {
	rep := approvedRep()

	_, err := NewDraft(DraftParams{Title: "  ", Level: LevelBasic}, rep, today, now)
	assert.ErrorIs(t, err, shared.ErrBlankTitle)

	_, err = NewDraft(DraftParams{Title: "x", Level: LevelBasic, Slots: -1}, rep, today, now)
	assert.ErrorIs(t, err, shared.ErrNegativeSlots)

	_, err = NewDraft(DraftParams{Title: "x", Level: LevelBasic, CloseDate: today.AddDate(0, 0, -1)}, rep, today, now)
	assert.ErrorIs(t, err, shared.ErrCloseBeforeOpen)

	_, err = NewDraft(DraftParams{Title: "x", Level: "EXPERT"}, rep, today, now)
	assert.True(t, shared.IsValidation(err))
}

func TestApprove_Idempotent(t *testing.T) {
	o := &Opportunity{ID: "O001", Status: StatusPending, Slots: 1}

	assert.True(t, o.Approve(now))
	first := *o

	assert.False(t, o.Approve(now.Add(time.Hour)))
	assert.Equal(t, first, *o)
	assert.False(t, o.Visible, "approval does not change visibility")
}

func TestReject(t *testing.T) {
	o := &Opportunity{ID: "O001", Status: StatusPending}
	changed, err := o.Reject(now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusRejected, o.Status)

	filled := &Opportunity{ID: "O002", Status: StatusFilled}
	_, err = filled.Reject(now)
	assert.True(t, shared.IsPrecondition(err))
}

func TestSetVisible(t *testing.T) {
	pending := &Opportunity{ID: "O001", Status: StatusPending}
	_, err := pending.SetVisible(true, now)
	assert.ErrorIs(t, err, shared.ErrOpportunityNotApproved)
	assert.False(t, pending.Visible)

	o := &Opportunity{ID: "O002", Status: StatusApproved}
	changed, err := o.SetVisible(true, now)
	require.NoError(t, err)
	assert.True(t, changed)

	snapshot := *o
	changed, err = o.SetVisible(true, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, snapshot, *o)
}

func TestSlots_FillAndReopen(t *testing.T) {
	o := &Opportunity{ID: "O001", Status: StatusApproved, Slots: 1, TotalSlots: 1}

	require.NoError(t, o.TakeSlot(now))
	assert.Equal(t, 0, o.Slots)
	assert.Equal(t, StatusFilled, o.Status)
	assert.Equal(t, 1, o.FilledSlots())

	assert.ErrorIs(t, o.TakeSlot(now), shared.ErrNoSlotsLeft)
	assert.Equal(t, 0, o.Slots, "slots never go negative")

	o.ReturnSlot(now)
	assert.Equal(t, 1, o.Slots)
	assert.Equal(t, StatusApproved, o.Status)
}

func TestUpdateFilledStatus_OnlyApproved(t *testing.T) {
	pending := &Opportunity{Status: StatusPending, Slots: 0}
	assert.False(t, pending.UpdateFilledStatus(now))
	assert.Equal(t, StatusPending, pending.Status)

	approved := &Opportunity{Status: StatusApproved, Slots: 0}
	assert.True(t, approved.UpdateFilledStatus(now))
	assert.Equal(t, StatusFilled, approved.Status)
}

func TestEdit(t *testing.T) {
	o, err := NewDraft(DraftParams{ID: "O001", Title: "Old", Level: LevelBasic, Slots: 1}, approvedRep(), today, now)
	require.NoError(t, err)

	title := "New"
	slots := 4
	level := LevelAdvanced
	require.NoError(t, o.Edit(EditParams{Title: &title, Slots: &slots, Level: &level}, now))
	assert.Equal(t, "New", o.Title)
	assert.Equal(t, 4, o.Slots)
	assert.Equal(t, LevelAdvanced, o.Level)

	neg := -2
	assert.ErrorIs(t, o.Edit(EditParams{Slots: &neg}, now), shared.ErrNegativeSlots)
	assert.Equal(t, 4, o.Slots, "failed edit leaves the entity untouched")

	o.Approve(now)
	assert.ErrorIs(t, o.Edit(EditParams{Title: &title}, now), shared.ErrOpportunityNotPending)
}

func TestAuthorizeReviewer(t *testing.T) {
	rep := approvedRep()
	other := &user.CompanyRepresentative{Account: user.Account{ID: "x@other.com"}, CompanyName: "Other"}

	o := published("O001", "t", LevelBasic)
	reattached, err := o.AuthorizeReviewer(rep, true)
	require.NoError(t, err)
	assert.False(t, reattached)

	_, err = o.AuthorizeReviewer(other, true)
	assert.ErrorIs(t, err, shared.ErrNotOpportunityOwner)

	orphan := published("O002", "t", LevelBasic)
	orphan.OwnerRepID = ""
	reattached, err = orphan.AuthorizeReviewer(rep, false)
	require.NoError(t, err)
	assert.True(t, reattached)
	assert.Equal(t, rep.ID, orphan.OwnerRepID)

	orphan2 := published("O003", "t", LevelBasic)
	orphan2.OwnerRepID = ""
	_, err = orphan2.AuthorizeReviewer(other, false)
	assert.ErrorIs(t, err, shared.ErrNotOpportunityOwner)
}

func TestIsEligible(t *testing.T) {
	for year := 1; year <= 4; year++ {
		for _, lvl := range []Level{LevelBasic, LevelIntermediate, LevelAdvanced} {
			want := year >= 3 || lvl == LevelBasic
			assert.Equal(t, want, IsEligible(year, lvl), "year %d level %s", year, lvl)
		}
	}
}

func TestFilter_DefaultSortIsTitle(t *testing.T) {
	list := []*Opportunity{
		published("O1", "Beta", LevelBasic),
		published("O2", "alpha", LevelBasic),
		published("O3", "Gamma", LevelBasic),
	}

	got := Filter{}.Apply(list)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"alpha", "Beta", "Gamma"}, titles(got))
	assert.Equal(t, "Beta", list[0].Title, "input is not reordered")
}

func TestFilter_ClosingDateNullsLast(t *testing.T) {
	a := published("O1", "Beta", LevelBasic)
	a.CloseDate = today.AddDate(0, 0, 9)
	b := published("O2", "Alpha", LevelBasic)
	b.CloseDate = time.Time{}
	c := published("O3", "Gamma", LevelBasic)
	c.CloseDate = today.AddDate(0, 0, 2)

	got := Filter{SortKey: SortClosingDate}.Apply([]*Opportunity{a, b, c})
	assert.Equal(t, []string{"Gamma", "Beta", "Alpha"}, titles(got))
}

func TestFilter_CompanyAndLevel(t *testing.T) {
	a := published("O1", "A", LevelAdvanced)
	a.CompanyName = "zeta"
	b := published("O2", "B", LevelBasic)
	b.CompanyName = "Alpha"
	c := published("O3", "C", LevelIntermediate)
	c.CompanyName = "beta"

	assert.Equal(t, []string{"B", "C", "A"}, titles(Filter{SortKey: SortCompany}.Apply([]*Opportunity{a, b, c})))
	assert.Equal(t, []string{"B", "C", "A"}, titles(Filter{SortKey: SortLevel}.Apply([]*Opportunity{a, b, c})))
}

func TestFilter_Criteria(t *testing.T) {
	o := published("O1", "A", LevelBasic)
	o.PreferredMajor = "Computer Science"

	assert.True(t, Filter{PreferredMajor: "computer science"}.Matches(o))
	assert.False(t, Filter{PreferredMajor: "EEE"}.Matches(o))
	assert.True(t, Filter{Level: LevelBasic, Status: StatusApproved}.Matches(o))
	assert.False(t, Filter{Status: StatusPending}.Matches(o))
	assert.True(t, Filter{ClosingBy: o.CloseDate}.Matches(o))
	assert.False(t, Filter{ClosingBy: o.CloseDate.AddDate(0, 0, -1)}.Matches(o))

	noMajor := published("O2", "B", LevelBasic)
	assert.False(t, Filter{PreferredMajor: "CS"}.Matches(noMajor))
}

func TestVisibleFor(t *testing.T) {
	junior := &user.Student{Account: user.Account{ID: "U1234567A"}, YearOfStudy: 1}
	senior := &user.Student{Account: user.Account{ID: "U7654321B"}, YearOfStudy: 3}

	basic := published("O1", "Basic", LevelBasic)
	advanced := published("O2", "Advanced", LevelAdvanced)
	hidden := published("O3", "Hidden", LevelBasic)
	hidden.Visible = false
	pending := published("O4", "Pending", LevelBasic)
	pending.Status = StatusPending
	closed := published("O5", "Closed", LevelBasic)
	closed.CloseDate = today.AddDate(0, 0, -1)
	future := published("O6", "Future", LevelBasic)
	future.OpenDate = today.AddDate(0, 0, 1)
	filled := published("O7", "Filled", LevelBasic)
	filled.Status = StatusFilled

	all := []*Opportunity{basic, advanced, hidden, pending, closed, future, filled}

	assert.Equal(t, []string{"Basic"}, titles(VisibleFor(junior, Filter{}, all, today)))
	assert.Equal(t, []string{"Advanced", "Basic"}, titles(VisibleFor(senior, Filter{}, all, today)))
	assert.Equal(t, []string{"Advanced"}, titles(VisibleFor(senior, Filter{Level: LevelAdvanced}, all, today)))

	for _, o := range VisibleFor(senior, Filter{}, all, today) {
		assert.True(t, o.Status == StatusApproved && o.Visible && o.IsOpenOn(today) && o.EligibleFor(senior))
	}
}

func TestParseHelpers(t *testing.T) {
	l, err := ParseLevel("intermediate")
	require.NoError(t, err)
	assert.Equal(t, LevelIntermediate, l)

	s, err := ParseStatus("filled")
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, s)

	k, err := ParseSortKey("closing")
	require.NoError(t, err)
	assert.Equal(t, SortClosingDate, k)

	_, err = ParseSortKey("random")
	assert.True(t, shared.IsValidation(err))
}

func titles(list []*Opportunity) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.Title)
	}
	return out
}
