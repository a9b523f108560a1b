package query

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST APPLICATIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListApplicationsQuery contains the listing parameters.
type ListApplicationsQuery struct {
	ActorID string `validate:"required" label:"user"`

	// OpportunityID narrows the listing. Reps may only name owned opportunities.
	OpportunityID string
}

// ApplicationView is an application joined with the names around it.
type ApplicationView struct {
	ID                  string
	StudentID           string
	StudentName         string
	OpportunityID       string
	OpportunityTitle    string
	CompanyName         string
	Status              application.Status
	AppliedAt           time.Time
	WithdrawalRequested bool

	// OpportunityDeleted is set when the opportunity no longer exists.
	OpportunityDeleted bool
}

// ListApplicationsHandler handles ListApplicationsQuery.
type ListApplicationsHandler struct {
	deps Deps
}

// NewListApplicationsHandler creates a new ListApplicationsHandler.
func NewListApplicationsHandler(deps Deps) *ListApplicationsHandler {
	return &ListApplicationsHandler{deps: deps}
}

// Handle returns the student's own applications, the applications to a rep's
// opportunities, or for staff every application.
func (h *ListApplicationsHandler) Handle(ctx context.Context, q ListApplicationsQuery) ([]ApplicationView, error) {
	if err := shared.ValidateStruct("query", "ListApplications", q); err != nil {
		return nil, err
	}
	h.deps.reload(ctx, "ListApplications", h.deps.Users, h.deps.Opportunities, h.deps.Applications)

	u, err := h.deps.actor(ctx, "ListApplications", q.ActorID)
	if err != nil {
		return nil, err
	}

	var apps []*application.Application
	switch v := u.(type) {
	case *user.Student:
		apps = h.deps.Applications.FindByStudent(ctx, v.ID)

	case *user.CompanyRepresentative:
		apps, err = h.forRep(ctx, v, q.OpportunityID)
		if err != nil {
			return nil, err
		}
		q.OpportunityID = ""

	case *user.CareerCenterStaff:
		apps = h.deps.Applications.FindAll(ctx)
	}

	views := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		if q.OpportunityID != "" && a.OpportunityID != q.OpportunityID {
			continue
		}
		views = append(views, h.view(ctx, a))
	}
	return views, nil
}

func (h *ListApplicationsHandler) forRep(ctx context.Context, rep *user.CompanyRepresentative, oppID string) ([]*application.Application, error) {
	if oppID != "" {
		o, ok := h.deps.Opportunities.FindByID(ctx, oppID)
		if !ok {
			return nil, shared.NotFound("query", "ListApplications", "opportunity", oppID)
		}
		if !ownedBy(rep, o) {
			return nil, shared.ErrNotOpportunityOwner
		}
		return h.deps.Applications.FindByOpportunity(ctx, o.ID), nil
	}

	var out []*application.Application
	for _, o := range h.deps.Opportunities.FindAll(ctx) {
		if ownedBy(rep, o) {
			out = append(out, h.deps.Applications.FindByOpportunity(ctx, o.ID)...)
		}
	}
	return out, nil
}

func (h *ListApplicationsHandler) view(ctx context.Context, a *application.Application) ApplicationView {
	v := ApplicationView{
		ID:                  a.ID,
		StudentID:           a.StudentID,
		OpportunityID:       a.OpportunityID,
		Status:              a.Status,
		AppliedAt:           a.AppliedAt,
		WithdrawalRequested: a.WithdrawalRequested,
	}
	if s, ok := h.deps.Users.FindStudent(ctx, a.StudentID); ok {
		v.StudentName = s.DisplayName
	}
	if o, ok := h.deps.Opportunities.FindByID(ctx, a.OpportunityID); ok {
		v.OpportunityTitle = o.Title
		v.CompanyName = o.CompanyName
	} else {
		v.OpportunityDeleted = true
	}
	return v
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST WITHDRAWALS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListWithdrawalsQuery lists withdrawal requests.
type ListWithdrawalsQuery struct {
	ActorID string `validate:"required" label:"user"`

	// All includes decided requests in a staff listing.
	All bool
}

// ListWithdrawalsHandler handles ListWithdrawalsQuery.
type ListWithdrawalsHandler struct {
	deps Deps
}

// NewListWithdrawalsHandler creates a new ListWithdrawalsHandler.
func NewListWithdrawalsHandler(deps Deps) *ListWithdrawalsHandler {
	return &ListWithdrawalsHandler{deps: deps}
}

// Handle returns a student's own requests or, for staff, the pending queue.
func (h *ListWithdrawalsHandler) Handle(ctx context.Context, q ListWithdrawalsQuery) ([]*application.WithdrawalRequest, error) {
	if err := shared.ValidateStruct("query", "ListWithdrawals", q); err != nil {
		return nil, err
	}
	h.deps.reload(ctx, "ListWithdrawals", h.deps.Users, h.deps.Withdrawals)

	u, err := h.deps.actor(ctx, "ListWithdrawals", q.ActorID)
	if err != nil {
		return nil, err
	}
	switch u.Role() {
	case user.RoleStudent:
		return h.deps.Withdrawals.FindByStudent(ctx, u.UserID()), nil
	case user.RoleStaff:
		if q.All {
			return h.deps.Withdrawals.FindAll(ctx), nil
		}
		return h.deps.Withdrawals.FindPending(ctx), nil
	default:
		return nil, shared.Forbidden("query", "ListWithdrawals", "only students and staff see withdrawal requests")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST REGISTRATIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListRegistrationsQuery lists rep registration requests for staff.
type ListRegistrationsQuery struct {
	StaffID string `validate:"required" label:"staff"`
	All     bool
}

// RegistrationView joins a request with the rep's details.
type RegistrationView struct {
	RequestID   string
	RepID       string
	RepName     string
	CompanyName string
	Department  string
	Position    string
	Status      shared.RequestStatus
	RequestedAt time.Time
}

// ListRegistrationsHandler handles ListRegistrationsQuery.
type ListRegistrationsHandler struct {
	deps Deps
}

// NewListRegistrationsHandler creates a new ListRegistrationsHandler.
func NewListRegistrationsHandler(deps Deps) *ListRegistrationsHandler {
	return &ListRegistrationsHandler{deps: deps}
}

// Handle returns pending requests, or every request when All is set.
func (h *ListRegistrationsHandler) Handle(ctx context.Context, q ListRegistrationsQuery) ([]RegistrationView, error) {
	if err := shared.ValidateStruct("query", "ListRegistrations", q); err != nil {
		return nil, err
	}
	h.deps.reload(ctx, "ListRegistrations", h.deps.Users, h.deps.Registrations)

	if _, err := h.deps.staff(ctx, "ListRegistrations", q.StaffID); err != nil {
		return nil, err
	}

	reqs := h.deps.Registrations.FindPending(ctx)
	if q.All {
		reqs = h.deps.Registrations.FindAll(ctx)
	}

	views := make([]RegistrationView, 0, len(reqs))
	for _, r := range reqs {
		v := RegistrationView{RequestID: r.ID, RepID: r.RepID, Status: r.Status, RequestedAt: r.RequestedAt}
		if rep, ok := h.deps.Users.FindRep(ctx, r.RepID); ok {
			v.RepName = rep.DisplayName
			v.CompanyName = rep.CompanyName
			v.Department = rep.Department
			v.Position = rep.Position
		}
		views = append(views, v)
	}
	return views, nil
}

// ─── helpers shared with the report ──────────────────────────────────────────

// liveApplications drops applications whose opportunity was deleted.
func liveApplications(apps []*application.Application, opps []*opportunity.Opportunity) []*application.Application {
	known := make(map[string]struct{}, len(opps))
	for _, o := range opps {
		known[o.ID] = struct{}{}
	}
	out := make([]*application.Application, 0, len(apps))
	for _, a := range apps {
		if _, ok := known[a.OpportunityID]; ok {
			out = append(out, a)
		}
	}
	return out
}
