package query

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST OPPORTUNITIES QUERY
// Role-aware listing. Students see what the eligibility engine exposes to
// them; reps see their own opportunities; staff see everything.
// ══════════════════════════════════════════════════════════════════════════════

// ListOpportunitiesQuery contains the listing parameters.
type ListOpportunitiesQuery struct {
	ActorID string `validate:"required" label:"user"`
	Filter  opportunity.Filter

	// PendingOnly restricts a staff listing to submissions awaiting review.
	PendingOnly bool
}

// ListOpportunitiesResult contains the listing.
type ListOpportunitiesResult struct {
	Role          user.Role
	Opportunities []*opportunity.Opportunity

	// Notice explains an empty student listing caused by the visibility opt-in.
	Notice string
}

// ListOpportunitiesHandler handles ListOpportunitiesQuery.
type ListOpportunitiesHandler struct {
	deps Deps
}

// NewListOpportunitiesHandler creates a new ListOpportunitiesHandler.
func NewListOpportunitiesHandler(deps Deps) *ListOpportunitiesHandler {
	return &ListOpportunitiesHandler{deps: deps}
}

// Handle executes the query.
func (h *ListOpportunitiesHandler) Handle(ctx context.Context, q ListOpportunitiesQuery) (*ListOpportunitiesResult, error) {
	if err := shared.ValidateStruct("query", "ListOpportunities", q); err != nil {
		return nil, err
	}
	h.deps.reload(ctx, "ListOpportunities", h.deps.Users, h.deps.Opportunities)

	u, err := h.deps.actor(ctx, "ListOpportunities", q.ActorID)
	if err != nil {
		return nil, err
	}
	all := h.deps.Opportunities.FindAll(ctx)
	res := &ListOpportunitiesResult{Role: u.Role()}

	switch v := u.(type) {
	case *user.Student:
		if !v.Visible {
			res.Notice = "your visibility is off; turn it on to browse opportunities"
			return res, nil
		}
		res.Opportunities = opportunity.VisibleFor(v, q.Filter, all, h.deps.today())

	case *user.CompanyRepresentative:
		owned := make([]*opportunity.Opportunity, 0, len(all))
		for _, o := range all {
			if ownedBy(v, o) {
				owned = append(owned, o)
			}
		}
		res.Opportunities = q.Filter.Apply(owned)

	case *user.CareerCenterStaff:
		f := q.Filter
		if q.PendingOnly {
			f.Status = opportunity.StatusPending
		}
		res.Opportunities = f.Apply(all)
	}

	h.deps.log("ListOpportunities").Debug("opportunities listed",
		logger.UserID(u.UserID()),
		logger.Int("count", len(res.Opportunities)),
	)
	return res, nil
}
