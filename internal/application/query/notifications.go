package query

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/notification"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NOTIFICATIONS QUERY
// Derives what changed since the user's last check. Delivery moves the
// marker to now, so asking twice in a row yields nothing the second time.
// ══════════════════════════════════════════════════════════════════════════════

// GetNotificationsQuery contains the recipient.
type GetNotificationsQuery struct {
	UserID string `validate:"required" label:"user"`

	// Peek leaves the marker where it is.
	Peek bool
}

// GetNotificationsHandler handles GetNotificationsQuery.
type GetNotificationsHandler struct {
	deps Deps
}

// NewGetNotificationsHandler creates a new GetNotificationsHandler.
func NewGetNotificationsHandler(deps Deps) *GetNotificationsHandler {
	return &GetNotificationsHandler{deps: deps}
}

// Handle returns at most one notification per category.
func (h *GetNotificationsHandler) Handle(ctx context.Context, q GetNotificationsQuery) ([]notification.Notification, error) {
	if err := shared.ValidateStruct("query", "GetNotifications", q); err != nil {
		return nil, err
	}
	h.deps.reload(ctx, "GetNotifications",
		h.deps.Users, h.deps.Opportunities, h.deps.Applications, h.deps.Withdrawals, h.deps.Registrations)

	u, err := h.deps.actor(ctx, "GetNotifications", q.UserID)
	if err != nil {
		return nil, err
	}

	opps := h.deps.Opportunities.FindAll(ctx)
	snap := notification.Snapshot{
		Opportunities: opps,
		Applications:  liveApplications(h.deps.Applications.FindAll(ctx), opps),
		Withdrawals:   h.deps.Withdrawals.FindAll(ctx),
	}
	if h.deps.Registrations != nil {
		snap.Registrations = h.deps.Registrations.FindAll(ctx)
	}

	now := h.deps.now()
	list := notification.Derive(u, h.deps.today(), snap)

	if !q.Peek {
		u.MarkChecked(now)
		if err := h.deps.Users.Save(ctx, u); err != nil {
			return nil, err
		}
	}

	h.deps.log("GetNotifications").Debug("notifications derived",
		logger.UserID(u.UserID()),
		logger.Int("count", len(list)),
	)
	return list, nil
}
