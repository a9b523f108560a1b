package command

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ─── Student visibility ──────────────────────────────────────────────────────

// SetStudentVisibilityCommand switches the student's browse/apply opt-in.
type SetStudentVisibilityCommand struct {
	StudentID string `validate:"required" label:"student"`
	Visible   bool
}

// SetStudentVisibilityHandler handles SetStudentVisibilityCommand.
type SetStudentVisibilityHandler struct {
	deps Deps
}

// NewSetStudentVisibilityHandler creates a new SetStudentVisibilityHandler.
func NewSetStudentVisibilityHandler(deps Deps) *SetStudentVisibilityHandler {
	return &SetStudentVisibilityHandler{deps: deps}
}

// Handle stores the new opt-in. Setting the current value is a no-op.
func (h *SetStudentVisibilityHandler) Handle(ctx context.Context, cmd SetStudentVisibilityCommand) (*user.Student, error) {
	if err := shared.ValidateStruct("user", "SetVisibility", cmd); err != nil {
		return nil, err
	}
	s, err := h.deps.student(ctx, "user", "SetVisibility", cmd.StudentID)
	if err != nil {
		return nil, err
	}
	if s.Visible == cmd.Visible {
		return s, nil
	}

	s.Visible = cmd.Visible
	if err := h.deps.Users.Save(ctx, s); err != nil {
		return nil, err
	}
	h.deps.log("SetStudentVisibility").Info("student visibility changed",
		logger.UserID(s.ID),
		logger.Bool("visible", s.Visible),
	)
	return s, nil
}

// ─── Notification marker ─────────────────────────────────────────────────────

// MarkNotificationsReadCommand moves the user's notification marker.
type MarkNotificationsReadCommand struct {
	UserID string `validate:"required" label:"user"`

	// At defaults to now.
	At time.Time
}

// MarkNotificationsReadHandler handles MarkNotificationsReadCommand.
type MarkNotificationsReadHandler struct {
	deps Deps
}

// NewMarkNotificationsReadHandler creates a new MarkNotificationsReadHandler.
func NewMarkNotificationsReadHandler(deps Deps) *MarkNotificationsReadHandler {
	return &MarkNotificationsReadHandler{deps: deps}
}

// Handle sets the marker. It never moves backwards.
func (h *MarkNotificationsReadHandler) Handle(ctx context.Context, cmd MarkNotificationsReadCommand) error {
	if err := shared.ValidateStruct("user", "MarkNotificationsRead", cmd); err != nil {
		return err
	}
	u, ok := h.deps.Users.FindByID(ctx, cmd.UserID)
	if !ok {
		return shared.NotFound("user", "MarkNotificationsRead", "user", cmd.UserID)
	}

	at := cmd.At
	if at.IsZero() {
		at = h.deps.now()
	}
	before := u.LastCheck()
	u.MarkChecked(at)
	if u.LastCheck().Equal(before) {
		return nil
	}
	return h.deps.Users.Save(ctx, u)
}
