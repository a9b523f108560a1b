package command

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY COMMAND
// A student applies to a published opportunity. Preconditions are checked in
// a fixed order and the first failure decides the error.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyCommand contains the data to apply.
type ApplyCommand struct {
	StudentID     string `validate:"required" label:"student"`
	OpportunityID string `validate:"required" label:"opportunity"`
}

// Validate validates the command.
func (c ApplyCommand) Validate() error {
	return shared.ValidateStruct("application", "Apply", c)
}

// ApplyHandler handles ApplyCommand.
type ApplyHandler struct {
	deps Deps
}

// NewApplyHandler creates a new ApplyHandler.
func NewApplyHandler(deps Deps) *ApplyHandler {
	return &ApplyHandler{deps: deps}
}

// Handle creates a PENDING application.
func (h *ApplyHandler) Handle(ctx context.Context, cmd ApplyCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s, err := h.deps.student(ctx, "application", "Apply", cmd.StudentID)
	if err != nil {
		return nil, err
	}
	if !s.Visible {
		return nil, shared.ErrStudentHidden
	}
	o, err := h.deps.opportunity(ctx, "application", "Apply", cmd.OpportunityID)
	if err != nil {
		return nil, err
	}

	log := h.deps.log("Apply").With(logger.UserID(s.ID), logger.OpportunityID(o.ID))

	switch {
	case !o.IsPublished():
		err = shared.ErrOpportunityClosed
	case !o.IsOpenOn(h.deps.today()):
		err = shared.ErrOutsideWindow
	case !o.EligibleFor(s):
		err = shared.ErrNotEligible
	case h.deps.Applications.CountPendingByStudent(ctx, s.ID) >= h.deps.policy().MaxPendingApplications:
		err = shared.ErrTooManyPending
	case s.HasPlacement():
		err = shared.ErrAlreadyPlaced
	case h.hasActiveApplication(ctx, s.ID, o.ID):
		err = shared.ErrAlreadyApplied
	}
	if err != nil {
		log.Debug("application refused", logger.Err(err))
		return nil, err
	}

	app := application.New(h.deps.Applications.NextID(), s.ID, o.ID, h.deps.now())
	if err := h.deps.Applications.Save(ctx, app); err != nil {
		return nil, err
	}

	log.Info("application submitted", logger.ApplicationID(app.ID))
	return app, nil
}

func (h *ApplyHandler) hasActiveApplication(ctx context.Context, studentID, opportunityID string) bool {
	for _, a := range h.deps.Applications.FindByStudent(ctx, studentID) {
		if a.OpportunityID == opportunityID && a.Status.IsActive() {
			return true
		}
	}
	return false
}
