package command

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPT OFFER COMMAND
// The student accepts a SUCCESSFUL offer. Every other live application of the
// student is withdrawn, the placement is recorded, and one slot is consumed.
// ══════════════════════════════════════════════════════════════════════════════

// AcceptOfferCommand contains the offer being accepted.
type AcceptOfferCommand struct {
	StudentID     string `validate:"required" label:"student"`
	ApplicationID string `validate:"required" label:"application"`
}

// Validate validates the command.
func (c AcceptOfferCommand) Validate() error {
	return shared.ValidateStruct("application", "Accept", c)
}

// AcceptOfferResult contains the result of an acceptance.
type AcceptOfferResult struct {
	Application *application.Application
	Opportunity *opportunity.Opportunity

	// Withdrawn lists the ids of applications withdrawn by the acceptance.
	Withdrawn []string
}

// AcceptOfferHandler handles AcceptOfferCommand.
type AcceptOfferHandler struct {
	deps Deps
}

// NewAcceptOfferHandler creates a new AcceptOfferHandler.
func NewAcceptOfferHandler(deps Deps) *AcceptOfferHandler {
	return &AcceptOfferHandler{deps: deps}
}

// Handle accepts the offer. All checks run before anything is written so a
// refused acceptance leaves every entity untouched.
func (h *AcceptOfferHandler) Handle(ctx context.Context, cmd AcceptOfferCommand) (*AcceptOfferResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s, err := h.deps.student(ctx, "application", "Accept", cmd.StudentID)
	if err != nil {
		return nil, err
	}
	app, err := h.deps.application(ctx, "application", "Accept", cmd.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !shared.EqualFold(app.StudentID, s.ID) {
		return nil, shared.ErrNotApplicationOwner
	}
	if app.Status != application.StatusSuccessful {
		return nil, shared.ErrApplicationNotSucceeded
	}
	if s.HasPlacement() {
		return nil, shared.ErrAlreadyPlaced
	}
	o, err := h.deps.opportunity(ctx, "application", "Accept", app.OpportunityID)
	if err != nil {
		return nil, err
	}
	if o.Slots <= 0 {
		return nil, shared.ErrNoSlotsLeft
	}

	now := h.deps.now()
	log := h.deps.log("AcceptOffer").With(logger.UserID(s.ID), logger.ApplicationID(app.ID))

	var withdrawn []string
	for _, other := range h.deps.Applications.FindByStudent(ctx, s.ID) {
		if other.ID == app.ID || !other.WithdrawForAcceptance(now) {
			continue
		}
		if err := h.deps.Applications.Save(ctx, other); err != nil {
			return nil, err
		}
		withdrawn = append(withdrawn, other.ID)
	}

	if err := app.Accept(now); err != nil {
		return nil, err
	}
	if err := h.deps.Applications.Save(ctx, app); err != nil {
		return nil, err
	}

	s.AcceptPlacement(app.ID)
	if err := h.deps.Users.Save(ctx, s); err != nil {
		return nil, err
	}

	if err := o.TakeSlot(now); err != nil {
		return nil, err
	}
	if err := h.deps.Opportunities.Save(ctx, o); err != nil {
		return nil, err
	}

	log.Info("offer accepted",
		logger.OpportunityID(o.ID),
		logger.Slots(o.Slots),
		logger.Status(o.Status.String()),
		logger.Int("withdrawn", len(withdrawn)),
	)
	return &AcceptOfferResult{Application: app, Opportunity: o, Withdrawn: withdrawn}, nil
}
