package command

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPANY REVIEW COMMAND
// The owning representative marks a PENDING application SUCCESSFUL or
// UNSUCCESSFUL. Slots are not touched here; they move on acceptance.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewApplicationCommand contains the rep decision.
type ReviewApplicationCommand struct {
	RepID         string `validate:"required" label:"representative"`
	ApplicationID string `validate:"required" label:"application"`
	Approve       bool
}

// Validate validates the command.
func (c ReviewApplicationCommand) Validate() error {
	return shared.ValidateStruct("application", "Review", c)
}

// ReviewApplicationHandler handles ReviewApplicationCommand.
type ReviewApplicationHandler struct {
	deps Deps
}

// NewReviewApplicationHandler creates a new ReviewApplicationHandler.
func NewReviewApplicationHandler(deps Deps) *ReviewApplicationHandler {
	return &ReviewApplicationHandler{deps: deps}
}

// Handle records the decision. When the opportunity's owner no longer
// resolves, a rep of the same company takes ownership; the new owner is saved
// only together with a successful review.
func (h *ReviewApplicationHandler) Handle(ctx context.Context, cmd ReviewApplicationCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rep, err := h.deps.approvedRep(ctx, "application", "Review", cmd.RepID)
	if err != nil {
		return nil, err
	}
	app, err := h.deps.application(ctx, "application", "Review", cmd.ApplicationID)
	if err != nil {
		return nil, err
	}
	o, err := h.deps.opportunity(ctx, "application", "Review", app.OpportunityID)
	if err != nil {
		return nil, err
	}

	log := h.deps.log("ReviewApplication").With(
		logger.UserID(rep.ID),
		logger.ApplicationID(app.ID),
		logger.OpportunityID(o.ID),
	)

	reattached, err := o.AuthorizeReviewer(rep, h.deps.ownerResolved(ctx, o))
	if err != nil {
		return nil, err
	}
	// o and app are copies; nothing is written until the review succeeds.
	if err := app.Review(cmd.Approve, h.deps.now()); err != nil {
		return nil, err
	}

	if reattached {
		if err := h.deps.Opportunities.Save(ctx, o); err != nil {
			return nil, err
		}
		log.Warn("opportunity ownership re-attached by company match")
	}
	if err := h.deps.Applications.Save(ctx, app); err != nil {
		return nil, err
	}

	log.Info("application reviewed", logger.Status(app.Status.String()))
	return app, nil
}
