package command

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE OPPORTUNITY
// ══════════════════════════════════════════════════════════════════════════════

// CreateOpportunityCommand drafts a new opportunity for the rep's company.
type CreateOpportunityCommand struct {
	RepID          string `validate:"required" label:"representative"`
	Title          string `validate:"notblank" label:"title"`
	Description    string
	Level          opportunity.Level `validate:"required" label:"level"`
	PreferredMajor string
	CloseDate      time.Time
	Slots          int `validate:"gte=0" label:"slots"`
}

// Validate validates the command.
func (c CreateOpportunityCommand) Validate() error {
	if c.Slots < 0 {
		return shared.ErrNegativeSlots
	}
	return shared.ValidateStruct("opportunity", "Create", c)
}

// CreateOpportunityHandler handles CreateOpportunityCommand.
type CreateOpportunityHandler struct {
	deps Deps
}

// NewCreateOpportunityHandler creates a new CreateOpportunityHandler.
func NewCreateOpportunityHandler(deps Deps) *CreateOpportunityHandler {
	return &CreateOpportunityHandler{deps: deps}
}

// Handle creates the PENDING, hidden draft and returns it as persisted.
func (h *CreateOpportunityHandler) Handle(ctx context.Context, cmd CreateOpportunityCommand) (*opportunity.Opportunity, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rep, err := h.deps.approvedRep(ctx, "opportunity", "Create", cmd.RepID)
	if err != nil {
		return nil, err
	}
	if !shared.IsValidCompanyEmail(rep.ID) {
		return nil, shared.Validation("opportunity", "Create", "representative %s has no valid company email", rep.ID)
	}
	if err := checkSlots("Create", cmd.Slots, h.deps.policy().MaxSlots); err != nil {
		return nil, err
	}

	o, err := opportunity.NewDraft(opportunity.DraftParams{
		ID:             h.deps.Opportunities.NextID(),
		Title:          cmd.Title,
		Description:    cmd.Description,
		Level:          cmd.Level,
		PreferredMajor: cmd.PreferredMajor,
		CloseDate:      cmd.CloseDate,
		Slots:          cmd.Slots,
	}, rep, h.deps.today(), h.deps.now())
	if err != nil {
		return nil, err
	}

	if err := h.deps.Opportunities.Save(ctx, o); err != nil {
		return nil, err
	}

	h.deps.log("CreateOpportunity").Info("opportunity drafted",
		logger.OpportunityID(o.ID),
		logger.UserID(rep.ID),
		logger.Slots(o.Slots),
	)
	return o, nil
}

// checkSlots enforces 1..limit offered slots.
func checkSlots(op string, n, limit int) error {
	if n < 0 {
		return shared.ErrNegativeSlots
	}
	if n < 1 || n > limit {
		return shared.Validation("opportunity", op, "slots must be between 1 and %d", limit)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EDIT OPPORTUNITY
// ══════════════════════════════════════════════════════════════════════════════

// EditOpportunityCommand changes a PENDING opportunity. Nil fields are kept.
type EditOpportunityCommand struct {
	RepID         string `validate:"required" label:"representative"`
	OpportunityID string `validate:"required" label:"opportunity"`
	Changes       opportunity.EditParams
}

// Validate validates the command.
func (c EditOpportunityCommand) Validate() error {
	if err := shared.ValidateStruct("opportunity", "Edit", c); err != nil {
		return err
	}
	if c.Changes.IsEmpty() {
		return shared.Validation("opportunity", "Edit", "nothing to change")
	}
	if c.Changes.Slots != nil && *c.Changes.Slots < 0 {
		return shared.ErrNegativeSlots
	}
	return nil
}

// EditOpportunityHandler handles EditOpportunityCommand.
type EditOpportunityHandler struct {
	deps Deps
}

// NewEditOpportunityHandler creates a new EditOpportunityHandler.
func NewEditOpportunityHandler(deps Deps) *EditOpportunityHandler {
	return &EditOpportunityHandler{deps: deps}
}

// Handle applies the changes when the rep owns the opportunity.
func (h *EditOpportunityHandler) Handle(ctx context.Context, cmd EditOpportunityCommand) (*opportunity.Opportunity, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rep, err := h.deps.approvedRep(ctx, "opportunity", "Edit", cmd.RepID)
	if err != nil {
		return nil, err
	}
	o, err := h.deps.ownedOpportunity(ctx, "opportunity", "Edit", rep, cmd.OpportunityID)
	if err != nil {
		return nil, err
	}
	if s := cmd.Changes.Slots; s != nil {
		if err := checkSlots("Edit", *s, h.deps.policy().MaxSlots); err != nil {
			return nil, err
		}
	}

	if err := o.Edit(cmd.Changes, h.deps.now()); err != nil {
		return nil, err
	}
	if err := h.deps.Opportunities.Save(ctx, o); err != nil {
		return nil, err
	}

	h.deps.log("EditOpportunity").Info("opportunity edited", logger.OpportunityID(o.ID), logger.UserID(rep.ID))
	return o, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW OPPORTUNITY (staff approve / reject)
// ══════════════════════════════════════════════════════════════════════════════

// ReviewOpportunityCommand records the staff decision on an opportunity.
type ReviewOpportunityCommand struct {
	StaffID       string `validate:"required" label:"staff"`
	OpportunityID string `validate:"required" label:"opportunity"`
	Approve       bool
}

// Validate validates the command.
func (c ReviewOpportunityCommand) Validate() error {
	return shared.ValidateStruct("opportunity", "Review", c)
}

// ReviewOpportunityResult reports the outcome.
type ReviewOpportunityResult struct {
	Opportunity *opportunity.Opportunity

	// Changed is false when the decision was already in effect.
	Changed bool
}

// ReviewOpportunityHandler handles ReviewOpportunityCommand.
type ReviewOpportunityHandler struct {
	deps Deps
}

// NewReviewOpportunityHandler creates a new ReviewOpportunityHandler.
func NewReviewOpportunityHandler(deps Deps) *ReviewOpportunityHandler {
	return &ReviewOpportunityHandler{deps: deps}
}

// Handle approves or rejects. Approval leaves visibility untouched; approving
// twice changes nothing.
func (h *ReviewOpportunityHandler) Handle(ctx context.Context, cmd ReviewOpportunityCommand) (*ReviewOpportunityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	staff, err := h.deps.staff(ctx, "opportunity", "Review", cmd.StaffID)
	if err != nil {
		return nil, err
	}
	o, err := h.deps.opportunity(ctx, "opportunity", "Review", cmd.OpportunityID)
	if err != nil {
		return nil, err
	}

	now := h.deps.now()
	var changed bool
	if cmd.Approve {
		changed = o.Approve(now)
	} else {
		changed, err = o.Reject(now)
		if err != nil {
			return nil, err
		}
	}

	if changed {
		if err := h.deps.Opportunities.Save(ctx, o); err != nil {
			return nil, err
		}
		h.deps.log("ReviewOpportunity").Info("opportunity reviewed",
			logger.OpportunityID(o.ID),
			logger.UserID(staff.ID),
			logger.Status(o.Status.String()),
		)
	}
	return &ReviewOpportunityResult{Opportunity: o, Changed: changed}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET VISIBILITY
// ══════════════════════════════════════════════════════════════════════════════

// SetVisibilityCommand toggles whether students see an opportunity.
type SetVisibilityCommand struct {
	RepID         string `validate:"required" label:"representative"`
	OpportunityID string `validate:"required" label:"opportunity"`
	Visible       bool
}

// Validate validates the command.
func (c SetVisibilityCommand) Validate() error {
	return shared.ValidateStruct("opportunity", "SetVisibility", c)
}

// SetVisibilityResult reports the outcome. Notice is set when the toggle was
// not applied because the opportunity is not approved.
type SetVisibilityResult struct {
	Opportunity *opportunity.Opportunity
	Changed     bool
	Notice      string
}

// SetVisibilityHandler handles SetVisibilityCommand.
type SetVisibilityHandler struct {
	deps Deps
}

// NewSetVisibilityHandler creates a new SetVisibilityHandler.
func NewSetVisibilityHandler(deps Deps) *SetVisibilityHandler {
	return &SetVisibilityHandler{deps: deps}
}

// Handle toggles visibility on an owned APPROVED opportunity.
func (h *SetVisibilityHandler) Handle(ctx context.Context, cmd SetVisibilityCommand) (*SetVisibilityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rep, err := h.deps.approvedRep(ctx, "opportunity", "SetVisibility", cmd.RepID)
	if err != nil {
		return nil, err
	}
	o, err := h.deps.ownedOpportunity(ctx, "opportunity", "SetVisibility", rep, cmd.OpportunityID)
	if err != nil {
		return nil, err
	}

	log := h.deps.log("SetVisibility").With(logger.OpportunityID(o.ID), logger.UserID(rep.ID))

	changed, err := o.SetVisible(cmd.Visible, h.deps.now())
	if err != nil {
		if shared.IsPrecondition(err) {
			log.Warn("visibility toggle ignored", logger.Status(o.Status.String()))
			return &SetVisibilityResult{
				Opportunity: o,
				Notice:      "visibility can only be changed once the opportunity is approved (status " + o.Status.String() + ")",
			}, nil
		}
		return nil, err
	}

	if changed {
		if err := h.deps.Opportunities.Save(ctx, o); err != nil {
			return nil, err
		}
		log.Info("visibility changed", logger.Bool("visible", o.Visible))
	}
	return &SetVisibilityResult{Opportunity: o, Changed: changed}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE FILLED STATUS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateFilledStatusCommand re-evaluates the FILLED transition of one
// opportunity, e.g. after its record was imported or edited with no slots.
type UpdateFilledStatusCommand struct {
	StaffID       string `validate:"required" label:"staff"`
	OpportunityID string `validate:"required" label:"opportunity"`
}

// UpdateFilledStatusHandler handles UpdateFilledStatusCommand.
type UpdateFilledStatusHandler struct {
	deps Deps
}

// NewUpdateFilledStatusHandler creates a new UpdateFilledStatusHandler.
func NewUpdateFilledStatusHandler(deps Deps) *UpdateFilledStatusHandler {
	return &UpdateFilledStatusHandler{deps: deps}
}

// Handle moves an APPROVED opportunity without slots to FILLED and reports
// whether it did.
func (h *UpdateFilledStatusHandler) Handle(ctx context.Context, cmd UpdateFilledStatusCommand) (*opportunity.Opportunity, bool, error) {
	if err := shared.ValidateStruct("opportunity", "UpdateFilledStatus", cmd); err != nil {
		return nil, false, err
	}
	staff, err := h.deps.staff(ctx, "opportunity", "UpdateFilledStatus", cmd.StaffID)
	if err != nil {
		return nil, false, err
	}
	o, err := h.deps.opportunity(ctx, "opportunity", "UpdateFilledStatus", cmd.OpportunityID)
	if err != nil {
		return nil, false, err
	}
	if !o.UpdateFilledStatus(h.deps.now()) {
		return o, false, nil
	}
	if err := h.deps.Opportunities.Save(ctx, o); err != nil {
		return nil, false, err
	}
	h.deps.log("UpdateFilledStatus").Info("opportunity filled",
		logger.OpportunityID(o.ID),
		logger.UserID(staff.ID),
	)
	return o, true, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE OPPORTUNITY
// ══════════════════════════════════════════════════════════════════════════════

// DeleteOpportunityCommand removes an owned opportunity. Applications that
// reference it are kept.
type DeleteOpportunityCommand struct {
	RepID         string `validate:"required" label:"representative"`
	OpportunityID string `validate:"required" label:"opportunity"`
}

// DeleteOpportunityHandler handles DeleteOpportunityCommand.
type DeleteOpportunityHandler struct {
	deps Deps
}

// NewDeleteOpportunityHandler creates a new DeleteOpportunityHandler.
func NewDeleteOpportunityHandler(deps Deps) *DeleteOpportunityHandler {
	return &DeleteOpportunityHandler{deps: deps}
}

// Handle deletes the opportunity when the rep owns it.
func (h *DeleteOpportunityHandler) Handle(ctx context.Context, cmd DeleteOpportunityCommand) error {
	if err := shared.ValidateStruct("opportunity", "Delete", cmd); err != nil {
		return err
	}
	rep, err := h.deps.approvedRep(ctx, "opportunity", "Delete", cmd.RepID)
	if err != nil {
		return err
	}
	o, err := h.deps.ownedOpportunity(ctx, "opportunity", "Delete", rep, cmd.OpportunityID)
	if err != nil {
		return err
	}
	if err := h.deps.Opportunities.Delete(ctx, o.ID); err != nil {
		return err
	}

	h.deps.log("DeleteOpportunity").Info("opportunity deleted",
		logger.OpportunityID(o.ID),
		logger.UserID(rep.ID),
		logger.Int("applications_kept", len(h.deps.Applications.FindByOpportunity(ctx, o.ID))),
	)
	return nil
}
