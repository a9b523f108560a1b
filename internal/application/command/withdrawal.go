package command

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST WITHDRAWAL
// ══════════════════════════════════════════════════════════════════════════════

// RequestWithdrawalCommand asks staff to withdraw one of the student's applications.
type RequestWithdrawalCommand struct {
	StudentID     string `validate:"required" label:"student"`
	ApplicationID string `validate:"required" label:"application"`
	Reason        string
}

// Validate validates the command.
func (c RequestWithdrawalCommand) Validate() error {
	return shared.ValidateStruct("application", "RequestWithdrawal", c)
}

// RequestWithdrawalHandler handles RequestWithdrawalCommand.
type RequestWithdrawalHandler struct {
	deps Deps
}

// NewRequestWithdrawalHandler creates a new RequestWithdrawalHandler.
func NewRequestWithdrawalHandler(deps Deps) *RequestWithdrawalHandler {
	return &RequestWithdrawalHandler{deps: deps}
}

// Handle files a PENDING request and flags the application.
func (h *RequestWithdrawalHandler) Handle(ctx context.Context, cmd RequestWithdrawalCommand) (*application.WithdrawalRequest, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s, err := h.deps.student(ctx, "application", "RequestWithdrawal", cmd.StudentID)
	if err != nil {
		return nil, err
	}
	app, err := h.deps.application(ctx, "application", "RequestWithdrawal", cmd.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !shared.EqualFold(app.StudentID, s.ID) {
		return nil, shared.ErrNotApplicationOwner
	}
	for _, prior := range h.deps.Withdrawals.FindByApplication(ctx, app.ID) {
		if prior.Status.IsPending() {
			return nil, shared.ErrWithdrawalPending
		}
	}

	now := h.deps.now()
	if err := app.MarkWithdrawalRequested(now); err != nil {
		return nil, err
	}

	req := application.NewWithdrawalRequest(h.deps.Withdrawals.NextID(), app, cmd.Reason, now)
	if err := h.deps.Withdrawals.Save(ctx, req); err != nil {
		return nil, err
	}
	if err := h.deps.Applications.Save(ctx, app); err != nil {
		return nil, err
	}

	h.deps.log("RequestWithdrawal").Info("withdrawal requested",
		logger.RequestID(req.ID),
		logger.ApplicationID(app.ID),
		logger.UserID(s.ID),
	)
	return req, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROCESS WITHDRAWAL
// ══════════════════════════════════════════════════════════════════════════════

// ProcessWithdrawalCommand records the staff decision on a withdrawal request.
type ProcessWithdrawalCommand struct {
	StaffID   string `validate:"required" label:"staff"`
	RequestID string `validate:"required" label:"request"`
	Approve   bool
}

// Validate validates the command.
func (c ProcessWithdrawalCommand) Validate() error {
	return shared.ValidateStruct("request", "ProcessWithdrawal", c)
}

// ProcessWithdrawalResult contains the outcome.
type ProcessWithdrawalResult struct {
	Request     *application.WithdrawalRequest
	Application *application.Application

	// SlotReturned is true when the opportunity got its slot back.
	SlotReturned bool
}

// ProcessWithdrawalHandler handles ProcessWithdrawalCommand.
type ProcessWithdrawalHandler struct {
	deps Deps
}

// NewProcessWithdrawalHandler creates a new ProcessWithdrawalHandler.
func NewProcessWithdrawalHandler(deps Deps) *ProcessWithdrawalHandler {
	return &ProcessWithdrawalHandler{deps: deps}
}

// Handle approves or rejects the request. Approval withdraws the application
// and gives the opportunity one slot back, reopening a FILLED one; when the
// application was ACCEPTED the student's placement is also cleared.
func (h *ProcessWithdrawalHandler) Handle(ctx context.Context, cmd ProcessWithdrawalCommand) (*ProcessWithdrawalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	staff, err := h.deps.staff(ctx, "request", "ProcessWithdrawal", cmd.StaffID)
	if err != nil {
		return nil, err
	}
	req, ok := h.deps.Withdrawals.FindByID(ctx, cmd.RequestID)
	if !ok {
		return nil, shared.NotFound("request", "ProcessWithdrawal", "withdrawal request", cmd.RequestID)
	}
	if !req.Status.IsPending() {
		return nil, shared.ErrRequestNotPending
	}
	app, err := h.deps.application(ctx, "request", "ProcessWithdrawal", req.ApplicationID)
	if err != nil {
		return nil, err
	}

	now := h.deps.now()
	log := h.deps.log("ProcessWithdrawal").With(
		logger.RequestID(req.ID),
		logger.ApplicationID(app.ID),
		logger.UserID(staff.ID),
	)

	if err := req.Decide(cmd.Approve, now); err != nil {
		return nil, err
	}
	result := &ProcessWithdrawalResult{Request: req, Application: app}

	if cmd.Approve {
		prev := app.Withdraw(now)
		if err := h.deps.Applications.Save(ctx, app); err != nil {
			return nil, err
		}
		returned, err := h.returnSlot(ctx, app, now, log)
		if err != nil {
			return nil, err
		}
		result.SlotReturned = returned
		if prev == application.StatusAccepted {
			if err := h.releasePlacement(ctx, app); err != nil {
				return nil, err
			}
		}
	}

	if err := h.deps.Withdrawals.Save(ctx, req); err != nil {
		return nil, err
	}

	log.Info("withdrawal processed",
		logger.Status(req.Status.String()),
		logger.Bool("slot_returned", result.SlotReturned),
	)
	return result, nil
}

// returnSlot adds one slot to the opportunity of every approved withdrawal
// and reopens it when it was FILLED. A deleted opportunity is logged and
// skipped.
func (h *ProcessWithdrawalHandler) returnSlot(ctx context.Context, app *application.Application, now time.Time, log *logger.Logger) (bool, error) {
	o, ok := h.deps.Opportunities.FindByID(ctx, app.OpportunityID)
	if !ok {
		log.Warn("withdrawn application refers to a missing opportunity", logger.OpportunityID(app.OpportunityID))
		return false, nil
	}
	o.ReturnSlot(now)
	if err := h.deps.Opportunities.Save(ctx, o); err != nil {
		return false, err
	}
	log.Info("slot returned", logger.OpportunityID(o.ID), logger.Slots(o.Slots), logger.Status(o.Status.String()))
	return true, nil
}

// releasePlacement clears the student's accepted placement.
func (h *ProcessWithdrawalHandler) releasePlacement(ctx context.Context, app *application.Application) error {
	s, ok := h.deps.Users.FindStudent(ctx, app.StudentID)
	if !ok || !s.ReleasePlacement(app.ID) {
		return nil
	}
	return h.deps.Users.Save(ctx, s)
}
