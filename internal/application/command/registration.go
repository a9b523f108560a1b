package command

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/registration"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER COMPANY REPRESENTATIVE
// ══════════════════════════════════════════════════════════════════════════════

// RegisterRepCommand contains a representative's self-registration.
type RegisterRepCommand struct {
	Email       string `validate:"company_email" label:"email"`
	Name        string `validate:"notblank" label:"name"`
	CompanyName string `validate:"notblank" label:"company"`
	Department  string
	Position    string
	Password    string `validate:"notblank" label:"password"`
}

// Validate validates the command.
func (c RegisterRepCommand) Validate() error {
	return shared.ValidateStruct("user", "Register", c)
}

// RegisterRepResult contains the new account and its pending request.
type RegisterRepResult struct {
	Rep     *user.CompanyRepresentative
	Request *registration.Request
}

// RegisterRepHandler handles RegisterRepCommand.
type RegisterRepHandler struct {
	deps Deps
}

// NewRegisterRepHandler creates a new RegisterRepHandler.
func NewRegisterRepHandler(deps Deps) *RegisterRepHandler {
	return &RegisterRepHandler{deps: deps}
}

// Handle creates the rep in PENDING approval together with a PENDING request.
func (h *RegisterRepHandler) Handle(ctx context.Context, cmd RegisterRepCommand) (*RegisterRepResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, taken := h.deps.Users.FindByID(ctx, cmd.Email); taken {
		return nil, shared.ErrUserExists
	}

	digest, err := h.deps.Hasher.Hash(cmd.Password)
	if err != nil {
		return nil, shared.WrapError("user", "Register", shared.ErrValidation, "password cannot be used", err)
	}

	rep, err := user.NewRep(user.NewRepParams{
		ID:             cmd.Email,
		Name:           cmd.Name,
		CompanyName:    cmd.CompanyName,
		Department:     cmd.Department,
		Position:       cmd.Position,
		PasswordDigest: digest,
	})
	if err != nil {
		return nil, err
	}
	req := registration.NewRequest(h.deps.Registrations.NextID(), rep.ID, h.deps.now())

	if err := h.deps.Users.Save(ctx, rep); err != nil {
		return nil, err
	}
	if err := h.deps.Registrations.Save(ctx, req); err != nil {
		return nil, err
	}

	h.deps.log("RegisterRep").Info("representative registered",
		logger.UserID(rep.ID),
		logger.RequestID(req.ID),
		logger.String("company", rep.CompanyName),
	)
	return &RegisterRepResult{Rep: rep, Request: req}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROCESS REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// ProcessRegistrationCommand records the staff decision on a registration.
type ProcessRegistrationCommand struct {
	StaffID   string `validate:"required" label:"staff"`
	RequestID string `validate:"required" label:"request"`
	Approve   bool
}

// Validate validates the command.
func (c ProcessRegistrationCommand) Validate() error {
	return shared.ValidateStruct("request", "ProcessRegistration", c)
}

// ProcessRegistrationResult contains the decided request and rep.
type ProcessRegistrationResult struct {
	Request *registration.Request
	Rep     *user.CompanyRepresentative
}

// ProcessRegistrationHandler handles ProcessRegistrationCommand.
type ProcessRegistrationHandler struct {
	deps Deps
}

// NewProcessRegistrationHandler creates a new ProcessRegistrationHandler.
func NewProcessRegistrationHandler(deps Deps) *ProcessRegistrationHandler {
	return &ProcessRegistrationHandler{deps: deps}
}

// Handle moves the request and the rep to the same decision.
func (h *ProcessRegistrationHandler) Handle(ctx context.Context, cmd ProcessRegistrationCommand) (*ProcessRegistrationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	staff, err := h.deps.staff(ctx, "request", "ProcessRegistration", cmd.StaffID)
	if err != nil {
		return nil, err
	}
	req, ok := h.deps.Registrations.FindByID(ctx, cmd.RequestID)
	if !ok {
		return nil, shared.NotFound("request", "ProcessRegistration", "registration request", cmd.RequestID)
	}
	rep, ok := h.deps.Users.FindRep(ctx, req.RepID)
	if !ok {
		return nil, shared.NotFound("request", "ProcessRegistration", "representative", req.RepID)
	}

	now := h.deps.now()
	if err := req.Decide(cmd.Approve, now); err != nil {
		return nil, err
	}
	rep.Status = req.Status

	if err := h.deps.Users.Save(ctx, rep); err != nil {
		return nil, err
	}
	if err := h.deps.Registrations.Save(ctx, req); err != nil {
		return nil, err
	}

	h.deps.log("ProcessRegistration").Info("registration processed",
		logger.RequestID(req.ID),
		logger.UserID(rep.ID),
		logger.String("staff_id", staff.ID),
		logger.Status(req.Status.String()),
	)
	return &ProcessRegistrationResult{Request: req, Rep: rep}, nil
}
