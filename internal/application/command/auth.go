package command

import (
	"context"
	"errors"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/password"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN
// ══════════════════════════════════════════════════════════════════════════════

// LoginCommand contains the credentials.
type LoginCommand struct {
	UserID   string `validate:"notblank" label:"user id"`
	Password string `validate:"required" label:"password"`
}

// Validate validates the command.
func (c LoginCommand) Validate() error {
	return shared.ValidateStruct("user", "Login", c)
}

// LoginResult contains the authenticated account.
type LoginResult struct {
	User user.User

	// MustChangePassword is set while the account keeps the default password.
	MustChangePassword bool
}

// LoginHandler handles LoginCommand.
type LoginHandler struct {
	deps Deps
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(deps Deps) *LoginHandler {
	return &LoginHandler{deps: deps}
}

// Handle verifies the credentials. Unknown ids and wrong passwords give the
// same error. Reps are admitted only once their registration is approved.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	log := h.deps.log("Login").With(logger.UserID(user.NormalizeID(cmd.UserID)))

	u, ok := h.deps.Users.FindByID(ctx, cmd.UserID)
	if !ok {
		log.Warn("login failed", logger.String("reason", "unknown user"))
		return nil, shared.ErrBadCredentials
	}
	if err := h.deps.Hasher.Verify(u.Digest(), cmd.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("password verification failed", logger.Err(err))
		}
		log.Warn("login failed", logger.String("reason", "wrong password"))
		return nil, shared.ErrBadCredentials
	}

	if rep, ok := user.AsRep(u); ok {
		switch rep.Status {
		case shared.RequestPending:
			return nil, shared.ErrRegistrationPending
		case shared.RequestRejected:
			return nil, shared.ErrRegistrationRejected
		}
	}

	mustChange := h.deps.Hasher.Verify(u.Digest(), h.deps.policy().DefaultPassword) == nil

	log.Info("login succeeded",
		logger.Role(u.Role().String()),
		logger.Bool("must_change_password", mustChange),
	)
	return &LoginResult{User: u, MustChangePassword: mustChange}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE PASSWORD
// ══════════════════════════════════════════════════════════════════════════════

// ChangePasswordCommand replaces the password of an account.
type ChangePasswordCommand struct {
	UserID      string `validate:"notblank" label:"user id"`
	OldPassword string `validate:"required" label:"old password"`
	NewPassword string `validate:"notblank" label:"new password"`
}

// Validate validates the command.
func (c ChangePasswordCommand) Validate() error {
	return shared.ValidateStruct("user", "ChangePassword", c)
}

// ChangePasswordHandler handles ChangePasswordCommand.
type ChangePasswordHandler struct {
	deps Deps
}

// NewChangePasswordHandler creates a new ChangePasswordHandler.
func NewChangePasswordHandler(deps Deps) *ChangePasswordHandler {
	return &ChangePasswordHandler{deps: deps}
}

// Handle checks the old password and stores the digest of the new one. The
// default password is never accepted as the new password.
func (h *ChangePasswordHandler) Handle(ctx context.Context, cmd ChangePasswordCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if cmd.NewPassword == h.deps.policy().DefaultPassword {
		return shared.ErrPasswordUnchanged
	}

	u, ok := h.deps.Users.FindByID(ctx, cmd.UserID)
	if !ok {
		return shared.NotFound("user", "ChangePassword", "user", cmd.UserID)
	}
	if err := h.deps.Hasher.Verify(u.Digest(), cmd.OldPassword); err != nil {
		return shared.ErrBadCredentials
	}

	digest, err := h.deps.Hasher.Hash(cmd.NewPassword)
	if err != nil {
		return shared.WrapError("user", "ChangePassword", shared.ErrValidation, "password cannot be used", err)
	}
	u.SetDigest(digest)
	if err := h.deps.Users.Save(ctx, u); err != nil {
		return err
	}

	h.deps.log("ChangePassword").Info("password changed", logger.UserID(u.UserID()))
	return nil
}
