package cli

import (
	"errors"

	"github.com/ipms/placement-hub/internal/domain/shared"
)

// userMessage renders err for the terminal. Domain errors lose their
// domain.op prefix; everything else is shown as is.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoSession) {
		return err.Error()
	}

	msg := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	switch {
	case shared.IsValidation(err):
		return "invalid input: " + msg
	case shared.IsNotFound(err):
		return "not found: " + msg
	case shared.IsPrecondition(err), shared.IsForbidden(err), shared.IsInvalidCredentials(err):
		return "not allowed: " + msg
	default:
		return "error: " + msg
	}
}
