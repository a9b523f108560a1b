// Package shared contains common domain types, errors, identifiers, and input
// rules that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds used for errors.Is() checking.
var (
	// ErrValidation: malformed input or a missing required field.
	ErrValidation = errors.New("invalid input")

	// ErrPrecondition: a state precondition is unmet.
	ErrPrecondition = errors.New("not allowed")

	// ErrNotFound: a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrPersistence: load or save I/O failure. Absorbed by repositories.
	ErrPersistence = errors.New("persistence failure")

	// ErrForbidden: the caller's role may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials: unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "opportunity", "application", "user"
	Op      string // Operation that failed, e.g., "Apply", "Approve"
	Kind    error  // Base error kind for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching on the kind, the underlying error, or
// another DomainError with the same domain, op and message.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	var other *DomainError
	if errors.As(target, &other) {
		return other.Domain == e.Domain && other.Op == e.Op && other.Message == e.Message
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validation returns a validation error for domain/op.
func Validation(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf(format, args...))
}

// Precondition returns a precondition error for domain/op.
func Precondition(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrPrecondition, fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error naming the entity and id.
func NotFound(domain, op, entity, id string) *DomainError {
	return NewDomainError(domain, op, ErrNotFound, fmt.Sprintf("%s %q not found", entity, id))
}

// Forbidden returns a role-discrimination error.
func Forbidden(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrForbidden, fmt.Sprintf(format, args...))
}

// Opportunity lifecycle errors
var (
	ErrRepNotApproved         = NewDomainError("opportunity", "CheckRep", ErrPrecondition, "company representative is not approved")
	ErrNotOpportunityOwner    = NewDomainError("opportunity", "CheckOwner", ErrPrecondition, "representative does not own this opportunity")
	ErrOpportunityNotPending  = NewDomainError("opportunity", "Edit", ErrPrecondition, "only pending opportunities can be edited")
	ErrOpportunityNotApproved = NewDomainError("opportunity", "SetVisibility", ErrPrecondition, "opportunity is not approved")
	ErrOpportunityRejected    = NewDomainError("opportunity", "Review", ErrPrecondition, "opportunity has already been rejected")
	ErrNegativeSlots          = NewDomainError("opportunity", "SetSlots", ErrValidation, "slots cannot be negative")
	ErrCloseBeforeOpen        = NewDomainError("opportunity", "Validate", ErrValidation, "close date is before open date")
	ErrBlankTitle             = NewDomainError("opportunity", "Validate", ErrValidation, "title is required")
)

// Application lifecycle errors
var (
	ErrOpportunityClosed       = NewDomainError("application", "Apply", ErrPrecondition, "opportunity is not open for applications")
	ErrOutsideWindow           = NewDomainError("application", "Apply", ErrPrecondition, "opportunity is not currently open for this student")
	ErrNotEligible             = NewDomainError("application", "Apply", ErrPrecondition, "student is not eligible for this level")
	ErrTooManyPending          = NewDomainError("application", "Apply", ErrPrecondition, "student has reached the pending application limit")
	ErrAlreadyPlaced           = NewDomainError("application", "Apply", ErrPrecondition, "student has already accepted a placement")
	ErrAlreadyApplied          = NewDomainError("application", "Apply", ErrPrecondition, "student already has an active application for this opportunity")
	ErrApplicationNotPending   = NewDomainError("application", "Review", ErrPrecondition, "application is not pending")
	ErrApplicationNotSucceeded = NewDomainError("application", "Accept", ErrPrecondition, "only successful applications can be accepted")
	ErrNoSlotsLeft             = NewDomainError("application", "Accept", ErrPrecondition, "opportunity has no slots left")
	ErrNotApplicationOwner     = NewDomainError("application", "RequestWithdrawal", ErrPrecondition, "application belongs to another student")
	ErrAlreadyWithdrawn        = NewDomainError("application", "RequestWithdrawal", ErrPrecondition, "application is already withdrawn")
	ErrWithdrawalPending       = NewDomainError("application", "RequestWithdrawal", ErrPrecondition, "a withdrawal request is already pending")
	ErrRequestNotPending       = NewDomainError("request", "Process", ErrPrecondition, "request has already been processed")
)

// User and session errors
var (
	ErrRegistrationPending  = NewDomainError("user", "Login", ErrPrecondition, "registration pending approval")
	ErrRegistrationRejected = NewDomainError("user", "Login", ErrPrecondition, "registration was rejected")
	ErrUserExists           = NewDomainError("user", "Register", ErrPrecondition, "user id is already taken")
	ErrPasswordUnchanged    = NewDomainError("user", "ChangePassword", ErrValidation, "new password must differ from the default password")
	ErrBadCredentials       = NewDomainError("user", "Login", ErrInvalidCredentials, "wrong user id or password")
	ErrStudentHidden        = NewDomainError("user", "CheckVisibility", ErrPrecondition, "student visibility is off")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPrecondition checks if the error is an unmet precondition.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsForbidden checks if the error is a role-discrimination failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInvalidCredentials checks if the error is a failed login.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
