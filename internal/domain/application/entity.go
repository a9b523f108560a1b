// Package application models a student's application to an opportunity and
// the withdrawal requests raised against it.
package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of an application.
//
//	PENDING -> SUCCESSFUL -> ACCEPTED
//	        \-> UNSUCCESSFUL
//	any non-terminal -> WITHDRAWN
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusSuccessful   Status = "SUCCESSFUL"
	StatusAccepted     Status = "ACCEPTED"
	StatusUnsuccessful Status = "UNSUCCESSFUL"
	StatusWithdrawn    Status = "WITHDRAWN"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccessful, StatusAccepted, StatusUnsuccessful, StatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether the application is closed without a placement.
func (s Status) IsTerminal() bool {
	return s == StatusWithdrawn || s == StatusUnsuccessful
}

// IsActive reports whether the application still counts against the student
// (PENDING, SUCCESSFUL or ACCEPTED).
func (s Status) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", shared.Validation("application", "ParseStatus", "unknown status %q", value)
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// Application links one student to one opportunity by id.
type Application struct {
	ID            string
	StudentID     string
	OpportunityID string
	AppliedAt     time.Time
	Status        Status

	// WithdrawalRequested is set when the student asked to withdraw or when
	// the application was withdrawn by accepting another offer.
	WithdrawalRequested bool

	LastUpdated time.Time
}

// New creates a PENDING application.
func New(id, studentID, opportunityID string, now time.Time) *Application {
	return &Application{
		ID:            id,
		StudentID:     studentID,
		OpportunityID: opportunityID,
		AppliedAt:     now,
		Status:        StatusPending,
		LastUpdated:   now,
	}
}

// Review records the company decision on a PENDING application.
func (a *Application) Review(approve bool, now time.Time) error {
	if a.Status != StatusPending {
		return shared.ErrApplicationNotPending
	}
	if approve {
		a.Status = StatusSuccessful
	} else {
		a.Status = StatusUnsuccessful
	}
	a.touch(now)
	return nil
}

// Accept turns a SUCCESSFUL offer into the student's placement.
func (a *Application) Accept(now time.Time) error {
	if a.Status != StatusSuccessful {
		return shared.ErrApplicationNotSucceeded
	}
	a.Status = StatusAccepted
	a.touch(now)
	return nil
}

// WithdrawForAcceptance withdraws a competing application after the student
// accepted another offer. Terminal applications are left alone.
func (a *Application) WithdrawForAcceptance(now time.Time) bool {
	if a.Status.IsTerminal() {
		return false
	}
	a.Status = StatusWithdrawn
	a.WithdrawalRequested = true
	a.touch(now)
	return true
}

// MarkWithdrawalRequested flags the application when the student files a request.
func (a *Application) MarkWithdrawalRequested(now time.Time) error {
	if a.Status == StatusWithdrawn {
		return shared.ErrAlreadyWithdrawn
	}
	a.WithdrawalRequested = true
	a.touch(now)
	return nil
}

// Withdraw applies an approved withdrawal and returns the status it left.
func (a *Application) Withdraw(now time.Time) Status {
	prev := a.Status
	a.Status = StatusWithdrawn
	a.WithdrawalRequested = true
	a.touch(now)
	return prev
}

func (a *Application) touch(now time.Time) {
	a.LastUpdated = now
}

// Clone returns a copy of the application.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (a *Application) String() string {
	return fmt.Sprintf("Application{ID: %s, Student: %s, Opportunity: %s, Status: %s}",
		a.ID, a.StudentID, a.OpportunityID, a.Status)
}

// ══════════════════════════════════════════════════════════════════════════════
// WITHDRAWAL REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// WithdrawalRequest asks staff to withdraw an application.
type WithdrawalRequest struct {
	ID            string
	ApplicationID string

	// StudentID is the requesting student.
	StudentID string

	Reason      string
	Status      shared.RequestStatus
	RequestedAt time.Time
	LastUpdated time.Time
}

// NewWithdrawalRequest creates a PENDING request.
func NewWithdrawalRequest(id string, app *Application, reason string, now time.Time) *WithdrawalRequest {
	return &WithdrawalRequest{
		ID:            id,
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		Reason:        strings.TrimSpace(reason),
		Status:        shared.RequestPending,
		RequestedAt:   now,
		LastUpdated:   now,
	}
}

// Decide records the staff decision.
func (r *WithdrawalRequest) Decide(approve bool, now time.Time) error {
	if !r.Status.IsPending() {
		return shared.ErrRequestNotPending
	}
	r.Status = shared.Decision(approve)
	r.LastUpdated = now
	return nil
}

// Clone returns a copy of the request.
func (r *WithdrawalRequest) Clone() *WithdrawalRequest {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
