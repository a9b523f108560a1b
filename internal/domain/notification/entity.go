// Package notification derives per-user notifications from entity timestamps.
// Nothing is stored: a notification exists when something the user cares about
// changed after the user's last check.
package notification

import (
	"time"

	"github.com/ipms/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type identifies a notification category. At most one notification of each
// type is produced per derivation.
type Type string

const (
	// Student

	// TypeNewOpportunity: an opportunity the student can apply to was updated.
	TypeNewOpportunity Type = "new-opportunity"
	// TypeApplicationUpdate: one of the student's applications changed.
	TypeApplicationUpdate Type = "application-update"
	// TypeWithdrawalUpdate: staff decided one of the student's withdrawal requests.
	TypeWithdrawalUpdate Type = "withdrawal-update"

	// Staff

	// TypeOpportunitySubmission: a PENDING opportunity awaits review.
	TypeOpportunitySubmission Type = "opportunity-submission"
	// TypeRegistrationRequest: a rep registration awaits review.
	TypeRegistrationRequest Type = "registration-request"
	// TypeWithdrawalRequest: a withdrawal request awaits review.
	TypeWithdrawalRequest Type = "withdrawal-request"

	// Company representative

	// TypeNewApplication: a student applied to an owned opportunity.
	TypeNewApplication Type = "new-application"
	// TypeOpportunityStatus: staff approved, rejected, or filled an owned opportunity.
	TypeOpportunityStatus Type = "opportunity-status"
	// TypeApplicationWithdrawal: a student asked to withdraw from an owned opportunity.
	TypeApplicationWithdrawal Type = "application-withdrawal"
)

// IsValid checks if the type is known.
func (t Type) IsValid() bool {
	return t.Audience() != ""
}

// Audience returns the role the type is addressed to.
func (t Type) Audience() user.Role {
	switch t {
	case TypeNewOpportunity, TypeApplicationUpdate, TypeWithdrawalUpdate:
		return user.RoleStudent
	case TypeOpportunitySubmission, TypeRegistrationRequest, TypeWithdrawalRequest:
		return user.RoleStaff
	case TypeNewApplication, TypeOpportunityStatus, TypeApplicationWithdrawal:
		return user.RoleRep
	default:
		return ""
	}
}

// Message is the text shown to the user.
func (t Type) Message() string {
	switch t {
	case TypeNewOpportunity:
		return "New internship opportunity available"
	case TypeApplicationUpdate:
		return "Internship application update"
	case TypeWithdrawalUpdate:
		return "Internship withdrawal update"
	case TypeOpportunitySubmission:
		return "New internship opportunity submissions"
	case TypeRegistrationRequest:
		return "New registration requests"
	case TypeWithdrawalRequest:
		return "Pending withdrawal requests"
	case TypeNewApplication:
		return "New applications to review"
	case TypeOpportunityStatus:
		return "Opportunity status update"
	case TypeApplicationWithdrawal:
		return "Application withdrawal requested"
	default:
		return string(t)
	}
}

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// Notification is one derived entry.
type Notification struct {
	Type Type

	// SubjectID is the id of the first entity that triggered the entry.
	SubjectID string

	// At is the triggering timestamp.
	At time.Time
}

// Message is the text shown to the user.
func (n Notification) Message() string {
	return n.Type.Message()
}

// Types returns the types of list in order.
func Types(list []Notification) []Type {
	out := make([]Type, 0, len(list))
	for _, n := range list {
		out = append(out, n.Type)
	}
	return out
}
