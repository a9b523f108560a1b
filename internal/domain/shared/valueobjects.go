package shared

import (
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Request Status
// ═══════════════════════════════════════════════════════════════════════════

// RequestStatus is the decision state shared by registration requests,
// withdrawal requests and company representative approval.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// IsValid checks if the status is one of the known values.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// IsPending reports whether the request still awaits a decision.
func (s RequestStatus) IsPending() bool {
	return s == RequestPending
}

// String returns the string representation.
func (s RequestStatus) String() string {
	return string(s)
}

// ParseRequestStatus parses a status name case-insensitively.
func ParseRequestStatus(value string) (RequestStatus, error) {
	s := RequestStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", Validation("shared", "ParseRequestStatus", "unknown request status %q", value)
	}
	return s, nil
}

// Decision maps an approve flag to the resulting status.
func Decision(approve bool) RequestStatus {
	if approve {
		return RequestApproved
	}
	return RequestRejected
}

// ═══════════════════════════════════════════════════════════════════════════
// Text helpers
// ═══════════════════════════════════════════════════════════════════════════

// EqualFold compares two optional names ignoring case and surrounding space.
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IsBlank reports whether s is empty after trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
