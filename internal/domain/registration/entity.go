// Package registration models a company representative's request to be
// admitted by career center staff.
package registration

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
)

// Request is a rep's self-registration awaiting a staff decision.
type Request struct {
	ID          string
	RepID       string
	Status      shared.RequestStatus
	RequestedAt time.Time
	LastUpdated time.Time
}

// NewRequest creates a PENDING request for repID.
func NewRequest(id, repID string, now time.Time) *Request {
	return &Request{
		ID:          id,
		RepID:       repID,
		Status:      shared.RequestPending,
		RequestedAt: now,
		LastUpdated: now,
	}
}

// Decide records the staff decision.
func (r *Request) Decide(approve bool, now time.Time) error {
	if !r.Status.IsPending() {
		return shared.ErrRequestNotPending
	}
	r.Status = shared.Decision(approve)
	r.LastUpdated = now
	return nil
}

// Clone returns a copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Repository keeps registration requests keyed by id.
type Repository interface {
	Save(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id string) (*Request, bool)
	FindAll(ctx context.Context) []*Request

	// FindByRep returns the requests filed for repID, oldest first.
	FindByRep(ctx context.Context, repID string) []*Request

	// FindPending returns requests awaiting a staff decision.
	FindPending(ctx context.Context) []*Request

	// NextID issues a fresh REG-prefixed id.
	NextID() string

	Reload(ctx context.Context) error
}
