package opportunity

import "context"

// Repository keeps opportunities keyed by id.
type Repository interface {
	// Save inserts or replaces o. It fails only for a nil opportunity or a
	// blank id; storage failures are logged and absorbed.
	Save(ctx context.Context, o *Opportunity) error

	FindByID(ctx context.Context, id string) (*Opportunity, bool)

	// FindAll returns every opportunity ordered by id.
	FindAll(ctx context.Context) []*Opportunity

	// FindByCompany matches the company name case-insensitively.
	FindByCompany(ctx context.Context, company string) []*Opportunity

	// FindByRepresentative returns opportunities whose owner is repID.
	FindByRepresentative(ctx context.Context, repID string) []*Opportunity

	// FindByStatus returns opportunities in status s.
	FindByStatus(ctx context.Context, s Status) []*Opportunity

	// Delete removes the opportunity. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error

	// NextID issues a fresh O-prefixed id.
	NextID() string

	// Reload replaces in-memory state with the stored state.
	Reload(ctx context.Context) error
}
