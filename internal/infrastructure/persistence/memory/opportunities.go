package memory

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
)

var opportunityCodec = codec[*opportunity.Opportunity]{
	header: []string{
		"id", "title", "description", "level", "preferredMajor", "openDate", "closeDate",
		"status", "companyName", "repEmail", "slots", "visible", "totalSlots", "lastUpdated",
	},
	key:   func(o *opportunity.Opportunity) string { return o.ID },
	clone: (*opportunity.Opportunity).Clone,
	encode: func(o *opportunity.Opportunity) []string {
		return []string{
			o.ID,
			records.Clean(o.Title),
			records.Clean(o.Description),
			o.Level.String(),
			records.Clean(o.PreferredMajor),
			records.FormatDate(o.OpenDate),
			records.FormatDate(o.CloseDate),
			o.Status.String(),
			records.Clean(o.CompanyName),
			o.OwnerRepID,
			records.FormatInt(o.Slots),
			records.FormatBool(o.Visible),
			records.FormatInt(o.TotalSlots),
			records.FormatTimestamp(o.LastUpdated),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*opportunity.Opportunity, bool) {
		id := r.Get(0)
		if id == "" {
			return nil, false
		}
		level, err := opportunity.ParseLevel(r.Get(3))
		if err != nil {
			level = opportunity.LevelBasic
		}
		status, err := opportunity.ParseStatus(r.Get(7))
		if err != nil {
			status = opportunity.StatusPending
		}
		slots := r.Int(10, 0)
		if slots < 0 {
			slots = 0
		}
		o := &opportunity.Opportunity{
			ID:             id,
			Title:          r.Get(1),
			Description:    r.Get(2),
			Level:          level,
			PreferredMajor: r.Get(4),
			OpenDate:       r.Date(5, loc),
			CloseDate:      r.Date(6, loc),
			Status:         status,
			CompanyName:    r.Get(8),
			OwnerRepID:     user.NormalizeID(r.Get(9)),
			Slots:          slots,
			Visible:        r.Bool(11),
			TotalSlots:     r.Int(12, slots),
			LastUpdated:    r.Timestamp(13, loc),
		}
		if o.TotalSlots < o.Slots {
			o.TotalSlots = o.Slots
		}
		return o, true
	},
}

// OpportunityRepository implements opportunity.Repository.
type OpportunityRepository struct {
	c *collection[*opportunity.Opportunity]
}

var _ opportunity.Repository = (*OpportunityRepository)(nil)

// NewOpportunityRepository returns an empty repository. Call Reload to read
// the stored collection.
func NewOpportunityRepository(opts Options) *OpportunityRepository {
	return &OpportunityRepository{
		c: newCollection(records.Opportunities, opportunityCodec, shared.NewIDGenerator(shared.PrefixOpportunity), opts),
	}
}

// Save stores a copy of o and writes the collection through to the record
// store. A failed write is logged, not returned.
func (r *OpportunityRepository) Save(ctx context.Context, o *opportunity.Opportunity) error {
	if o == nil {
		return shared.Validation("opportunity", "Save", "opportunity is required")
	}
	if err := blankID("opportunity", "Save", o.ID); err != nil {
		return err
	}
	r.c.put(ctx, o)
	return nil
}

// FindByID returns a copy; changes are kept only after Save.
func (r *OpportunityRepository) FindByID(_ context.Context, id string) (*opportunity.Opportunity, bool) {
	return r.c.get(id)
}

// FindAll returns every opportunity ordered by id.
func (r *OpportunityRepository) FindAll(_ context.Context) []*opportunity.Opportunity {
	return r.c.all(nil)
}

// FindByCompany matches the company name case-insensitively.
func (r *OpportunityRepository) FindByCompany(_ context.Context, company string) []*opportunity.Opportunity {
	return r.c.all(func(o *opportunity.Opportunity) bool {
		return shared.EqualFold(o.CompanyName, company)
	})
}

// FindByRepresentative returns the opportunities owned by repID.
func (r *OpportunityRepository) FindByRepresentative(_ context.Context, repID string) []*opportunity.Opportunity {
	return r.c.all(func(o *opportunity.Opportunity) bool {
		return o.OwnedBy(repID)
	})
}

// FindByStatus returns the opportunities in status s.
func (r *OpportunityRepository) FindByStatus(_ context.Context, s opportunity.Status) []*opportunity.Opportunity {
	return r.c.all(func(o *opportunity.Opportunity) bool {
		return o.Status == s
	})
}

// Delete removes the opportunity. Deleting an unknown id is a no-op.
func (r *OpportunityRepository) Delete(ctx context.Context, id string) error {
	r.c.remove(ctx, id)
	return nil
}

// NextID returns the next free O-prefixed id.
func (r *OpportunityRepository) NextID() string {
	return r.c.next()
}

// Reload replaces the cached opportunities with the stored ones.
func (r *OpportunityRepository) Reload(ctx context.Context) error {
	return r.c.reload(ctx)
}
