package memory

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/registration"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
)

var registrationCodec = codec[*registration.Request]{
	header: []string{"id", "repId", "status", "requestedAt", "lastUpdated"},
	key:    func(r *registration.Request) string { return r.ID },
	clone:  (*registration.Request).Clone,
	encode: func(r *registration.Request) []string {
		return []string{
			r.ID,
			r.RepID,
			r.Status.String(),
			records.FormatTimestamp(r.RequestedAt),
			records.FormatTimestamp(r.LastUpdated),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*registration.Request, bool) {
		id := r.Get(0)
		if id == "" {
			return nil, false
		}
		status, err := shared.ParseRequestStatus(r.Get(2))
		if err != nil {
			status = shared.RequestPending
		}
		req := &registration.Request{
			ID:          id,
			RepID:       user.NormalizeID(r.Get(1)),
			Status:      status,
			RequestedAt: r.Timestamp(3, loc),
			LastUpdated: r.Timestamp(4, loc),
		}
		if req.LastUpdated.IsZero() {
			req.LastUpdated = req.RequestedAt
		}
		return req, true
	},
}

// RegistrationRepository implements registration.Repository.
type RegistrationRepository struct {
	c *collection[*registration.Request]
}

var _ registration.Repository = (*RegistrationRepository)(nil)

// NewRegistrationRepository returns an empty repository.
func NewRegistrationRepository(opts Options) *RegistrationRepository {
	return &RegistrationRepository{
		c: newCollection(records.Registrations, registrationCodec, shared.NewIDGenerator(shared.PrefixRegistration), opts),
	}
}

// Save stores a copy of req and writes the collection through.
func (r *RegistrationRepository) Save(ctx context.Context, req *registration.Request) error {
	if req == nil {
		return shared.Validation("registration", "Save", "request is required")
	}
	if err := blankID("registration", "Save", req.ID); err != nil {
		return err
	}
	r.c.put(ctx, req)
	return nil
}

// FindByID returns a copy of the request.
func (r *RegistrationRepository) FindByID(_ context.Context, id string) (*registration.Request, bool) {
	return r.c.get(id)
}

// FindAll returns every request ordered by id.
func (r *RegistrationRepository) FindAll(_ context.Context) []*registration.Request {
	return r.c.all(nil)
}

// FindByRep returns the requests filed for one representative.
func (r *RegistrationRepository) FindByRep(_ context.Context, repID string) []*registration.Request {
	key := user.NormalizeID(repID)
	return r.c.all(func(req *registration.Request) bool {
		return user.NormalizeID(req.RepID) == key
	})
}

// FindPending returns the requests staff have not processed.
func (r *RegistrationRepository) FindPending(_ context.Context) []*registration.Request {
	return r.c.all(func(req *registration.Request) bool {
		return req.Status.IsPending()
	})
}

// NextID returns the next free request id.
func (r *RegistrationRepository) NextID() string {
	return r.c.next()
}

// Reload re-reads the registrations table.
func (r *RegistrationRepository) Reload(ctx context.Context) error {
	return r.c.reload(ctx)
}
