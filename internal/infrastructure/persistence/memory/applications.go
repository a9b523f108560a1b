package memory

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
)

var applicationCodec = codec[*application.Application]{
	header: []string{"id", "studentId", "opportunityId", "status", "appliedAt", "withdrawalRequested", "lastUpdated"},
	key:    func(a *application.Application) string { return a.ID },
	clone:  (*application.Application).Clone,
	encode: func(a *application.Application) []string {
		return []string{
			a.ID,
			a.StudentID,
			a.OpportunityID,
			a.Status.String(),
			records.FormatTimestamp(a.AppliedAt),
			records.FormatBool(a.WithdrawalRequested),
			records.FormatTimestamp(a.LastUpdated),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*application.Application, bool) {
		id := r.Get(0)
		if id == "" {
			return nil, false
		}
		status, err := application.ParseStatus(r.Get(3))
		if err != nil {
			status = application.StatusPending
		}
		a := &application.Application{
			ID:                  id,
			StudentID:           r.Get(1),
			OpportunityID:       r.Get(2),
			Status:              status,
			AppliedAt:           r.Timestamp(4, loc),
			WithdrawalRequested: r.Bool(5),
			LastUpdated:         r.Timestamp(6, loc),
		}
		if a.LastUpdated.IsZero() {
			a.LastUpdated = a.AppliedAt
		}
		return a, true
	},
}

// ApplicationRepository implements application.Repository.
type ApplicationRepository struct {
	c *collection[*application.Application]
}

var _ application.Repository = (*ApplicationRepository)(nil)

// NewApplicationRepository returns an empty repository.
func NewApplicationRepository(opts Options) *ApplicationRepository {
	return &ApplicationRepository{
		c: newCollection(records.Applications, applicationCodec, shared.NewIDGenerator(shared.PrefixApplication), opts),
	}
}

// Save stores a copy of a and writes the collection through.
func (r *ApplicationRepository) Save(ctx context.Context, a *application.Application) error {
	if a == nil {
		return shared.Validation("application", "Save", "application is required")
	}
	if err := blankID("application", "Save", a.ID); err != nil {
		return err
	}
	r.c.put(ctx, a)
	return nil
}

// FindByID returns a copy of the application.
func (r *ApplicationRepository) FindByID(_ context.Context, id string) (*application.Application, bool) {
	return r.c.get(id)
}

// FindAll returns every application ordered by id.
func (r *ApplicationRepository) FindAll(_ context.Context) []*application.Application {
	return r.c.all(nil)
}

// FindByStudent returns the student's applications in any status.
func (r *ApplicationRepository) FindByStudent(_ context.Context, studentID string) []*application.Application {
	key := user.NormalizeID(studentID)
	return r.c.all(func(a *application.Application) bool {
		return user.NormalizeID(a.StudentID) == key
	})
}

// FindByOpportunity returns the applications made to one opportunity.
func (r *ApplicationRepository) FindByOpportunity(_ context.Context, opportunityID string) []*application.Application {
	return r.c.all(func(a *application.Application) bool {
		return a.OpportunityID == opportunityID
	})
}

// CountPendingByStudent counts the student's PENDING applications.
func (r *ApplicationRepository) CountPendingByStudent(_ context.Context, studentID string) int {
	key := user.NormalizeID(studentID)
	return r.c.count(func(a *application.Application) bool {
		return a.Status == application.StatusPending && user.NormalizeID(a.StudentID) == key
	})
}

// NextID returns the next free application id.
func (r *ApplicationRepository) NextID() string {
	return r.c.next()
}

// Reload re-reads the applications table.
func (r *ApplicationRepository) Reload(ctx context.Context) error {
	return r.c.reload(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// WITHDRAWAL REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

var withdrawalCodec = codec[*application.WithdrawalRequest]{
	header: []string{"id", "applicationId", "studentId", "status", "requestedAt", "reason", "lastUpdated"},
	key:    func(w *application.WithdrawalRequest) string { return w.ID },
	clone:  (*application.WithdrawalRequest).Clone,
	encode: func(w *application.WithdrawalRequest) []string {
		return []string{
			w.ID,
			w.ApplicationID,
			w.StudentID,
			w.Status.String(),
			records.FormatTimestamp(w.RequestedAt),
			records.Clean(w.Reason),
			records.FormatTimestamp(w.LastUpdated),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*application.WithdrawalRequest, bool) {
		id := r.Get(0)
		if id == "" {
			return nil, false
		}
		status, err := shared.ParseRequestStatus(r.Get(3))
		if err != nil {
			status = shared.RequestPending
		}
		w := &application.WithdrawalRequest{
			ID:            id,
			ApplicationID: r.Get(1),
			StudentID:     r.Get(2),
			Status:        status,
			RequestedAt:   r.Timestamp(4, loc),
			Reason:        r.Get(5),
			LastUpdated:   r.Timestamp(6, loc),
		}
		if w.LastUpdated.IsZero() {
			w.LastUpdated = w.RequestedAt
		}
		return w, true
	},
}

// WithdrawalRepository implements application.WithdrawalRepository.
type WithdrawalRepository struct {
	c *collection[*application.WithdrawalRequest]
}

var _ application.WithdrawalRepository = (*WithdrawalRepository)(nil)

// NewWithdrawalRepository returns an empty repository.
func NewWithdrawalRepository(opts Options) *WithdrawalRepository {
	return &WithdrawalRepository{
		c: newCollection(records.Withdrawals, withdrawalCodec, shared.NewIDGenerator(shared.PrefixWithdrawal), opts),
	}
}

// Save stores a copy of w.
func (r *WithdrawalRepository) Save(ctx context.Context, w *application.WithdrawalRequest) error {
	if w == nil {
		return shared.Validation("application", "SaveWithdrawal", "withdrawal request is required")
	}
	if err := blankID("application", "SaveWithdrawal", w.ID); err != nil {
		return err
	}
	r.c.put(ctx, w)
	return nil
}

// FindByID returns a copy of the request.
func (r *WithdrawalRepository) FindByID(_ context.Context, id string) (*application.WithdrawalRequest, bool) {
	return r.c.get(id)
}

// FindAll returns every request ordered by id.
func (r *WithdrawalRepository) FindAll(_ context.Context) []*application.WithdrawalRequest {
	return r.c.all(nil)
}

// FindByStudent returns the requests the student filed.
func (r *WithdrawalRepository) FindByStudent(_ context.Context, studentID string) []*application.WithdrawalRequest {
	key := user.NormalizeID(studentID)
	return r.c.all(func(w *application.WithdrawalRequest) bool {
		return user.NormalizeID(w.StudentID) == key
	})
}

// FindByApplication returns every request for one application.
func (r *WithdrawalRepository) FindByApplication(_ context.Context, applicationID string) []*application.WithdrawalRequest {
	return r.c.all(func(w *application.WithdrawalRequest) bool {
		return w.ApplicationID == applicationID
	})
}

// FindPending returns the requests still awaiting staff.
func (r *WithdrawalRepository) FindPending(_ context.Context) []*application.WithdrawalRequest {
	return r.c.all(func(w *application.WithdrawalRequest) bool {
		return w.Status.IsPending()
	})
}

// NextID returns the next free request id.
func (r *WithdrawalRepository) NextID() string {
	return r.c.next()
}

// Reload re-reads the withdrawals table.
func (r *WithdrawalRepository) Reload(ctx context.Context) error {
	return r.c.reload(ctx)
}
