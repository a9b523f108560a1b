package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
)

// ─── Codecs ──────────────────────────────────────────────────────────────────

var studentCodec = codec[*user.Student]{
	header: []string{"id", "name", "major", "year", "passwordDigest", "visible", "acceptedPlacement", "lastNotificationCheck"},
	key:    func(s *user.Student) string { return user.NormalizeID(s.ID) },
	clone:  (*user.Student).Clone,
	encode: func(s *user.Student) []string {
		return []string{
			s.ID,
			records.Clean(s.DisplayName),
			records.Clean(s.Major),
			records.FormatInt(s.YearOfStudy),
			s.PasswordDigest,
			records.FormatBool(s.Visible),
			s.AcceptedPlacement,
			records.FormatTimestamp(s.LastNotificationCheck),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*user.Student, bool) {
		id := strings.ToUpper(r.Get(0))
		if id == "" {
			return nil, false
		}
		return &user.Student{
			Account: user.Account{
				ID:                    id,
				DisplayName:           r.Get(1),
				PasswordDigest:        r.Get(4),
				LastNotificationCheck: r.Timestamp(7, loc),
			},
			Major:             r.Get(2),
			YearOfStudy:       r.Int(3, 1),
			Visible:           r.Bool(5),
			AcceptedPlacement: r.Get(6),
		}, true
	},
}

var staffCodec = codec[*user.CareerCenterStaff]{
	header: []string{"id", "name", "department", "passwordDigest", "lastNotificationCheck"},
	key:    func(s *user.CareerCenterStaff) string { return user.NormalizeID(s.ID) },
	clone:  (*user.CareerCenterStaff).Clone,
	encode: func(s *user.CareerCenterStaff) []string {
		return []string{
			s.ID,
			records.Clean(s.DisplayName),
			records.Clean(s.Department),
			s.PasswordDigest,
			records.FormatTimestamp(s.LastNotificationCheck),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*user.CareerCenterStaff, bool) {
		id := user.NormalizeID(r.Get(0))
		if id == "" {
			return nil, false
		}
		return &user.CareerCenterStaff{
			Account: user.Account{
				ID:                    id,
				DisplayName:           r.Get(1),
				PasswordDigest:        r.Get(3),
				LastNotificationCheck: r.Timestamp(4, loc),
			},
			Department: r.Get(2),
		}, true
	},
}

var repCodec = codec[*user.CompanyRepresentative]{
	header: []string{"id", "name", "companyName", "department", "position", "status", "passwordDigest", "lastNotificationCheck"},
	key:    func(r *user.CompanyRepresentative) string { return user.NormalizeID(r.ID) },
	clone:  (*user.CompanyRepresentative).Clone,
	encode: func(r *user.CompanyRepresentative) []string {
		return []string{
			r.ID,
			records.Clean(r.DisplayName),
			records.Clean(r.CompanyName),
			records.Clean(r.Department),
			records.Clean(r.Position),
			r.Status.String(),
			r.PasswordDigest,
			records.FormatTimestamp(r.LastNotificationCheck),
		}
	},
	decode: func(r records.Record, loc *time.Location) (*user.CompanyRepresentative, bool) {
		id := user.NormalizeID(r.Get(0))
		if id == "" {
			return nil, false
		}
		status, err := shared.ParseRequestStatus(r.Get(5))
		if err != nil {
			status = shared.RequestPending
		}
		return &user.CompanyRepresentative{
			Account: user.Account{
				ID:                    id,
				DisplayName:           r.Get(1),
				PasswordDigest:        r.Get(6),
				LastNotificationCheck: r.Timestamp(7, loc),
			},
			CompanyName: r.Get(2),
			Department:  r.Get(3),
			Position:    r.Get(4),
			Status:      status,
		}, true
	},
}

// ─── Repository ──────────────────────────────────────────────────────────────

// UserRepository implements user.Repository over three collections, one per
// role. Ids are unique across roles.
type UserRepository struct {
	students *collection[*user.Student]
	staff    *collection[*user.CareerCenterStaff]
	reps     *collection[*user.CompanyRepresentative]
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository returns an empty repository.
func NewUserRepository(opts Options) *UserRepository {
	return &UserRepository{
		students: newCollection(records.Students, studentCodec, nil, opts),
		staff:    newCollection(records.Staff, staffCodec, nil, opts),
		reps:     newCollection(records.Reps, repCodec, nil, opts),
	}
}

// Save routes u to the collection of its account type.
func (r *UserRepository) Save(ctx context.Context, u user.User) error {
	if u == nil {
		return shared.Validation("user", "Save", "user is required")
	}
	if err := blankID("user", "Save", u.UserID()); err != nil {
		return err
	}

	switch v := u.(type) {
	case *user.Student:
		r.students.put(ctx, v)
	case *user.CareerCenterStaff:
		r.staff.put(ctx, v)
	case *user.CompanyRepresentative:
		r.reps.put(ctx, v)
	default:
		return shared.Validation("user", "Save", "unsupported account type %T", u)
	}
	return nil
}

// FindByID looks the id up among students, then staff, then reps.
func (r *UserRepository) FindByID(ctx context.Context, id string) (user.User, bool) {
	if s, ok := r.FindStudent(ctx, id); ok {
		return s, true
	}
	if s, ok := r.FindStaff(ctx, id); ok {
		return s, true
	}
	if rep, ok := r.FindRep(ctx, id); ok {
		return rep, true
	}
	return nil, false
}

// FindStudent matches ids case-insensitively, as do FindRep and FindStaff.
func (r *UserRepository) FindStudent(_ context.Context, id string) (*user.Student, bool) {
	return r.students.get(user.NormalizeID(id))
}

// FindRep returns a copy of the representative.
func (r *UserRepository) FindRep(_ context.Context, id string) (*user.CompanyRepresentative, bool) {
	return r.reps.get(user.NormalizeID(id))
}

// FindStaff returns a copy of the staff account.
func (r *UserRepository) FindStaff(_ context.Context, id string) (*user.CareerCenterStaff, bool) {
	return r.staff.get(user.NormalizeID(id))
}

// FindAll returns students, staff and reps, each group ordered by id.
func (r *UserRepository) FindAll(ctx context.Context) []user.User {
	var out []user.User
	for _, s := range r.Students(ctx) {
		out = append(out, s)
	}
	for _, s := range r.Staff(ctx) {
		out = append(out, s)
	}
	for _, rep := range r.Reps(ctx) {
		out = append(out, rep)
	}
	return out
}

// Students returns every student.
func (r *UserRepository) Students(_ context.Context) []*user.Student {
	return r.students.all(nil)
}

// Reps returns every representative, approved or not.
func (r *UserRepository) Reps(_ context.Context) []*user.CompanyRepresentative {
	return r.reps.all(nil)
}

// Staff returns every staff account.
func (r *UserRepository) Staff(_ context.Context) []*user.CareerCenterStaff {
	return r.staff.all(nil)
}

// FindRepsByCompany matches the company name case-insensitively.
func (r *UserRepository) FindRepsByCompany(_ context.Context, company string) []*user.CompanyRepresentative {
	return r.reps.all(func(rep *user.CompanyRepresentative) bool {
		return rep.SameCompany(company)
	})
}

// Reload reloads all three collections. Every collection is attempted; the
// errors are joined.
func (r *UserRepository) Reload(ctx context.Context) error {
	return errors.Join(
		r.students.reload(ctx),
		r.staff.reload(ctx),
		r.reps.reload(ctx),
	)
}
