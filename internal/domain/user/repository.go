package user

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository keeps all accounts keyed by id. Ids are matched case-insensitively.
type Repository interface {
	// Save inserts or replaces u. It fails only for a nil user or a blank id;
	// storage failures are logged and absorbed.
	Save(ctx context.Context, u User) error

	// FindByID returns the account of any role.
	FindByID(ctx context.Context, id string) (User, bool)

	FindStudent(ctx context.Context, id string) (*Student, bool)
	FindRep(ctx context.Context, id string) (*CompanyRepresentative, bool)
	FindStaff(ctx context.Context, id string) (*CareerCenterStaff, bool)

	// FindAll returns every account ordered by id.
	FindAll(ctx context.Context) []User

	Students(ctx context.Context) []*Student
	Reps(ctx context.Context) []*CompanyRepresentative
	Staff(ctx context.Context) []*CareerCenterStaff

	// FindRepsByCompany matches the company name case-insensitively.
	FindRepsByCompany(ctx context.Context, company string) []*CompanyRepresentative

	// Reload replaces in-memory state with the stored state.
	Reload(ctx context.Context) error
}
