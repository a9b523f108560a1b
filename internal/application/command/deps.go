// Package command contains write operations (CQRS - Commands).
// Every handler validates its command, resolves the acting user, mutates
// entities under their invariants, and writes them back through the
// repositories.
package command

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/registration"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/password"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// Policy holds the tunable business rules.
type Policy struct {
	// MaxPendingApplications caps a student's concurrent PENDING applications.
	MaxPendingApplications int

	// MaxSlots caps the slots a rep may offer per opportunity.
	MaxSlots int

	// DefaultPassword is assigned to provisioned students and staff and must
	// be changed on first login.
	DefaultPassword string
}

// DefaultPolicy returns the standard rules.
func DefaultPolicy() Policy {
	return Policy{
		MaxPendingApplications: 3,
		MaxSlots:               10,
		DefaultPassword:        "password",
	}
}

// Deps bundles the collaborators shared by the handlers.
type Deps struct {
	Users         user.Repository
	Opportunities opportunity.Repository
	Applications  application.Repository
	Withdrawals   application.WithdrawalRepository
	Registrations registration.Repository

	Clock  timeutil.Clock
	Hasher password.Hasher
	Policy Policy
	Logger *logger.Logger
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return timeutil.NewSystemClock(nil).Now()
	}
	return d.Clock.Now()
}

func (d Deps) today() time.Time {
	return timeutil.StartOfDay(d.now())
}

func (d Deps) log(op string) *logger.Logger {
	l := d.Logger
	if l == nil {
		l = logger.Discard()
	}
	return l.With(logger.Component("command"), logger.Operation(op))
}

func (d Deps) policy() Policy {
	p := d.Policy
	def := DefaultPolicy()
	if p.MaxPendingApplications <= 0 {
		p.MaxPendingApplications = def.MaxPendingApplications
	}
	if p.MaxSlots <= 0 {
		p.MaxSlots = def.MaxSlots
	}
	if p.DefaultPassword == "" {
		p.DefaultPassword = def.DefaultPassword
	}
	return p
}

// ─── Actor resolution ────────────────────────────────────────────────────────

func (d Deps) student(ctx context.Context, domain, op, id string) (*user.Student, error) {
	u, ok := d.Users.FindByID(ctx, id)
	if !ok {
		return nil, shared.NotFound(domain, op, "user", id)
	}
	s, ok := user.AsStudent(u)
	if !ok {
		return nil, shared.Forbidden(domain, op, "only students may do this")
	}
	return s, nil
}

func (d Deps) staff(ctx context.Context, domain, op, id string) (*user.CareerCenterStaff, error) {
	u, ok := d.Users.FindByID(ctx, id)
	if !ok {
		return nil, shared.NotFound(domain, op, "user", id)
	}
	s, ok := user.AsStaff(u)
	if !ok {
		return nil, shared.Forbidden(domain, op, "only career center staff may do this")
	}
	return s, nil
}

// approvedRep resolves a rep and checks the registration was approved.
func (d Deps) approvedRep(ctx context.Context, domain, op, id string) (*user.CompanyRepresentative, error) {
	u, ok := d.Users.FindByID(ctx, id)
	if !ok {
		return nil, shared.NotFound(domain, op, "user", id)
	}
	rep, ok := user.AsRep(u)
	if !ok {
		return nil, shared.Forbidden(domain, op, "only company representatives may do this")
	}
	if !rep.IsApproved() {
		return nil, shared.ErrRepNotApproved
	}
	return rep, nil
}

func (d Deps) opportunity(ctx context.Context, domain, op, id string) (*opportunity.Opportunity, error) {
	o, ok := d.Opportunities.FindByID(ctx, id)
	if !ok {
		return nil, shared.NotFound(domain, op, "opportunity", id)
	}
	return o, nil
}

func (d Deps) application(ctx context.Context, domain, op, id string) (*application.Application, error) {
	a, ok := d.Applications.FindByID(ctx, id)
	if !ok {
		return nil, shared.NotFound(domain, op, "application", id)
	}
	return a, nil
}

// ownedOpportunity loads an opportunity and checks that rep owns it.
func (d Deps) ownedOpportunity(ctx context.Context, domain, op string, rep *user.CompanyRepresentative, id string) (*opportunity.Opportunity, error) {
	o, err := d.opportunity(ctx, domain, op, id)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(rep.ID) {
		return nil, shared.ErrNotOpportunityOwner
	}
	return o, nil
}

// ownerResolved reports whether o names an existing rep as owner.
func (d Deps) ownerResolved(ctx context.Context, o *opportunity.Opportunity) bool {
	if !o.HasOwner() {
		return false
	}
	_, ok := d.Users.FindRep(ctx, o.OwnerRepID)
	return ok
}
