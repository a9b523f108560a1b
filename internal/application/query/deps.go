// Package query contains read operations (CQRS - Queries).
// Handlers reload the repositories they read before answering; a failed
// reload is logged and the in-memory state is used.
package query

import (
	"context"
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/registration"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// Deps bundles the repositories the queries read.
type Deps struct {
	Users         user.Repository
	Opportunities opportunity.Repository
	Applications  application.Repository
	Withdrawals   application.WithdrawalRepository
	Registrations registration.Repository

	Clock  timeutil.Clock
	Logger *logger.Logger
}

// reloader is satisfied by every repository.
type reloader interface {
	Reload(ctx context.Context) error
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
	return l.With(logger.Component("query"), logger.Operation(op))
}

// reload refreshes repos, logging failures.
func (d Deps) reload(ctx context.Context, op string, repos ...reloader) {
	for _, r := range repos {
		if r == nil {
			continue
		}
		if err := r.Reload(ctx); err != nil {
			d.log(op).Error("reload failed, serving cached state", logger.Err(err))
		}
	}
}

func (d Deps) actor(ctx context.Context, op, id string) (user.User, error) {
	u, ok := d.Users.FindByID(ctx, id)
	if !ok {
		return nil, shared.NotFound("query", op, "user", id)
	}
	return u, nil
}

func (d Deps) staff(ctx context.Context, op, id string) (*user.CareerCenterStaff, error) {
	u, err := d.actor(ctx, op, id)
	if err != nil {
		return nil, err
	}
	s, ok := user.AsStaff(u)
	if !ok {
		return nil, shared.Forbidden("query", op, "only career center staff may do this")
	}
	return s, nil
}

// ownedBy reports whether rep owns o, counting orphaned opportunities of the
// rep's company.
func ownedBy(rep *user.CompanyRepresentative, o *opportunity.Opportunity) bool {
	return o.OwnedBy(rep.ID) || (!o.HasOwner() && rep.SameCompany(o.CompanyName))
}
