package notification

import (
	"time"

	"github.com/ipms/placement-hub/internal/domain/application"
	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/registration"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
)

// Snapshot is the state notifications are derived from.
type Snapshot struct {
	Opportunities []*opportunity.Opportunity
	Applications  []*application.Application
	Withdrawals   []*application.WithdrawalRequest
	Registrations []*registration.Request
}

// Derive returns the notifications for u since its last check, in category
// order, at most one per type. today decides which opportunities are open.
// Derive has no side effects; the caller moves the marker afterwards.
func Derive(u user.User, today time.Time, snap Snapshot) []Notification {
	if u == nil {
		return nil
	}
	since := u.LastCheck()

	switch v := u.(type) {
	case *user.Student:
		return forStudent(v, since, today, snap)
	case *user.CareerCenterStaff:
		return forStaff(since, snap)
	case *user.CompanyRepresentative:
		return forRep(v, since, snap)
	default:
		return nil
	}
}

func forStudent(s *user.Student, since, today time.Time, snap Snapshot) []Notification {
	var out []Notification

	for _, o := range snap.Opportunities {
		if o.IsPublished() && o.LastUpdated.After(since) && o.IsOpenOn(today) && o.EligibleFor(s) {
			out = append(out, Notification{Type: TypeNewOpportunity, SubjectID: o.ID, At: o.LastUpdated})
			break
		}
	}

	for _, a := range snap.Applications {
		if sameID(a.StudentID, s.ID) && a.LastUpdated.After(since) {
			out = append(out, Notification{Type: TypeApplicationUpdate, SubjectID: a.ID, At: a.LastUpdated})
			break
		}
	}

	for _, r := range snap.Withdrawals {
		if sameID(r.StudentID, s.ID) && !r.Status.IsPending() && r.LastUpdated.After(since) {
			out = append(out, Notification{Type: TypeWithdrawalUpdate, SubjectID: r.ID, At: r.LastUpdated})
			break
		}
	}

	return out
}

func forStaff(since time.Time, snap Snapshot) []Notification {
	var out []Notification

	for _, o := range snap.Opportunities {
		if o.Status == opportunity.StatusPending && o.LastUpdated.After(since) {
			out = append(out, Notification{Type: TypeOpportunitySubmission, SubjectID: o.ID, At: o.LastUpdated})
			break
		}
	}

	for _, r := range snap.Registrations {
		if r.Status.IsPending() && r.RequestedAt.After(since) {
			out = append(out, Notification{Type: TypeRegistrationRequest, SubjectID: r.ID, At: r.RequestedAt})
			break
		}
	}

	for _, r := range snap.Withdrawals {
		if r.Status.IsPending() && r.RequestedAt.After(since) {
			out = append(out, Notification{Type: TypeWithdrawalRequest, SubjectID: r.ID, At: r.RequestedAt})
			break
		}
	}

	return out
}

func forRep(rep *user.CompanyRepresentative, since time.Time, snap Snapshot) []Notification {
	owned := make(map[string]*opportunity.Opportunity)
	for _, o := range snap.Opportunities {
		if o.OwnedBy(rep.ID) || (!o.HasOwner() && rep.SameCompany(o.CompanyName)) {
			owned[o.ID] = o
		}
	}
	if len(owned) == 0 {
		return nil
	}

	var out []Notification

	appOpportunity := make(map[string]string, len(snap.Applications))
	for _, a := range snap.Applications {
		appOpportunity[a.ID] = a.OpportunityID
	}

	for _, a := range snap.Applications {
		if _, ok := owned[a.OpportunityID]; ok && a.AppliedAt.After(since) {
			out = append(out, Notification{Type: TypeNewApplication, SubjectID: a.ID, At: a.AppliedAt})
			break
		}
	}

	for _, o := range snap.Opportunities {
		if _, ok := owned[o.ID]; ok && o.Status != opportunity.StatusPending && o.LastUpdated.After(since) {
			out = append(out, Notification{Type: TypeOpportunityStatus, SubjectID: o.ID, At: o.LastUpdated})
			break
		}
	}

	for _, r := range snap.Withdrawals {
		oppID, ok := appOpportunity[r.ApplicationID]
		if !ok {
			continue
		}
		if _, mine := owned[oppID]; mine && r.RequestedAt.After(since) {
			out = append(out, Notification{Type: TypeApplicationWithdrawal, SubjectID: r.ID, At: r.RequestedAt})
			break
		}
	}

	return out
}

func sameID(a, b string) bool {
	return shared.EqualFold(a, b)
}
