// Package opportunity models internship opportunities: their lifecycle from
// draft to filled, slot accounting, and the eligibility and filter rules that
// decide which students see them.
package opportunity

import (
	"fmt"
	"strings"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Level is the difficulty of an internship.
type Level string

const (
	LevelBasic        Level = "BASIC"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvanced     Level = "ADVANCED"
)

// IsValid checks if the level is known.
func (l Level) IsValid() bool {
	return l.Rank() > 0
}

// Rank orders levels BASIC < INTERMEDIATE < ADVANCED. Unknown levels rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelBasic:
		return 1
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	default:
		return 0
	}
}

// String returns the string representation.
func (l Level) String() string {
	return string(l)
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(value string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(value)))
	if !l.IsValid() {
		return "", shared.Validation("opportunity", "ParseLevel", "unknown level %q (BASIC, INTERMEDIATE, ADVANCED)", value)
	}
	return l, nil
}

// Status is the publication state of an opportunity.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusFilled   Status = "FILLED"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFilled:
		return true
	}
	return false
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", shared.Validation("opportunity", "ParseStatus", "unknown status %q (PENDING, APPROVED, REJECTED, FILLED)", value)
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Opportunity is an internship offered by one company through one rep.
type Opportunity struct {
	ID          string
	Title       string
	Description string
	Level       Level

	// PreferredMajor is optional.
	PreferredMajor string

	// OpenDate and CloseDate are civil dates (midnight, campus timezone).
	OpenDate  time.Time
	CloseDate time.Time

	Status Status

	// CompanyName is copied from the owning rep at creation.
	CompanyName string

	// OwnerRepID is the id of the owning representative. It may be empty
	// or dangling for records imported without an owner.
	OwnerRepID string

	// Slots is the remaining acceptance capacity.
	Slots int

	// TotalSlots is the capacity the rep offered.
	TotalSlots int

	// Visible is the rep-controlled switch that, with APPROVED, exposes the
	// opportunity to students.
	Visible bool

	LastUpdated time.Time
}

// DraftParams holds what a rep supplies when drafting.
type DraftParams struct {
	ID             string
	Title          string `validate:"notblank" label:"title"`
	Description    string
	Level          Level `validate:"required" label:"level"`
	PreferredMajor string
	CloseDate      time.Time
	Slots          int `validate:"gte=0" label:"slots"`
}

// NewDraft creates a PENDING, hidden opportunity owned by rep that opens today.
func NewDraft(p DraftParams, rep *user.CompanyRepresentative, today, now time.Time) (*Opportunity, error) {
	if rep == nil {
		return nil, shared.Validation("opportunity", "NewDraft", "representative is required")
	}
	if p.Slots < 0 {
		return nil, shared.ErrNegativeSlots
	}
	if shared.IsBlank(p.Title) {
		return nil, shared.ErrBlankTitle
	}
	if err := shared.ValidateStruct("opportunity", "NewDraft", p); err != nil {
		return nil, err
	}
	if !p.Level.IsValid() {
		return nil, shared.Validation("opportunity", "NewDraft", "unknown level %q", p.Level)
	}

	open := timeutil.StartOfDay(today)
	closeDate := p.CloseDate
	if !closeDate.IsZero() {
		closeDate = timeutil.StartOfDay(closeDate)
		if closeDate.Before(open) {
			return nil, shared.ErrCloseBeforeOpen
		}
	}

	return &Opportunity{
		ID:             p.ID,
		Title:          strings.TrimSpace(p.Title),
		Description:    strings.TrimSpace(p.Description),
		Level:          p.Level,
		PreferredMajor: strings.TrimSpace(p.PreferredMajor),
		OpenDate:       open,
		CloseDate:      closeDate,
		Status:         StatusPending,
		CompanyName:    rep.CompanyName,
		OwnerRepID:     rep.ID,
		Slots:          p.Slots,
		TotalSlots:     p.Slots,
		Visible:        false,
		LastUpdated:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// IsPublished reports whether students may see the opportunity (APPROVED and visible).
func (o *Opportunity) IsPublished() bool {
	return o.Status == StatusApproved && o.Visible
}

// IsOpenOn reports whether day lies inside [OpenDate, CloseDate].
func (o *Opportunity) IsOpenOn(day time.Time) bool {
	return timeutil.WithinWindow(day, o.OpenDate, o.CloseDate)
}

// OwnedBy reports whether repID is the recorded owner.
func (o *Opportunity) OwnedBy(repID string) bool {
	return o.OwnerRepID != "" && user.NormalizeID(o.OwnerRepID) == user.NormalizeID(repID)
}

// HasOwner reports whether an owner id is recorded.
func (o *Opportunity) HasOwner() bool {
	return strings.TrimSpace(o.OwnerRepID) != ""
}

// IsEligible is the year/level rule: years 1-2 take BASIC only, years 3-4 any level.
func IsEligible(year int, level Level) bool {
	if year >= 3 {
		return true
	}
	return level == LevelBasic
}

// EligibleFor applies IsEligible to s.
func (o *Opportunity) EligibleFor(s *user.Student) bool {
	return s != nil && IsEligible(s.YearOfStudy, o.Level)
}

// FilledSlots is the number of slots taken by acceptances.
func (o *Opportunity) FilledSlots() int {
	if n := o.TotalSlots - o.Slots; n > 0 {
		return n
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (lifecycle)
// ══════════════════════════════════════════════════════════════════════════════

// Approve publishes the draft for visibility toggling. Approving an approved or
// filled opportunity changes nothing and reports false.
func (o *Opportunity) Approve(now time.Time) bool {
	switch o.Status {
	case StatusApproved, StatusFilled:
		return false
	}
	o.Status = StatusApproved
	o.touch(now)
	o.UpdateFilledStatus(now)
	return true
}

// Reject refuses the opportunity. A filled opportunity cannot be rejected.
func (o *Opportunity) Reject(now time.Time) (bool, error) {
	switch o.Status {
	case StatusRejected:
		return false, nil
	case StatusFilled:
		return false, shared.Precondition("opportunity", "Reject", "opportunity %s is already filled", o.ID)
	}
	o.Status = StatusRejected
	o.touch(now)
	return true, nil
}

// SetVisible toggles student visibility. Only APPROVED opportunities may be
// toggled; ErrOpportunityNotApproved is returned otherwise.
func (o *Opportunity) SetVisible(on bool, now time.Time) (bool, error) {
	if o.Status != StatusApproved {
		return false, shared.ErrOpportunityNotApproved
	}
	if o.Visible == on {
		return false, nil
	}
	o.Visible = on
	o.touch(now)
	return true, nil
}

// UpdateFilledStatus moves an APPROVED opportunity with no slots left to FILLED.
func (o *Opportunity) UpdateFilledStatus(now time.Time) bool {
	if o.Slots <= 0 && o.Status == StatusApproved {
		o.Slots = 0
		o.Status = StatusFilled
		o.touch(now)
		return true
	}
	return false
}

// TakeSlot consumes one slot for an acceptance.
func (o *Opportunity) TakeSlot(now time.Time) error {
	if o.Slots <= 0 {
		return shared.ErrNoSlotsLeft
	}
	o.Slots--
	o.touch(now)
	o.UpdateFilledStatus(now)
	return nil
}

// ReturnSlot gives back a slot freed by an approved withdrawal and reopens a
// FILLED opportunity.
func (o *Opportunity) ReturnSlot(now time.Time) {
	o.Slots++
	if o.TotalSlots < o.Slots {
		o.TotalSlots = o.Slots
	}
	if o.Status == StatusFilled && o.Slots >= 1 {
		o.Status = StatusApproved
	}
	o.touch(now)
}

// SetSlots sets the capacity of a draft. Negative values are rejected.
func (o *Opportunity) SetSlots(n int, now time.Time) error {
	if n < 0 {
		return shared.ErrNegativeSlots
	}
	o.Slots = n
	o.TotalSlots = n
	o.touch(now)
	return nil
}

// EditParams carries optional changes to a PENDING opportunity. Nil fields are left as is.
type EditParams struct {
	Title          *string
	Description    *string
	Level          *Level
	PreferredMajor *string
	CloseDate      *time.Time
	Slots          *int
}

// IsEmpty reports whether nothing would change.
func (p EditParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Level == nil &&
		p.PreferredMajor == nil && p.CloseDate == nil && p.Slots == nil
}

// Edit applies p to a PENDING opportunity.
func (o *Opportunity) Edit(p EditParams, now time.Time) error {
	if o.Status != StatusPending {
		return shared.ErrOpportunityNotPending
	}

	next := *o
	if p.Title != nil {
		if shared.IsBlank(*p.Title) {
			return shared.ErrBlankTitle
		}
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Level != nil {
		if !p.Level.IsValid() {
			return shared.Validation("opportunity", "Edit", "unknown level %q", *p.Level)
		}
		next.Level = *p.Level
	}
	if p.PreferredMajor != nil {
		next.PreferredMajor = strings.TrimSpace(*p.PreferredMajor)
	}
	if p.CloseDate != nil {
		next.CloseDate = *p.CloseDate
		if !next.CloseDate.IsZero() {
			next.CloseDate = timeutil.StartOfDay(next.CloseDate)
			if !next.OpenDate.IsZero() && next.CloseDate.Before(next.OpenDate) {
				return shared.ErrCloseBeforeOpen
			}
		}
	}
	if p.Slots != nil {
		if *p.Slots < 0 {
			return shared.ErrNegativeSlots
		}
		next.Slots = *p.Slots
		next.TotalSlots = *p.Slots
	}

	*o = next
	o.touch(now)
	return nil
}

// AuthorizeReviewer checks that rep may review applications for o.
// ownerResolved tells whether OwnerRepID names an existing rep. When the owner
// is unresolved and the companies match, ownership is re-attached to rep and
// reattached is true.
func (o *Opportunity) AuthorizeReviewer(rep *user.CompanyRepresentative, ownerResolved bool) (reattached bool, err error) {
	if rep == nil {
		return false, shared.ErrNotOpportunityOwner
	}
	if ownerResolved && o.OwnedBy(rep.ID) {
		return false, nil
	}
	if !ownerResolved && rep.SameCompany(o.CompanyName) {
		o.OwnerRepID = rep.ID
		return true, nil
	}
	return false, shared.ErrNotOpportunityOwner
}

func (o *Opportunity) touch(now time.Time) {
	o.LastUpdated = now
}

// Clone returns a copy of the opportunity.
func (o *Opportunity) Clone() *Opportunity {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Opportunity) String() string {
	return fmt.Sprintf("Opportunity{ID: %s, Title: %s, Status: %s, Visible: %t, Slots: %d}",
		o.ID, o.Title, o.Status, o.Visible, o.Slots)
}
