// Package user models the three kinds of account in the placement hub:
// students, company representatives, and career center staff.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLE
// ══════════════════════════════════════════════════════════════════════════════

// Role discriminates the account variants.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleRep     Role = "REP"
	RoleStaff   Role = "STAFF"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleRep, RoleStaff:
		return true
	}
	return false
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleRep:
		return "Company Representative"
	case RoleStaff:
		return "Career Center Staff"
	default:
		return "Unknown"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User exposes the attributes every account variant has. Role-specific
// behaviour lives on the concrete types and the command handlers.
type User interface {
	UserID() string
	Name() string
	Role() Role
	Digest() string
	SetDigest(digest string)
	LastCheck() time.Time
	MarkChecked(at time.Time)
}

// Account holds the common attributes. It is embedded by each variant.
type Account struct {
	// ID is the login: a student id, an NTU staff email, or a company email.
	ID string

	DisplayName string

	// PasswordDigest is a bcrypt digest.
	PasswordDigest string

	// LastNotificationCheck is the marker notifications are derived against.
	LastNotificationCheck time.Time
}

func (a *Account) UserID() string       { return a.ID }
func (a *Account) Name() string         { return a.DisplayName }
func (a *Account) Digest() string       { return a.PasswordDigest }
func (a *Account) SetDigest(d string)   { a.PasswordDigest = d }
func (a *Account) LastCheck() time.Time { return a.LastNotificationCheck }

// MarkChecked moves the notification marker forward. It never moves back.
func (a *Account) MarkChecked(at time.Time) {
	if at.After(a.LastNotificationCheck) {
		a.LastNotificationCheck = at
	}
}

// ─── Student ─────────────────────────────────────────────────────────────────

// Student is an undergraduate looking for a placement.
type Student struct {
	Account

	// YearOfStudy is 1..4.
	YearOfStudy int

	Major string

	// Visible is the student's opt-in to browse and apply.
	Visible bool

	// AcceptedPlacement is the id of the accepted application, or "".
	AcceptedPlacement string
}

// Role implements User.
func (s *Student) Role() Role { return RoleStudent }

// HasPlacement reports whether the student has accepted an offer.
func (s *Student) HasPlacement() bool {
	return s.AcceptedPlacement != ""
}

// IsSenior reports whether the student is in year 3 or 4.
func (s *Student) IsSenior() bool {
	return s.YearOfStudy >= 3
}

// AcceptPlacement records applicationID as the accepted placement.
func (s *Student) AcceptPlacement(applicationID string) {
	s.AcceptedPlacement = applicationID
}

// ReleasePlacement clears the accepted placement when it is applicationID.
func (s *Student) ReleasePlacement(applicationID string) bool {
	if s.AcceptedPlacement == "" || s.AcceptedPlacement != applicationID {
		return false
	}
	s.AcceptedPlacement = ""
	return true
}

// Clone returns a copy of the student.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (s *Student) String() string {
	return fmt.Sprintf("Student{ID: %s, Year: %d, Major: %s, Visible: %t}", s.ID, s.YearOfStudy, s.Major, s.Visible)
}

// ─── Company representative ──────────────────────────────────────────────────

// CompanyRepresentative publishes opportunities for one company once staff
// has approved the registration.
type CompanyRepresentative struct {
	Account

	CompanyName string
	Department  string
	Position    string

	// Status is the registration approval state.
	Status shared.RequestStatus
}

// Role implements User.
func (r *CompanyRepresentative) Role() Role { return RoleRep }

// IsApproved reports whether the rep may work with opportunities.
func (r *CompanyRepresentative) IsApproved() bool {
	return r.Status == shared.RequestApproved
}

// SameCompany compares company names case-insensitively.
func (r *CompanyRepresentative) SameCompany(company string) bool {
	return r.CompanyName != "" && shared.EqualFold(r.CompanyName, company)
}

// Clone returns a copy of the rep.
func (r *CompanyRepresentative) Clone() *CompanyRepresentative {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

func (r *CompanyRepresentative) String() string {
	return fmt.Sprintf("CompanyRepresentative{ID: %s, Company: %s, Status: %s}", r.ID, r.CompanyName, r.Status)
}

// ─── Career center staff ─────────────────────────────────────────────────────

// CareerCenterStaff approves reps, opportunities and withdrawals.
type CareerCenterStaff struct {
	Account

	Department string
}

// Role implements User.
func (s *CareerCenterStaff) Role() Role { return RoleStaff }

// Clone returns a copy of the staff member.
func (s *CareerCenterStaff) Clone() *CareerCenterStaff {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewStudentParams holds the fields of a new student.
type NewStudentParams struct {
	ID             string `validate:"student_id" label:"student id"`
	Name           string `validate:"notblank" label:"name"`
	YearOfStudy    int    `validate:"gte=1,lte=4" label:"year"`
	Major          string `validate:"notblank" label:"major"`
	PasswordDigest string
}

// NewStudent creates a student with visibility off.
func NewStudent(p NewStudentParams) (*Student, error) {
	p.ID = strings.ToUpper(strings.TrimSpace(p.ID))
	if err := shared.ValidateStruct("user", "NewStudent", p); err != nil {
		return nil, err
	}
	return &Student{
		Account: Account{
			ID:             p.ID,
			DisplayName:    strings.TrimSpace(p.Name),
			PasswordDigest: p.PasswordDigest,
		},
		YearOfStudy: p.YearOfStudy,
		Major:       strings.TrimSpace(p.Major),
	}, nil
}

// NewStaffParams holds the fields of a new staff member.
type NewStaffParams struct {
	ID             string `validate:"ntu_email" label:"staff id"`
	Name           string `validate:"notblank" label:"name"`
	Department     string
	PasswordDigest string
}

// NewStaff creates a staff member.
func NewStaff(p NewStaffParams) (*CareerCenterStaff, error) {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	if err := shared.ValidateStruct("user", "NewStaff", p); err != nil {
		return nil, err
	}
	return &CareerCenterStaff{
		Account: Account{
			ID:             p.ID,
			DisplayName:    strings.TrimSpace(p.Name),
			PasswordDigest: p.PasswordDigest,
		},
		Department: strings.TrimSpace(p.Department),
	}, nil
}

// NewRepParams holds the fields of a self-registering representative.
type NewRepParams struct {
	ID             string `validate:"company_email" label:"email"`
	Name           string `validate:"notblank" label:"name"`
	CompanyName    string `validate:"notblank" label:"company"`
	Department     string
	Position       string
	PasswordDigest string
}

// NewRep creates a representative in PENDING approval.
func NewRep(p NewRepParams) (*CompanyRepresentative, error) {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	if err := shared.ValidateStruct("user", "NewRep", p); err != nil {
		return nil, err
	}
	return &CompanyRepresentative{
		Account: Account{
			ID:             p.ID,
			DisplayName:    strings.TrimSpace(p.Name),
			PasswordDigest: p.PasswordDigest,
		},
		CompanyName: strings.TrimSpace(p.CompanyName),
		Department:  strings.TrimSpace(p.Department),
		Position:    strings.TrimSpace(p.Position),
		Status:      shared.RequestPending,
	}, nil
}

// IsLoginID reports whether id has the shape of any account id.
func IsLoginID(id string) bool {
	return shared.IsValidStudentID(id) || shared.IsValidNTUEmail(id) || shared.IsValidCompanyEmail(id)
}

// NormalizeID returns the lookup key for an account id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// AsStudent narrows u to a student.
func AsStudent(u User) (*Student, bool) {
	s, ok := u.(*Student)
	return s, ok
}

// AsRep narrows u to a company representative.
func AsRep(u User) (*CompanyRepresentative, bool) {
	r, ok := u.(*CompanyRepresentative)
	return r, ok
}

// AsStaff narrows u to a staff member.
func AsStaff(u User) (*CareerCenterStaff, bool) {
	s, ok := u.(*CareerCenterStaff)
	return s, ok
}
