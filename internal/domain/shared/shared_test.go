package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Kinds(t *testing.T) {
	assert.True(t, IsPrecondition(ErrNotEligible))
	assert.False(t, IsValidation(ErrNotEligible))
	assert.True(t, IsValidation(ErrNegativeSlots))
	assert.True(t, IsNotFound(NotFound("opportunity", "Find", "opportunity", "O001")))
	assert.True(t, IsInvalidCredentials(ErrBadCredentials))
	assert.True(t, IsForbidden(Forbidden("opportunity", "Approve", "staff only")))

	wrapped := fmt.Errorf("apply: %w", ErrTooManyPending)
	assert.ErrorIs(t, wrapped, ErrTooManyPending)
	assert.ErrorIs(t, wrapped, ErrPrecondition)
}

func TestDomainError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError("records", "Save", ErrPersistence, "write opportunities", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
}

func TestIDGenerator_NextAndSeed(t *testing.T) {
	g := NewIDGenerator(PrefixOpportunity)
	assert.Equal(t, "O001", g.Next())

	g.Seed("O007", "O003", "A999", "Oxyz", "")
	assert.Equal(t, "O008", g.Next())

	g.Seed("O002")
	assert.Equal(t, "O009", g.Next(), "seeding never moves the counter backwards")
}

func TestIDGenerator_MultiLetterPrefix(t *testing.T) {
	g := NewIDGenerator(PrefixRegistration)
	g.Seed("REG010", "R5")
	assert.Equal(t, "REG011", g.Next())
	assert.Equal(t, 11, g.Last())
}

func TestIDGenerator_WidthGrows(t *testing.T) {
	g := NewIDGenerator(PrefixApplication)
	g.Seed("A999")
	assert.Equal(t, "A1000", g.Next())
}

func TestSuffix(t *testing.T) {
	n, ok := Suffix("W", "w012")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = Suffix("W", "W")
	assert.False(t, ok)
	_, ok = Suffix("W", "W1a")
	assert.False(t, ok)
}

func TestRequestStatus(t *testing.T) {
	s, err := ParseRequestStatus(" approved ")
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, s)
	assert.False(t, s.IsPending())

	_, err = ParseRequestStatus("maybe")
	assert.True(t, IsValidation(err))

	assert.Equal(t, RequestApproved, Decision(true))
	assert.Equal(t, RequestRejected, Decision(false))
}

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"student id", IsValidStudentID, "U2310001A", true},
		{"student id no letter", IsValidStudentID, "S1234567", true},
		{"student id short", IsValidStudentID, "U123", false},
		{"student id prefix", IsValidStudentID, "X1234567", false},
		{"ntu email", IsValidNTUEmail, "SNG001@NTU.EDU.SG", true},
		{"ntu email other domain", IsValidNTUEmail, "sng001@gmail.com", false},
		{"company email", IsValidCompanyEmail, "john.doe@abc.sg", true},
		{"company email no tld", IsValidCompanyEmail, "john@abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `validate:"company_email" label:"email"`
		Title string `validate:"notblank"`
		Slots int    `validate:"gte=1,lte=10"`
	}

	assert.NoError(t, ValidateStruct("opportunity", "Create", input{Email: "a@b.com", Title: "x", Slots: 2}))

	err := ValidateStruct("opportunity", "Create", input{Email: "bad", Title: "  ", Slots: 11})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "email must be a valid company email")
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "slots must be <= 10")
}
