package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipms/placement-hub/internal/domain/shared"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestReview(t *testing.T) {
	a := New("A001", "U1234567A", "O001", now)
	require.NoError(t, a.Review(true, now.Add(time.Minute)))
	assert.Equal(t, StatusSuccessful, a.Status)
	assert.Equal(t, now.Add(time.Minute), a.LastUpdated)

	assert.ErrorIs(t, a.Review(false, now), shared.ErrApplicationNotPending)

	b := New("A002", "U1234567A", "O001", now)
	require.NoError(t, b.Review(false, now))
	assert.Equal(t, StatusUnsuccessful, b.Status)
}

func TestAccept(t *testing.T) {
	a := New("A001", "U1234567A", "O001", now)
	assert.ErrorIs(t, a.Accept(now), shared.ErrApplicationNotSucceeded)

	require.NoError(t, a.Review(true, now))
	require.NoError(t, a.Accept(now))
	assert.Equal(t, StatusAccepted, a.Status)
}

func TestWithdrawForAcceptance(t *testing.T) {
	pending := New("A001", "S", "O1", now)
	assert.True(t, pending.WithdrawForAcceptance(now))
	assert.Equal(t, StatusWithdrawn, pending.Status)
	assert.True(t, pending.WithdrawalRequested)

	rejected := New("A002", "S", "O2", now)
	require.NoError(t, rejected.Review(false, now))
	assert.False(t, rejected.WithdrawForAcceptance(now))
	assert.Equal(t, StatusUnsuccessful, rejected.Status)
	assert.False(t, rejected.WithdrawalRequested)
}

func TestMarkWithdrawalRequested(t *testing.T) {
	a := New("A001", "S", "O1", now)
	require.NoError(t, a.MarkWithdrawalRequested(now))
	assert.True(t, a.WithdrawalRequested)

	a.Withdraw(now)
	assert.ErrorIs(t, a.MarkWithdrawalRequested(now), shared.ErrAlreadyWithdrawn)
}

func TestWithdraw_ReturnsPreviousStatus(t *testing.T) {
	a := New("A001", "S", "O1", now)
	require.NoError(t, a.Review(true, now))
	require.NoError(t, a.Accept(now))

	assert.Equal(t, StatusAccepted, a.Withdraw(now))
	assert.Equal(t, StatusWithdrawn, a.Status)
}

func TestWithdrawalRequest_Decide(t *testing.T) {
	a := New("A001", "U1234567A", "O1", now)
	r := NewWithdrawalRequest("W001", a, " changed plans ", now)
	assert.Equal(t, "changed plans", r.Reason)
	assert.Equal(t, "U1234567A", r.StudentID)
	assert.Equal(t, shared.RequestPending, r.Status)

	require.NoError(t, r.Decide(true, now.Add(time.Hour)))
	assert.Equal(t, shared.RequestApproved, r.Status)
	assert.Equal(t, now.Add(time.Hour), r.LastUpdated)

	assert.ErrorIs(t, r.Decide(false, now), shared.ErrRequestNotPending)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusAccepted.IsActive())
	assert.False(t, StatusWithdrawn.IsActive())
	assert.True(t, StatusUnsuccessful.IsTerminal())

	s, err := ParseStatus("successful")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, s)
}
