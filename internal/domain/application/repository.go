package application

import "context"

// Repository keeps applications keyed by id.
type Repository interface {
	// Save inserts or replaces a. It fails only for a nil application or a
	// blank id; storage failures are logged and absorbed.
	Save(ctx context.Context, a *Application) error

	FindByID(ctx context.Context, id string) (*Application, bool)

	// FindAll returns every application ordered by id.
	FindAll(ctx context.Context) []*Application

	FindByStudent(ctx context.Context, studentID string) []*Application
	FindByOpportunity(ctx context.Context, opportunityID string) []*Application

	// CountPendingByStudent counts the student's PENDING applications.
	CountPendingByStudent(ctx context.Context, studentID string) int

	// NextID issues a fresh A-prefixed id.
	NextID() string

	Reload(ctx context.Context) error
}

// WithdrawalRepository keeps withdrawal requests keyed by id.
type WithdrawalRepository interface {
	Save(ctx context.Context, r *WithdrawalRequest) error
	FindByID(ctx context.Context, id string) (*WithdrawalRequest, bool)
	FindAll(ctx context.Context) []*WithdrawalRequest
	FindByStudent(ctx context.Context, studentID string) []*WithdrawalRequest
	FindByApplication(ctx context.Context, applicationID string) []*WithdrawalRequest

	// FindPending returns requests awaiting a staff decision.
	FindPending(ctx context.Context) []*WithdrawalRequest

	// NextID issues a fresh W-prefixed id.
	NextID() string

	Reload(ctx context.Context) error
}
