package loan

import (
	"context"
	"time"
)

// HistorySummary aggregates a customer's loan book for credit scoring.
type HistorySummary struct {
	EMIsPaidOnTime int
	TotalLoans     int
	LoansThisYear  int
	TotalVolume    Money
}

type Repository interface {
	// CreateLoan inserts the loan and assigns its business LoanID inside
	// the same statement (current global max + 1, floor LoanIDFloor). A
	// lost assignment race trips the per-customer uniqueness constraint
	// and surfaces as apperrors.ErrAlreadyExists; it is never retried.
	CreateLoan(ctx context.Context, newLoan *Loan) (*Loan, error)

	// FindByLoanID returns every loan carrying the business ID. Business
	// IDs are unique per customer only, so multiple rows are expected.
	FindByLoanID(ctx context.Context, loanID int64) ([]Loan, error)

	FindActiveByCustomer(ctx context.Context, customerID int64, asOf time.Time) ([]Loan, error)

	// GetHistorySummary aggregates the customer's full loan history; the
	// year bounds the "recent activity" count.
	GetHistorySummary(ctx context.Context, customerID int64, year int) (*HistorySummary, error)

	// SumActivePrincipal totals the principal of loans whose end date is
	// on or after asOf.
	SumActivePrincipal(ctx context.Context, customerID int64, asOf time.Time) (Money, error)
}
