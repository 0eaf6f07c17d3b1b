package loan

import (
	"credit-engine/internal/pkg/apperrors"
	"fmt"
	"math"
	"time"
)

const (
	// First business loan ID handed out when the book is empty.
	LoanIDFloor = 9956

	MinTenureMonths = 1
	MaxTenureMonths = 360

	MaxInterestRate = 50.0
)

type Money = float64

type Loan struct {
	// LoanID is the business identifier. It is unique per customer only;
	// historical books reuse the same LoanID across customers.
	LoanID           int64
	CustomerID       int64
	LoanAmount       Money
	TenureMonths     int
	InterestRate     float64
	MonthlyRepayment Money
	EMIsPaidOnTime   int
	ApprovalDate     time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewLoan builds a loan with the end date derived from the approval date and
// tenure. The business LoanID is assigned by the repository at insert time.
func NewLoan(customerID int64, amount Money, tenureMonths int, interestRate float64, monthlyRepayment Money, approvalDate time.Time) (*Loan, error) {
	if approvalDate.IsZero() {
		approvalDate = time.Now().Truncate(24 * time.Hour)
	}

	l := &Loan{
		CustomerID:       customerID,
		LoanAmount:       amount,
		TenureMonths:     tenureMonths,
		InterestRate:     interestRate,
		MonthlyRepayment: monthlyRepayment,
		ApprovalDate:     approvalDate,
		EndDate:          approvalDate.AddDate(0, tenureMonths, 0),
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loan) validate() error {
	if l.CustomerID <= 0 {
		return fmt.Errorf("%w: customer ID must be positive", apperrors.ErrInvalidArgument)
	}
	if l.LoanAmount <= 0 {
		return fmt.Errorf("%w: loan amount must be positive", apperrors.ErrValidation)
	}
	if l.TenureMonths < MinTenureMonths || l.TenureMonths > MaxTenureMonths {
		return fmt.Errorf("%w: tenure must be between %d and %d months", apperrors.ErrValidation, MinTenureMonths, MaxTenureMonths)
	}
	if l.InterestRate < 0 || l.InterestRate > MaxInterestRate {
		return fmt.Errorf("%w: interest rate must be between 0 and %.0f", apperrors.ErrValidation, MaxInterestRate)
	}
	if l.MonthlyRepayment <= 0 {
		return fmt.Errorf("%w: monthly repayment must be positive", apperrors.ErrValidation)
	}
	if l.EMIsPaidOnTime < 0 || l.EMIsPaidOnTime > l.TenureMonths {
		return fmt.Errorf("%w: EMIs paid on time cannot exceed the tenure", apperrors.ErrValidation)
	}
	if !l.EndDate.After(l.ApprovalDate) {
		return fmt.Errorf("%w: end date must be later than the approval date", apperrors.ErrValidation)
	}
	return nil
}

// IsActive reports whether the loan still counts against the customer's
// approved limit at the given date.
func (l *Loan) IsActive(asOf time.Time) bool {
	return !l.EndDate.Before(asOf)
}

// RepaymentsLeft is the number of EMIs still owed, never negative.
func (l *Loan) RepaymentsLeft() int {
	left := l.TenureMonths - l.EMIsPaidOnTime
	if left < 0 {
		return 0
	}
	return left
}

// CalculateEMI computes the equated monthly installment for a principal at an
// annual interest rate percentage over a tenure in months, rounded to two
// decimal places. A zero rate degenerates to straight-line principal/tenure.
func CalculateEMI(principal Money, annualRatePercent float64, tenureMonths int) Money {
	r := annualRatePercent / 100 / 12
	if r == 0 {
		return roundTo(principal/float64(tenureMonths), 2)
	}
	pow := math.Pow(1+r, float64(tenureMonths))
	return roundTo(principal*r*pow/(pow-1), 2)
}

func roundTo(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(n*pow) / pow
}
