package loan

import (
	"testing"
	"time"

	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateEMI(t *testing.T) {
	t.Run("standard amortization", func(t *testing.T) {
		emi := CalculateEMI(500000, 10, 24)
		assert.InDelta(t, 23072.46, emi, 0.01)
	})

	t.Run("zero rate degenerates to principal over tenure", func(t *testing.T) {
		emi := CalculateEMI(120000, 0, 24)
		assert.Equal(t, 5000.0, emi)
	})

	t.Run("single month tenure", func(t *testing.T) {
		emi := CalculateEMI(10000, 12, 1)
		// One period at 1% monthly.
		assert.InDelta(t, 10100.0, emi, 0.01)
	})

	t.Run("result rounded to two decimals", func(t *testing.T) {
		emi := CalculateEMI(333333, 11.5, 37)
		assert.Equal(t, roundTo(emi, 2), emi)
	})
}

func TestNewLoanDerivesEndDate(t *testing.T) {
	approval := date(2026, time.March, 15)

	l, err := NewLoan(1, 500000, 24, 10, 23074.15, approval)

	assert.NoError(t, err)
	assert.Equal(t, date(2028, time.March, 15), l.EndDate)
	assert.True(t, l.EndDate.After(l.ApprovalDate))
	assert.Equal(t, int64(0), l.LoanID, "business LoanID is assigned at insert time")
}

func TestNewLoanValidation(t *testing.T) {
	approval := date(2026, time.January, 1)

	tests := []struct {
		name       string
		customerID int64
		amount     Money
		tenure     int
		rate       float64
		repayment  Money
	}{
		{"zero amount", 1, 0, 24, 10, 1000},
		{"negative amount", 1, -5, 24, 10, 1000},
		{"zero tenure", 1, 500000, 0, 10, 1000},
		{"tenure above 360", 1, 500000, 361, 10, 1000},
		{"rate above 50", 1, 500000, 24, 51, 1000},
		{"negative rate", 1, 500000, 24, -1, 1000},
		{"zero repayment", 1, 500000, 24, 10, 0},
		{"missing customer", 0, 500000, 24, 10, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoan(tt.customerID, tt.amount, tt.tenure, tt.rate, tt.repayment, approval)
			assert.Nil(t, l)
			assert.Error(t, err)
		})
	}
}

func TestLoanValidateEMIsPaidOnTime(t *testing.T) {
	approval := date(2026, time.January, 1)
	l, err := NewLoan(1, 500000, 24, 10, 23074.15, approval)
	assert.NoError(t, err)

	l.EMIsPaidOnTime = 25
	assert.ErrorIs(t, l.validate(), apperrors.ErrValidation)

	l.EMIsPaidOnTime = 24
	assert.NoError(t, l.validate())
}

func TestLoanIsActive(t *testing.T) {
	approval := date(2024, time.June, 1)
	l, err := NewLoan(1, 500000, 12, 10, 43957.85, approval)
	assert.NoError(t, err)

	assert.True(t, l.IsActive(date(2025, time.May, 31)))
	assert.True(t, l.IsActive(date(2025, time.June, 1)), "end date itself still counts as active")
	assert.False(t, l.IsActive(date(2025, time.June, 2)))
}

func TestLoanRepaymentsLeft(t *testing.T) {
	l := &Loan{TenureMonths: 24, EMIsPaidOnTime: 10}
	assert.Equal(t, 14, l.RepaymentsLeft())

	l.EMIsPaidOnTime = 30
	assert.Equal(t, 0, l.RepaymentsLeft(), "never negative")
}
