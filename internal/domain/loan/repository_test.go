package loan

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateLoan(ctx context.Context, newLoan *Loan) (*Loan, error) {
	ret := _m.Called(ctx, newLoan)

	var r0 *Loan
	if rf, ok := ret.Get(0).(func(context.Context, *Loan) *Loan); ok {
		r0 = rf(ctx, newLoan)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Loan)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *Loan) error); ok {
		r1 = rf(ctx, newLoan)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) FindByLoanID(ctx context.Context, loanID int64) ([]Loan, error) {
	ret := _m.Called(ctx, loanID)

	var r0 []Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindActiveByCustomer(ctx context.Context, customerID int64, asOf time.Time) ([]Loan, error) {
	ret := _m.Called(ctx, customerID, asOf)

	var r0 []Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetHistorySummary(ctx context.Context, customerID int64, year int) (*HistorySummary, error) {
	ret := _m.Called(ctx, customerID, year)

	var r0 *HistorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*HistorySummary)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) SumActivePrincipal(ctx context.Context, customerID int64, asOf time.Time) (Money, error) {
	ret := _m.Called(ctx, customerID, asOf)

	var r0 Money
	if rf, ok := ret.Get(0).(func(context.Context, int64, time.Time) Money); ok {
		r0 = rf(ctx, customerID, asOf)
	} else {
		r0 = ret.Get(0).(Money)
	}
	return r0, ret.Error(1)
}
