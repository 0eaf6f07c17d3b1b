package loan

import (
	"context"
	"testing"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*customer.Customer, error) {
	ret := _m.Called(ctx, firstName, lastName, age, phoneNumber, monthlyIncome)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) UpdateMonthlyIncome(ctx context.Context, customerID int64, monthlyIncome float64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID, monthlyIncome)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	ret := _m.Called(ctx, customerID)
	return ret.Error(0)
}

func setupLoanService() (*MockRepository, *MockCustomerService, LoanService) {
	repo := new(MockRepository)
	custSvc := new(MockCustomerService)
	engine := NewEngine(NewScorer(repo, testLogger), repo, testLogger, fixedClock())
	svc := NewLoanService(repo, custSvc, engine, nil, testLogger, fixedClock())
	return repo, custSvc, svc
}

func TestLoanService_CheckEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("validation rejects before touching the store", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()

		_, err := svc.CheckEligibility(ctx, 1, -1, 10, 24)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		custSvc.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SumActivePrincipal", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown customer is not found, not validation", func(t *testing.T) {
		_, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(42)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.CheckEligibility(ctx, 42, 500_000, 10, 24)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("approved decision flows through", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(scoringCustomer(), nil).Once()
		repo.On("SumActivePrincipal", mock.Anything, int64(1), mock.Anything).Return(Money(0), nil).Twice()
		repo.On("GetHistorySummary", mock.Anything, int64(1), 2026).Return(&HistorySummary{EMIsPaidOnTime: 6}, nil).Once()

		decision, err := svc.CheckEligibility(ctx, 1, 500_000, 10, 24)

		assert.NoError(t, err)
		assert.True(t, decision.Approved)
		assert.Equal(t, 10.0, decision.CorrectedRate)
	})
}

func TestLoanService_OriginateLoan(t *testing.T) {
	ctx := context.Background()
	asOf := fixedClock()()

	t.Run("approval persists the loan with the corrected rate", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(scoringCustomer(), nil).Once()
		repo.On("SumActivePrincipal", mock.Anything, int64(1), mock.Anything).Return(Money(0), nil).Twice()
		// Score 40: mid tier floors the 8% request to 12%.
		repo.On("GetHistorySummary", mock.Anything, int64(1), 2026).Return(&HistorySummary{EMIsPaidOnTime: 4}, nil).Once()

		repo.On("CreateLoan", ctx, mock.MatchedBy(func(l *Loan) bool {
			return l.CustomerID == 1 &&
				l.LoanAmount == 500_000.0 &&
				l.InterestRate == 12.0 &&
				l.TenureMonths == 24 &&
				l.EndDate.Equal(l.ApprovalDate.AddDate(0, 24, 0))
		})).Return(func(_ context.Context, l *Loan) *Loan {
			created := *l
			created.LoanID = 9956
			return &created
		}, nil).Once()

		result, err := svc.OriginateLoan(ctx, 1, 500_000, 8, 24)

		assert.NoError(t, err)
		assert.True(t, result.Approved)
		assert.Equal(t, int64(9956), result.LoanID)
		assert.NotNil(t, result.MonthlyInstallment)
		repo.AssertExpectations(t)
	})

	t.Run("rejection returns the reason verbatim and persists nothing", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(scoringCustomer(), nil).Once()
		repo.On("SumActivePrincipal", mock.Anything, int64(1), asOf).Return(Money(4_000_000), nil).Once()

		result, err := svc.OriginateLoan(ctx, 1, 500_000, 10, 24)

		assert.NoError(t, err)
		assert.False(t, result.Approved)
		assert.Equal(t, ReasonLimitExceeded, result.Message)
		assert.Zero(t, result.LoanID)
		assert.Nil(t, result.MonthlyInstallment)
		repo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("identifier collision is fatal and not retried", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(scoringCustomer(), nil).Once()
		repo.On("SumActivePrincipal", mock.Anything, int64(1), mock.Anything).Return(Money(0), nil).Twice()
		repo.On("GetHistorySummary", mock.Anything, int64(1), 2026).Return(&HistorySummary{EMIsPaidOnTime: 6}, nil).Once()
		repo.On("CreateLoan", ctx, mock.Anything).Return(nil, apperrors.ErrAlreadyExists).Once()

		_, err := svc.OriginateLoan(ctx, 1, 500_000, 10, 24)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		repo.AssertNumberOfCalls(t, "CreateLoan", 1)
	})
}

func TestLoanService_ViewLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("returns one snapshot per owning customer", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()

		loans := []Loan{
			{LoanID: 9956, CustomerID: 1, LoanAmount: 500_000},
			{LoanID: 9956, CustomerID: 2, LoanAmount: 250_000},
		}
		repo.On("FindByLoanID", ctx, int64(9956)).Return(loans, nil).Once()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(&customer.Customer{CustomerID: 1, FirstName: "Aarav"}, nil).Once()
		custSvc.On("GetCustomer", ctx, int64(2)).Return(&customer.Customer{CustomerID: 2, FirstName: "Meera"}, nil).Once()

		snapshots, err := svc.ViewLoan(ctx, 9956)

		assert.NoError(t, err)
		assert.Len(t, snapshots, 2, "per-customer uniqueness means one ID can map to several loans")
		assert.Equal(t, int64(1), snapshots[0].Customer.CustomerID)
		assert.Equal(t, int64(2), snapshots[1].Customer.CustomerID)
	})

	t.Run("unknown loan ID is not found", func(t *testing.T) {
		repo, _, svc := setupLoanService()
		repo.On("FindByLoanID", ctx, int64(1)).Return([]Loan{}, nil).Once()

		_, err := svc.ViewLoan(ctx, 1)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestLoanService_ViewActiveLoans(t *testing.T) {
	ctx := context.Background()
	asOf := fixedClock()()

	t.Run("active loans for an existing customer", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(scoringCustomer(), nil).Once()
		loans := []Loan{{LoanID: 9956, CustomerID: 1, TenureMonths: 24, EMIsPaidOnTime: 10}}
		repo.On("FindActiveByCustomer", ctx, int64(1), asOf).Return(loans, nil).Once()

		result, err := svc.ViewActiveLoans(ctx, 1)

		assert.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, 14, result[0].RepaymentsLeft())
	})

	t.Run("unknown customer is not found before querying loans", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(42)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.ViewActiveLoans(ctx, 42)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		repo.AssertNotCalled(t, "FindActiveByCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty book is a normal empty result", func(t *testing.T) {
		repo, custSvc, svc := setupLoanService()
		custSvc.On("GetCustomer", ctx, int64(1)).Return(scoringCustomer(), nil).Once()
		repo.On("FindActiveByCustomer", ctx, int64(1), asOf).Return([]Loan{}, nil).Once()

		result, err := svc.ViewActiveLoans(ctx, 1)

		assert.NoError(t, err)
		assert.Empty(t, result)
	})
}
