package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/pkg/apperrors"
)

// OriginationResult reports the outcome of a loan application. LoanID is
// only set when a loan was actually created.
type OriginationResult struct {
	LoanID             int64
	CustomerID         int64
	Approved           bool
	Message            string
	MonthlyInstallment *Money
}

// LoanSnapshot pairs a loan with its owning customer for the loan view.
// Business loan IDs are unique per customer only, so viewing one ID can
// legitimately return snapshots from several customers.
type LoanSnapshot struct {
	Loan     Loan
	Customer *customer.Customer
}

type LoanService interface {
	CheckEligibility(ctx context.Context, customerID int64, amount Money, interestRate float64, tenureMonths int) (*Decision, error)

	OriginateLoan(ctx context.Context, customerID int64, amount Money, interestRate float64, tenureMonths int) (*OriginationResult, error)

	ViewLoan(ctx context.Context, loanID int64) ([]LoanSnapshot, error)

	ViewActiveLoans(ctx context.Context, customerID int64) ([]Loan, error)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	engine          *Engine
	pub             event.EventPublisher
	logger          *slog.Logger
	now             func() time.Time
}

var _ LoanService = (*loanServiceImpl)(nil)

func NewLoanService(repo Repository, cs customer.CustomerService, engine *Engine, pub event.EventPublisher, logger *slog.Logger, now func() time.Time) LoanService {
	if repo == nil || cs == nil || engine == nil {
		panic("loan service dependencies cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &loanServiceImpl{
		repo:            repo,
		customerService: cs,
		engine:          engine,
		pub:             pub,
		logger:          logger.With(slog.String("component", "loanService")),
		now:             now,
	}
}

func (s *loanServiceImpl) CheckEligibility(ctx context.Context, customerID int64, amount Money, interestRate float64, tenureMonths int) (*Decision, error) {
	s.logger.InfoContext(ctx, "Checking loan eligibility", slog.Int64("customerID", customerID))

	if err := ValidateRequest(amount, interestRate, tenureMonths); err != nil {
		s.logger.WarnContext(ctx, "Eligibility request validation failed", slog.Any("error", err))
		return nil, err
	}

	cust, err := s.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return s.engine.Evaluate(ctx, cust, amount, interestRate, tenureMonths)
}

func (s *loanServiceImpl) OriginateLoan(ctx context.Context, customerID int64, amount Money, interestRate float64, tenureMonths int) (*OriginationResult, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Originating loan", slog.Float64("amount", amount))

	decision, err := s.CheckEligibility(ctx, customerID, amount, interestRate, tenureMonths)
	if err != nil {
		return nil, err
	}

	if !decision.Approved {
		logCtx.InfoContext(ctx, "Loan application rejected", slog.String("reason", decision.RejectionReason))
		return &OriginationResult{
			CustomerID: customerID,
			Approved:   false,
			Message:    decision.RejectionReason,
		}, nil
	}

	approvalDate := s.now().Truncate(24 * time.Hour)
	newLoan, err := NewLoan(customerID, amount, tenureMonths, decision.CorrectedRate, *decision.MonthlyInstallment, approvalDate)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build loan entity", slog.Any("error", err))
		return nil, err
	}

	created, err := s.repo.CreateLoan(ctx, newLoan)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logCtx.ErrorContext(ctx, "Loan ID assignment collision", slog.Any("error", err))
			return nil, fmt.Errorf("%w: loan identifier collision for customer %d", apperrors.ErrConflict, customerID)
		}
		logCtx.ErrorContext(ctx, "Failed to persist loan", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to persist loan: %v", apperrors.ErrInternalServer, err)
	}
	logCtx = logCtx.With(slog.Int64("loanID", created.LoanID))
	logCtx.InfoContext(ctx, "Loan originated")

	originatedEvent := event.LoanOriginatedEvent{
		Timestamp: s.now(),
		Payload: event.LoanEventPayload{
			LoanID:             created.LoanID,
			CustomerID:         created.CustomerID,
			LoanAmount:         created.LoanAmount,
			InterestRate:       created.InterestRate,
			TenureMonths:       created.TenureMonths,
			MonthlyInstallment: created.MonthlyRepayment,
			ApprovalDate:       created.ApprovalDate,
			EndDate:            created.EndDate,
		},
	}
	if pubErr := s.pub.PublishLoanOriginated(ctx, originatedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Loan originated, but FAILED to publish event", slog.Any("error", pubErr))
	}

	installment := created.MonthlyRepayment
	return &OriginationResult{
		LoanID:             created.LoanID,
		CustomerID:         customerID,
		Approved:           true,
		Message:            "Loan approved",
		MonthlyInstallment: &installment,
	}, nil
}

func (s *loanServiceImpl) ViewLoan(ctx context.Context, loanID int64) ([]LoanSnapshot, error) {
	s.logger.DebugContext(ctx, "Viewing loan", slog.Int64("loanID", loanID))

	loans, err := s.repo.FindByLoanID(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to find loans by ID", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to find loans with ID %d: %w", loanID, err)
	}
	if len(loans) == 0 {
		return nil, fmt.Errorf("%w: no loans found with ID %d", apperrors.ErrNotFound, loanID)
	}

	snapshots := make([]LoanSnapshot, 0, len(loans))
	for _, l := range loans {
		cust, err := s.customerService.GetCustomer(ctx, l.CustomerID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load owning customer for loan",
				slog.Int64("loanID", loanID), slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
			return nil, err
		}
		snapshots = append(snapshots, LoanSnapshot{Loan: l, Customer: cust})
	}
	return snapshots, nil
}

func (s *loanServiceImpl) ViewActiveLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	s.logger.DebugContext(ctx, "Viewing active loans", slog.Int64("customerID", customerID))

	// Customer existence first: an unknown customer is NOT_FOUND, an empty
	// book is a normal empty result.
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.FindActiveByCustomer(ctx, customerID, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to find active loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to find active loans for customer %d: %w", customerID, err)
	}
	return loans, nil
}
