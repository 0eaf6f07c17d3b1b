package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

// Approval tier thresholds and the rate floors they impose.
const (
	ScoreApproveAsRequested = 50
	ScoreMidTier            = 30
	ScoreLowTier            = 10

	MidTierRateFloor = 12.0
	LowTierRateFloor = 16.0

	// An EMI above this share of monthly income is unaffordable.
	AffordabilityShare = 0.5
)

// Rejection reasons carried on a Decision. These are domain outcomes, not
// system faults.
const (
	ReasonLimitExceeded = "customer has exceeded their approved credit limit"
	ReasonUnaffordable  = "monthly installment exceeds half of monthly income"
	ReasonLowScore      = "credit score too low"
)

// Decision is the outcome of an eligibility evaluation. MonthlyInstallment
// is only set when an installment was actually computed.
type Decision struct {
	CustomerID         int64
	RequestedRate      float64
	CorrectedRate      float64
	Approved           bool
	MonthlyInstallment *Money
	RejectionReason    string
}

// Engine evaluates loan eligibility. It is side-effect free: nothing is
// persisted, whatever the outcome.
type Engine struct {
	scorer *Scorer
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(scorer *Scorer, repo Repository, logger *slog.Logger, now func() time.Time) *Engine {
	if scorer == nil || repo == nil {
		panic("eligibility engine dependencies cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{
		scorer: scorer,
		repo:   repo,
		logger: logger.With(slog.String("component", "EligibilityEngine")),
		now:    now,
	}
}

// ValidateRequest enforces the field-level rules shared by eligibility
// checks and origination. First failure wins.
func ValidateRequest(amount Money, interestRate float64, tenureMonths int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: loan amount must be greater than 0", apperrors.ErrValidation)
	}
	if interestRate <= 0 {
		return fmt.Errorf("%w: interest rate must be greater than 0", apperrors.ErrValidation)
	}
	if interestRate > 100 {
		return fmt.Errorf("%w: interest rate cannot be greater than 100", apperrors.ErrValidation)
	}
	if tenureMonths < MinTenureMonths || tenureMonths > MaxTenureMonths {
		return fmt.Errorf("%w: tenure must be between %d and %d months", apperrors.ErrValidation, MinTenureMonths, MaxTenureMonths)
	}
	return nil
}

// Evaluate runs the full eligibility pipeline for an existing customer. The
// credit-limit check runs before any scoring work and short-circuits it.
func (e *Engine) Evaluate(ctx context.Context, cust *customer.Customer, amount Money, interestRate float64, tenureMonths int) (*Decision, error) {
	logCtx := e.logger.With(slog.Int64("customerID", cust.CustomerID))
	asOf := e.now()

	decision := &Decision{
		CustomerID:    cust.CustomerID,
		RequestedRate: interestRate,
		CorrectedRate: interestRate,
	}

	activePrincipal, err := e.repo.SumActivePrincipal(ctx, cust.CustomerID, asOf)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to sum active principal", slog.Any("error", err))
		return nil, fmt.Errorf("failed to sum active principal for customer %d: %w", cust.CustomerID, err)
	}
	if activePrincipal+amount > cust.ApprovedLimit {
		logCtx.InfoContext(ctx, "Rejected: approved credit limit exceeded",
			slog.Float64("activePrincipal", activePrincipal),
			slog.Float64("requestedAmount", amount),
			slog.Float64("approvedLimit", cust.ApprovedLimit))
		decision.RejectionReason = ReasonLimitExceeded
		return decision, nil
	}

	score, err := e.scorer.Score(ctx, cust, amount, asOf)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With(slog.Int("creditScore", score))

	switch {
	case score > ScoreApproveAsRequested:
		decision.Approved = true
	case score > ScoreMidTier:
		decision.Approved = true
		if interestRate <= MidTierRateFloor {
			decision.CorrectedRate = MidTierRateFloor
		}
	case score > ScoreLowTier:
		decision.Approved = true
		if interestRate <= LowTierRateFloor {
			decision.CorrectedRate = LowTierRateFloor
		}
	default:
		logCtx.InfoContext(ctx, "Rejected: credit score too low")
		decision.RejectionReason = ReasonLowScore
		return decision, nil
	}

	installment := CalculateEMI(amount, decision.CorrectedRate, tenureMonths)
	if installment > cust.MonthlySalary*AffordabilityShare {
		logCtx.InfoContext(ctx, "Rejected: installment exceeds affordability threshold",
			slog.Float64("installment", installment),
			slog.Float64("monthlySalary", cust.MonthlySalary))
		decision.Approved = false
		decision.RejectionReason = ReasonUnaffordable
		return decision, nil
	}

	decision.MonthlyInstallment = &installment
	logCtx.InfoContext(ctx, "Loan approved",
		slog.Float64("correctedRate", decision.CorrectedRate),
		slog.Float64("installment", installment))
	return decision, nil
}
