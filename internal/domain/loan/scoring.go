package loan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"credit-engine/internal/domain/customer"
)

// Credit score weights. One point per full lakh of historical volume.
const (
	scorePerEMIPaidOnTime = 10
	scorePerLoan          = 5
	scorePerRecentLoan    = 2
	volumeUnit            = 100_000.0
)

// Scorer derives an internal credit score from a customer's loan history.
// It never persists anything.
type Scorer struct {
	repo   Repository
	logger *slog.Logger
}

func NewScorer(repo Repository, logger *slog.Logger) *Scorer {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	return &Scorer{
		repo:   repo,
		logger: logger.With(slog.String("component", "Scorer")),
	}
}

// Score computes the credit score for a customer requesting an additional
// loan amount, evaluated at asOf. The score is forced to zero when the
// customer's active principal plus the requested amount would exceed the
// approved limit.
func (s *Scorer) Score(ctx context.Context, cust *customer.Customer, requestedAmount Money, asOf time.Time) (int, error) {
	logCtx := s.logger.With(slog.Int64("customerID", cust.CustomerID))

	summary, err := s.repo.GetHistorySummary(ctx, cust.CustomerID, asOf.Year())
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to aggregate loan history", slog.Any("error", err))
		return 0, fmt.Errorf("failed to aggregate loan history for customer %d: %w", cust.CustomerID, err)
	}

	score := summary.EMIsPaidOnTime*scorePerEMIPaidOnTime +
		summary.TotalLoans*scorePerLoan +
		summary.LoansThisYear*scorePerRecentLoan +
		int(math.Floor(summary.TotalVolume/volumeUnit))

	activePrincipal, err := s.repo.SumActivePrincipal(ctx, cust.CustomerID, asOf)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to sum active principal", slog.Any("error", err))
		return 0, fmt.Errorf("failed to sum active principal for customer %d: %w", cust.CustomerID, err)
	}

	if activePrincipal+requestedAmount > cust.ApprovedLimit {
		logCtx.InfoContext(ctx, "Active principal plus request exceeds approved limit, forcing score to zero",
			slog.Float64("activePrincipal", activePrincipal),
			slog.Float64("requestedAmount", requestedAmount),
			slog.Float64("approvedLimit", cust.ApprovedLimit))
		return 0, nil
	}

	logCtx.DebugContext(ctx, "Credit score computed", slog.Int("score", score))
	return score, nil
}
