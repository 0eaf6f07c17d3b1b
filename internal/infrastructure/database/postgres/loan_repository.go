package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `loan_id, customer_id, loan_amount, tenure_months, interest_rate, monthly_repayment, emis_paid_on_time, approval_date, end_date, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

// CreateLoan assigns the business loan ID inside the INSERT itself so two
// concurrent originations can never read the same MAX. The loser of a
// same-instant race trips the (customer_id, loan_id) unique constraint and
// gets ErrAlreadyExists back.
func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	logCtx := r.logger.With(slog.Int64("customerID", newLoan.CustomerID))
	logCtx.InfoContext(ctx, "Attempting to insert loan", slog.Float64("amount", newLoan.LoanAmount))

	query := `
        INSERT INTO loans (loan_id, customer_id, loan_amount, tenure_months, interest_rate, monthly_repayment, emis_paid_on_time, approval_date, end_date, created_at, updated_at)
        SELECT COALESCE(MAX(l.loan_id) + 1, $1), $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
        FROM loans l
        RETURNING loan_id, created_at, updated_at`

	created := *newLoan
	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		loan.LoanIDFloor,
		newLoan.CustomerID,
		newLoan.LoanAmount,
		newLoan.TenureMonths,
		newLoan.InterestRate,
		newLoan.MonthlyRepayment,
		newLoan.EMIsPaidOnTime,
		newLoan.ApprovalDate,
		newLoan.EndDate,
	).Scan(
		&created.LoanID,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	monitoring.RecordDBQuery("loan_insert", queryStatus(err), time.Since(start))

	if err != nil {
		translatedErr := translateDBError(err, logCtx)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Loan ID assignment lost a concurrent race", slog.Any("error", err))
			return nil, translatedErr
		}
		logCtx.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	logCtx.InfoContext(ctx, "Loan created in DB", slog.Int64("loanID", created.LoanID))
	return &created, nil
}

// ImportLoan inserts a historical loan keeping its existing business ID.
// Duplicate rows report ErrAlreadyExists; rows referencing an unknown
// customer report ErrInvalidArgument so seeding can skip and keep going.
func (r *LoanRepository) ImportLoan(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO loans (loan_id, customer_id, loan_amount, tenure_months, interest_rate, monthly_repayment, emis_paid_on_time, approval_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT DO NOTHING`

	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, query,
		l.LoanID,
		l.CustomerID,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.ApprovalDate,
		l.EndDate,
	)
	monitoring.RecordDBQuery("loan_import", queryStatus(err), time.Since(start))

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: customer %d does not exist", apperrors.ErrInvalidArgument, l.CustomerID)
		}
		r.logger.ErrorContext(ctx, "Failed to import loan", slog.Int64("loanID", l.LoanID), slog.Any("error", err))
		return fmt.Errorf("%w: failed to import loan: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyExists
	}
	return nil
}

func (r *LoanRepository) FindByLoanID(ctx context.Context, loanID int64) ([]loan.Loan, error) {
	logCtx := r.logger.With(slog.Int64("loanID", loanID))
	logCtx.DebugContext(ctx, "Attempting to find loans by business ID")

	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE loan_id = $1
        ORDER BY customer_id`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, loanID)
	monitoring.RecordDBQuery("loan_find_by_loan_id", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query loans by business ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query loans by ID: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanLoans(ctx, rows, logCtx)
}

func (r *LoanRepository) FindActiveByCustomer(ctx context.Context, customerID int64, asOf time.Time) ([]loan.Loan, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Attempting to find active loans")

	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1 AND end_date >= $2
        ORDER BY loan_id`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, customerID, asOf)
	monitoring.RecordDBQuery("loan_find_active", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query active loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query active loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanLoans(ctx, rows, logCtx)
}

func (r *LoanRepository) GetHistorySummary(ctx context.Context, customerID int64, year int) (*loan.HistorySummary, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Aggregating loan history", slog.Int("year", year))

	query := `
        SELECT
            COALESCE(SUM(emis_paid_on_time), 0),
            COUNT(*),
            COUNT(*) FILTER (WHERE EXTRACT(YEAR FROM approval_date) = $2),
            COALESCE(SUM(loan_amount), 0)
        FROM loans
        WHERE customer_id = $1`

	var summary loan.HistorySummary
	start := time.Now()
	err := r.db.QueryRow(ctx, query, customerID, year).Scan(
		&summary.EMIsPaidOnTime,
		&summary.TotalLoans,
		&summary.LoansThisYear,
		&summary.TotalVolume,
	)
	monitoring.RecordDBQuery("loan_history_summary", queryStatus(err), time.Since(start))

	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to aggregate loan history", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to aggregate loan history: %w", apperrors.ErrDatabase, err)
	}

	return &summary, nil
}

func (r *LoanRepository) SumActivePrincipal(ctx context.Context, customerID int64, asOf time.Time) (loan.Money, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Summing active principal")

	query := `
        SELECT COALESCE(SUM(loan_amount), 0)
        FROM loans
        WHERE customer_id = $1 AND end_date >= $2`

	var total loan.Money
	start := time.Now()
	err := r.db.QueryRow(ctx, query, customerID, asOf).Scan(&total)
	monitoring.RecordDBQuery("loan_sum_active_principal", queryStatus(err), time.Since(start))

	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to sum active principal", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to sum active principal: %w", apperrors.ErrDatabase, err)
	}

	return total, nil
}

func (r *LoanRepository) scanLoans(ctx context.Context, rows pgx.Rows, logCtx *slog.Logger) ([]loan.Loan, error) {
	loans := make([]loan.Loan, 0)
	for rows.Next() {
		var l loan.Loan
		err := rows.Scan(
			&l.LoanID,
			&l.CustomerID,
			&l.LoanAmount,
			&l.TenureMonths,
			&l.InterestRate,
			&l.MonthlyRepayment,
			&l.EMIsPaidOnTime,
			&l.ApprovalDate,
			&l.EndDate,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan loan row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating loan rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating loan rows: %w", apperrors.ErrDatabase, err)
	}

	return loans, nil
}

func queryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
