package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"
)

const dateLayout = "02/01/2006"

// CustomerImporter seeds customers keeping their existing IDs.
type CustomerImporter interface {
	ImportCustomer(ctx context.Context, cust *customer.Customer) error
	SyncIDSequence(ctx context.Context) error
}

// LoanImporter seeds loans keeping their existing business IDs.
type LoanImporter interface {
	ImportLoan(ctx context.Context, l *loan.Loan) error
}

// IngestJob loads historical customer and loan data from CSV files.
// Customers load first so loan rows can resolve their owner; rows that
// fail to parse or violate constraints are skipped, not fatal.
type IngestJob struct {
	customers CustomerImporter
	loans     LoanImporter
	cfg       config.BatchConfig
	logger    *slog.Logger
}

func NewIngestJob(customers CustomerImporter, loans LoanImporter, cfg config.BatchConfig, logger *slog.Logger) *IngestJob {
	if customers == nil || loans == nil || logger == nil {
		panic("IngestJob dependencies cannot be nil")
	}
	return &IngestJob{
		customers: customers,
		loans:     loans,
		cfg:       cfg,
		logger:    logger.With("job", "Ingest"),
	}
}

func (j *IngestJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting historical data ingestion job.")

	custStats, err := j.ingestCustomers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Customer ingestion failed, aborting job.", slog.Any("error", err))
		return fmt.Errorf("customer ingestion failed: %w", err)
	}

	if err := j.customers.SyncIDSequence(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Failed to realign customer ID sequence.", slog.Any("error", err))
		return err
	}

	loanStats, err := j.ingestLoans(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Loan ingestion failed, aborting job.", slog.Any("error", err))
		return fmt.Errorf("loan ingestion failed: %w", err)
	}

	j.logger.InfoContext(ctx, "Historical data ingestion job finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_ingested", custStats.ingested),
		slog.Int("customers_skipped", custStats.skipped),
		slog.Int("loans_ingested", loanStats.ingested),
		slog.Int("loans_skipped", loanStats.skipped),
	)
	return nil
}

type ingestStats struct {
	ingested int
	skipped  int
}

func (j *IngestJob) ingestCustomers(ctx context.Context) (ingestStats, error) {
	var stats ingestStats

	err := j.readCSV(j.cfg.CustomerDataPath, func(line int, record []string) {
		cust, err := parseCustomerRecord(record)
		if err != nil {
			j.logger.WarnContext(ctx, "Skipping malformed customer row.", slog.Int("line", line), slog.Any("error", err))
			stats.skipped++
			return
		}

		if err := j.customers.ImportCustomer(ctx, cust); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				j.logger.DebugContext(ctx, "Customer already present, skipping.", slog.Int64("customerID", cust.CustomerID))
			} else {
				j.logger.WarnContext(ctx, "Skipping customer row that failed to import.", slog.Int("line", line), slog.Any("error", err))
			}
			stats.skipped++
			return
		}
		stats.ingested++
	})

	return stats, err
}

func (j *IngestJob) ingestLoans(ctx context.Context) (ingestStats, error) {
	var stats ingestStats

	err := j.readCSV(j.cfg.LoanDataPath, func(line int, record []string) {
		l, err := parseLoanRecord(record)
		if err != nil {
			j.logger.WarnContext(ctx, "Skipping malformed loan row.", slog.Int("line", line), slog.Any("error", err))
			stats.skipped++
			return
		}

		if err := j.loans.ImportLoan(ctx, l); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAlreadyExists):
				j.logger.DebugContext(ctx, "Loan already present, skipping.", slog.Int64("loanID", l.LoanID))
			case errors.Is(err, apperrors.ErrInvalidArgument):
				j.logger.WarnContext(ctx, "Skipping loan row with no matching customer.", slog.Int("line", line), slog.Int64("customerID", l.CustomerID))
			default:
				j.logger.WarnContext(ctx, "Skipping loan row that failed to import.", slog.Int("line", line), slog.Any("error", err))
			}
			stats.skipped++
			return
		}
		stats.ingested++
	})

	return stats, err
}

// readCSV streams the file row by row, skipping the header line.
func (j *IngestJob) readCSV(path string, handle func(line int, record []string)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open data file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed reading %s at line %d: %w", path, line+1, err)
		}
		line++
		if line == 1 {
			continue
		}
		handle(line, record)
	}
}

// parseCustomerRecord expects columns: customer_id, first_name, last_name,
// age, phone_number, monthly_salary, approved_limit.
func parseCustomerRecord(record []string) (*customer.Customer, error) {
	if len(record) < 7 {
		return nil, fmt.Errorf("expected 7 columns, got %d", len(record))
	}

	customerID, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id %q: %w", record[0], err)
	}
	age, err := strconv.Atoi(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid age %q: %w", record[3], err)
	}
	salary, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly_salary %q: %w", record[5], err)
	}
	limit, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid approved_limit %q: %w", record[6], err)
	}

	return &customer.Customer{
		CustomerID:    customerID,
		FirstName:     record[1],
		LastName:      record[2],
		Age:           age,
		PhoneNumber:   record[4],
		MonthlySalary: salary,
		ApprovedLimit: limit,
	}, nil
}

// parseLoanRecord expects columns: customer_id, loan_id, loan_amount,
// tenure, interest_rate, monthly_repayment, emis_paid_on_time,
// start_date, end_date. Dates are dd/mm/yyyy.
func parseLoanRecord(record []string) (*loan.Loan, error) {
	if len(record) < 9 {
		return nil, fmt.Errorf("expected 9 columns, got %d", len(record))
	}

	customerID, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id %q: %w", record[0], err)
	}
	loanID, err := strconv.ParseInt(record[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid loan_id %q: %w", record[1], err)
	}
	amount, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid loan_amount %q: %w", record[2], err)
	}
	tenure, err := strconv.Atoi(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid tenure %q: %w", record[3], err)
	}
	rate, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid interest_rate %q: %w", record[4], err)
	}
	repayment, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly_repayment %q: %w", record[5], err)
	}
	emisPaid, err := strconv.Atoi(record[6])
	if err != nil {
		return nil, fmt.Errorf("invalid emis_paid_on_time %q: %w", record[6], err)
	}
	startDate, err := time.Parse(dateLayout, record[7])
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", record[7], err)
	}
	endDate, err := time.Parse(dateLayout, record[8])
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: %w", record[8], err)
	}

	return &loan.Loan{
		LoanID:           loanID,
		CustomerID:       customerID,
		LoanAmount:       amount,
		TenureMonths:     tenure,
		InterestRate:     rate,
		MonthlyRepayment: repayment,
		EMIsPaidOnTime:   emisPaid,
		ApprovalDate:     startDate,
		EndDate:          endDate,
	}, nil
}
