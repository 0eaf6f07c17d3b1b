package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/pkg/apperrors"
)

type CustomerService interface {
	RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*Customer, error)

	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	UpdateMonthlyIncome(ctx context.Context, customerID int64, monthlyIncome float64) (*Customer, error)

	DeleteCustomer(ctx context.Context, customerID int64) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, pub event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	cust, err := NewCustomer(firstName, lastName, age, phoneNumber, monthlyIncome)
	if err != nil {
		s.logger.WarnContext(ctx, "Customer validation failed", slog.Any("error", err))
		return nil, err
	}

	// Friendly pre-check; the unique constraint on phone_number remains
	// the authoritative guard against a concurrent registration.
	exists, err := s.repo.ExistsByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to check phone number uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check phone number uniqueness: %w", err)
	}
	if exists {
		s.logger.WarnContext(ctx, "Phone number already registered")
		return nil, fmt.Errorf("%w: %s", ErrPhoneAlreadyRegistered, phoneNumber)
	}

	if err := s.repo.Save(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Lost registration race on phone number", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %s", ErrPhoneAlreadyRegistered, phoneNumber)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	logCtx := s.logger.With(slog.Int64("customerID", cust.CustomerID))
	logCtx.InfoContext(ctx, "Successfully registered new customer, publishing event")

	registeredEvent := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload:   newCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registeredEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish event", slog.Any("error", pubErr))
	}

	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.DebugContext(ctx, "Fetching customer", slog.Int64("customerID", customerID))

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository failed to find customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}
	return cust, nil
}

func (s *customerService) UpdateMonthlyIncome(ctx context.Context, customerID int64, monthlyIncome float64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Updating monthly income", slog.Float64("monthlyIncome", monthlyIncome))

	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// Recompute-on-save: the approved limit follows the income.
	if err := cust.SetMonthlyIncome(monthlyIncome); err != nil {
		logCtx.WarnContext(ctx, "Income validation failed", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Save(ctx, cust); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to update customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Monthly income updated", slog.Float64("approvedLimit", cust.ApprovedLimit))
	return cust, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Deleting customer")

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found for deletion")
			return fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		logCtx.ErrorContext(ctx, "Repository failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Customer deleted, owned loans cascade")
	return nil
}

func newCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:    cust.CustomerID,
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlySalary: cust.MonthlySalary,
		ApprovedLimit: cust.ApprovedLimit,
	}
}
