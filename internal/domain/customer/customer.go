package customer

import (
	"credit-engine/internal/pkg/apperrors"
	"fmt"
	"math"
	"regexp"
	"time"
)

const (
	MinAge = 18
	MaxAge = 100

	// Approved limit is monthly salary times this factor, rounded to the
	// nearest LimitRoundingUnit.
	LimitSalaryFactor = 36
	LimitRoundingUnit = 100_000.0
)

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

type Customer struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Age           int
	PhoneNumber   string
	MonthlySalary float64
	ApprovedLimit float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewCustomer builds a customer with the approved limit derived from the
// monthly salary. The limit is never accepted from callers.
func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlySalary float64) (*Customer, error) {
	c := &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlySalary,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.ApprovedLimit = DeriveApprovedLimit(monthlySalary)
	return c, nil
}

// DeriveApprovedLimit computes monthly salary x 36 rounded to the nearest
// hundred thousand.
func DeriveApprovedLimit(monthlySalary float64) float64 {
	return math.Round(monthlySalary*LimitSalaryFactor/LimitRoundingUnit) * LimitRoundingUnit
}

// SetMonthlyIncome updates the salary and re-derives the approved limit.
func (c *Customer) SetMonthlyIncome(monthlySalary float64) error {
	if monthlySalary <= 0 {
		return fmt.Errorf("%w: monthly salary must be positive", apperrors.ErrValidation)
	}
	c.MonthlySalary = monthlySalary
	c.ApprovedLimit = DeriveApprovedLimit(monthlySalary)
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

func (c *Customer) validate() error {
	if c.FirstName == "" {
		return fmt.Errorf("%w: first name is required", apperrors.ErrValidation)
	}
	if c.LastName == "" {
		return fmt.Errorf("%w: last name is required", apperrors.ErrValidation)
	}
	if c.Age < MinAge || c.Age > MaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", apperrors.ErrValidation, MinAge, MaxAge)
	}
	if c.MonthlySalary <= 0 {
		return fmt.Errorf("%w: monthly salary must be positive", apperrors.ErrValidation)
	}
	if !phonePattern.MatchString(c.PhoneNumber) {
		return fmt.Errorf("%w: phone number must contain 10 to 15 digits with an optional leading +", apperrors.ErrValidation)
	}
	return nil
}
