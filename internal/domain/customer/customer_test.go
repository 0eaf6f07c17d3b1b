package customer_test

import (
	"testing"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestNewCustomer(t *testing.T) {
	cust, err := customer.NewCustomer("Aarav", "Sharma", 32, "+911234567890", 117000)

	assert.NoError(t, err)
	assert.NotNil(t, cust, "NewCustomer should return a non-nil customer")

	assert.Equal(t, "Aarav", cust.FirstName)
	assert.Equal(t, "Sharma", cust.LastName)
	assert.Equal(t, 32, cust.Age)
	assert.Equal(t, "+911234567890", cust.PhoneNumber)
	assert.Equal(t, 117000.0, cust.MonthlySalary)
	assert.Equal(t, int64(0), cust.CustomerID, "CustomerID should be initialized to 0")

	// 117000 * 36 = 4,212,000 which rounds down to the nearest lakh.
	assert.Equal(t, 4_200_000.0, cust.ApprovedLimit)
}

func TestNewCustomerValidation(t *testing.T) {
	tests := []struct {
		name      string
		firstName string
		lastName  string
		age       int
		phone     string
		salary    float64
	}{
		{"empty first name", "", "Sharma", 30, "9876543210", 50000},
		{"empty last name", "Aarav", "", 30, "9876543210", 50000},
		{"age below 18", "Aarav", "Sharma", 17, "9876543210", 50000},
		{"age above 100", "Aarav", "Sharma", 101, "9876543210", 50000},
		{"zero salary", "Aarav", "Sharma", 30, "9876543210", 0},
		{"negative salary", "Aarav", "Sharma", 30, "9876543210", -100},
		{"phone too short", "Aarav", "Sharma", 30, "123456789", 50000},
		{"phone too long", "Aarav", "Sharma", 30, "1234567890123456", 50000},
		{"phone with letters", "Aarav", "Sharma", 30, "98765abc10", 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cust, err := customer.NewCustomer(tt.firstName, tt.lastName, tt.age, tt.phone, tt.salary)
			assert.Nil(t, cust)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestDeriveApprovedLimit(t *testing.T) {
	tests := []struct {
		name     string
		salary   float64
		expected float64
	}{
		{"rounds down", 117000, 4_200_000},           // 4,212,000
		{"rounds up", 118500, 4_300_000},             // 4,266,000
		{"exact boundary", 100000, 3_600_000},        // 3,600,000
		{"just above half unit", 115278, 4_200_000},  // 4,150,008
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, customer.DeriveApprovedLimit(tt.salary))
		})
	}
}

func TestSetMonthlyIncomeRecomputesLimit(t *testing.T) {
	cust, err := customer.NewCustomer("Meera", "Iyer", 41, "9876543210", 50000)
	assert.NoError(t, err)
	assert.Equal(t, 1_800_000.0, cust.ApprovedLimit)

	err = cust.SetMonthlyIncome(117000)
	assert.NoError(t, err)
	assert.Equal(t, 117000.0, cust.MonthlySalary)
	assert.Equal(t, 4_200_000.0, cust.ApprovedLimit, "limit must follow the income")
}

func TestSetMonthlyIncomeRejectsNonPositive(t *testing.T) {
	cust, err := customer.NewCustomer("Meera", "Iyer", 41, "9876543210", 50000)
	assert.NoError(t, err)

	err = cust.SetMonthlyIncome(0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 50000.0, cust.MonthlySalary, "failed update must not change the salary")
	assert.Equal(t, 1_800_000.0, cust.ApprovedLimit)
}

func TestFullName(t *testing.T) {
	cust, err := customer.NewCustomer("Aarav", "Sharma", 32, "9876543210", 60000)
	assert.NoError(t, err)
	assert.Equal(t, "Aarav Sharma", cust.FullName())
}
