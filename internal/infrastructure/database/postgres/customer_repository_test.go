package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func testCustomer() *customer.Customer {
	return &customer.Customer{
		CustomerID:    1,
		FirstName:     "Aarav",
		LastName:      "Sharma",
		Age:           32,
		PhoneNumber:   "+919876543210",
		MonthlySalary: 117000,
		ApprovedLimit: 4_200_000,
		CreatedAt:     time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewCustomerRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestSaveNewCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := testCustomer()
	cust.CustomerID = 0

	query := `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_salary, approved_limit, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(int64(1), cust.CreatedAt, cust.UpdatedAt))

	err := repo.Save(ctx, cust)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), cust.CustomerID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveNewCustomerWhenPhoneNumberTaken(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := testCustomer()
	cust.CustomerID = 0

	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO customers")).WithArgs(
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
	).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customers_phone_number_key"})

	err := repo.Save(ctx, cust)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := testCustomer()

	query := `
        UPDATE customers
        SET first_name = $1,
            last_name = $2,
            age = $3,
            phone_number = $4,
            monthly_salary = $5,
            approved_limit = $6,
            updated_at = NOW()
        WHERE id = $7`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CustomerID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Save(ctx, cust)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := testCustomer()
	cust.CustomerID = 99

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE customers")).
		WithArgs(cust.FirstName, cust.LastName, cust.Age, cust.PhoneNumber, cust.MonthlySalary, cust.ApprovedLimit, cust.CustomerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Save(ctx, cust)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCustomerByIDReturnsOne(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := testCustomer()

	query := `
        SELECT id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, created_at, updated_at
        FROM customers
        WHERE id = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(cust.CustomerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "age", "phone_number", "monthly_salary", "approved_limit", "created_at", "updated_at"}).
			AddRow(cust.CustomerID, cust.FirstName, cust.LastName, cust.Age, cust.PhoneNumber, cust.MonthlySalary, cust.ApprovedLimit, cust.CreatedAt, cust.UpdatedAt))

	found, err := repo.FindByID(ctx, cust.CustomerID)
	assert.NoError(t, err)
	assert.Equal(t, cust.PhoneNumber, found.PhoneNumber)
	assert.Equal(t, cust.ApprovedLimit, found.ApprovedLimit)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCustomerByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name")).WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestExistsByPhoneNumber(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE phone_number = $1)`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("+919876543210").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByPhoneNumber(ctx, "+919876543210")
	assert.NoError(t, err)
	assert.True(t, exists)

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("+910000000000").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = repo.ExistsByPhoneNumber(ctx, "+910000000000")
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = $1`)).WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(ctx, 1)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteCustomerWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = $1`)).WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
