package customer

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("customer not found")

	ErrPhoneAlreadyRegistered = errors.New("phone number already registered")
)

type CustomerRepository interface {
	// Save inserts the customer when CustomerID is zero and updates it
	// otherwise. The phone number unique constraint is the authoritative
	// guard against concurrent registration; a violation surfaces as
	// apperrors.ErrAlreadyExists.
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error)

	// Delete removes the customer; owned loans cascade at the store level.
	Delete(ctx context.Context, customerID int64) error
}
