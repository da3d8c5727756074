package customer

import (
	"context"
)

// Repository is the customer part of the ledger store. Lookups of a missing
// id fail with apperrors.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	ListByOwner(ctx context.Context, ownerID string) ([]*Customer, error)

	Update(ctx context.Context, customer *Customer) error

	Delete(ctx context.Context, customerID int64) error
}
