package loan

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	Create(ctx context.Context, loan *Loan) error
	FindByID(ctx context.Context, loanID int64) (*Loan, error)
	// Update saves loan only while its stored status is still expected.
	Update(ctx context.Context, loan *Loan, expected Status) error
	Delete(ctx context.Context, loanID int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Loan, error)
	ListByCustomer(ctx context.Context, ownerID string, customerID int64) ([]*Loan, error)
	ListOverdue(ctx context.Context, ownerID string, now time.Time) ([]*Loan, error)
	ListOwnersWithOverdue(ctx context.Context, now time.Time) ([]string, error)
	// MarkPaidInTx sets the loan to paid inside tx. It reports false when the
	// loan was already paid.
	MarkPaidInTx(ctx context.Context, tx pgx.Tx, loanID int64) (bool, error)
}
