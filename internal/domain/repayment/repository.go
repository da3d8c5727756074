package repayment

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	CreateInTx(ctx context.Context, tx pgx.Tx, repayment *Repayment) error
	FindByID(ctx context.Context, repaymentID int64) (*Repayment, error)
	Update(ctx context.Context, repayment *Repayment) error
	Delete(ctx context.Context, repaymentID int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Repayment, error)
	ListByLoan(ctx context.Context, ownerID string, loanID int64) ([]*Repayment, error)
}
