package repayment

import (
	"context"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/ownership"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type TxMock struct {
	pgx.Tx
}

var tx pgx.Tx = &TxMock{}

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) CreateInTx(ctx context.Context, tx pgx.Tx, repayment *Repayment) error {
	return m.Called(ctx, tx, repayment).Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, repaymentID int64) (*Repayment, error) {
	args := m.Called(ctx, repaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Repayment), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, repayment *Repayment) error {
	return m.Called(ctx, repayment).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, repaymentID int64) error {
	return m.Called(ctx, repaymentID).Error(0)
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Repayment, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Repayment), args.Error(1)
}

func (m *MockRepository) ListByLoan(ctx context.Context, ownerID string, loanID int64) ([]*Repayment, error) {
	args := m.Called(ctx, ownerID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Repayment), args.Error(1)
}

// MockLoanRepository covers the loan store calls the repayment flow makes.
type MockLoanRepository struct {
	mock.Mock
	loan.Repository
}

func (m *MockLoanRepository) MarkPaidInTx(ctx context.Context, tx pgx.Tx, loanID int64) (bool, error) {
	args := m.Called(ctx, tx, loanID)
	return args.Bool(0), args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

var _ loan.LoanService = (*MockLoanService)(nil)

func (m *MockLoanService) ListLoans(ctx context.Context, principal ownership.Principal) ([]*loan.Loan, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loan.Loan), args.Error(1)
}

func (m *MockLoanService) ListCustomerLoans(ctx context.Context, principal ownership.Principal, customerID int64) ([]*loan.Loan, error) {
	args := m.Called(ctx, principal, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loan.Loan), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, principal ownership.Principal, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, principal, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, principal ownership.Principal, customerID int64, in loan.CreateInput) (*loan.Loan, error) {
	args := m.Called(ctx, principal, customerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanService) UpdateLoan(ctx context.Context, principal ownership.Principal, loanID int64, in loan.UpdateInput) (*loan.Loan, error) {
	args := m.Called(ctx, principal, loanID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanService) DeleteLoan(ctx context.Context, principal ownership.Principal, loanID int64) error {
	return m.Called(ctx, principal, loanID).Error(0)
}

func (m *MockLoanService) Summary(ctx context.Context, principal ownership.Principal) (loan.Summary, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(loan.Summary), args.Error(1)
}

func (m *MockLoanService) OverdueLoans(ctx context.Context, principal ownership.Principal) ([]*loan.Loan, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loan.Loan), args.Error(1)
}

