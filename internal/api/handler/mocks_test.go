package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"loan-ledger/internal/api/middleware"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/ownership"
	"loan-ledger/internal/domain/repayment"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

const alice = ownership.Principal("alice")

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) ListCustomers(ctx context.Context, principal ownership.Principal) ([]*customer.Customer, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, principal ownership.Principal, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, principal, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) CreateCustomer(ctx context.Context, principal ownership.Principal, in customer.CreateInput) (*customer.Customer, error) {
	args := m.Called(ctx, principal, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) UpdateCustomer(ctx context.Context, principal ownership.Principal, customerID int64, in customer.UpdateInput) (*customer.Customer, error) {
	args := m.Called(ctx, principal, customerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, principal ownership.Principal, customerID int64) error {
	return m.Called(ctx, principal, customerID).Error(0)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) loanList(args mock.Arguments) ([]*loan.Loan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loan.Loan), args.Error(1)
}

func (m *MockLoanService) oneLoan(args mock.Arguments) (*loan.Loan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, principal ownership.Principal) ([]*loan.Loan, error) {
	return m.loanList(m.Called(ctx, principal))
}

func (m *MockLoanService) ListCustomerLoans(ctx context.Context, principal ownership.Principal, customerID int64) ([]*loan.Loan, error) {
	return m.loanList(m.Called(ctx, principal, customerID))
}

func (m *MockLoanService) GetLoan(ctx context.Context, principal ownership.Principal, loanID int64) (*loan.Loan, error) {
	return m.oneLoan(m.Called(ctx, principal, loanID))
}

func (m *MockLoanService) CreateLoan(ctx context.Context, principal ownership.Principal, customerID int64, in loan.CreateInput) (*loan.Loan, error) {
	return m.oneLoan(m.Called(ctx, principal, customerID, in))
}

func (m *MockLoanService) UpdateLoan(ctx context.Context, principal ownership.Principal, loanID int64, in loan.UpdateInput) (*loan.Loan, error) {
	return m.oneLoan(m.Called(ctx, principal, loanID, in))
}

func (m *MockLoanService) DeleteLoan(ctx context.Context, principal ownership.Principal, loanID int64) error {
	return m.Called(ctx, principal, loanID).Error(0)
}

func (m *MockLoanService) Summary(ctx context.Context, principal ownership.Principal) (loan.Summary, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(loan.Summary), args.Error(1)
}

func (m *MockLoanService) OverdueLoans(ctx context.Context, principal ownership.Principal) ([]*loan.Loan, error) {
	return m.loanList(m.Called(ctx, principal))
}

type MockRepaymentService struct {
	mock.Mock
}

func (m *MockRepaymentService) repaymentList(args mock.Arguments) ([]*repayment.Repayment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentService) oneRepayment(args mock.Arguments) (*repayment.Repayment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentService) ListRepayments(ctx context.Context, principal ownership.Principal) ([]*repayment.Repayment, error) {
	return m.repaymentList(m.Called(ctx, principal))
}

func (m *MockRepaymentService) ListLoanRepayments(ctx context.Context, principal ownership.Principal, loanID int64) ([]*repayment.Repayment, error) {
	return m.repaymentList(m.Called(ctx, principal, loanID))
}

func (m *MockRepaymentService) GetRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64) (*repayment.Repayment, error) {
	return m.oneRepayment(m.Called(ctx, principal, repaymentID))
}

func (m *MockRepaymentService) CreateRepayment(ctx context.Context, principal ownership.Principal, loanID int64, in repayment.CreateInput) (*repayment.Repayment, error) {
	return m.oneRepayment(m.Called(ctx, principal, loanID, in))
}

func (m *MockRepaymentService) UpdateRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64, in repayment.UpdateInput) (*repayment.Repayment, error) {
	return m.oneRepayment(m.Called(ctx, principal, repaymentID, in))
}

func (m *MockRepaymentService) DeleteRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64) error {
	return m.Called(ctx, principal, repaymentID).Error(0)
}

// newRequest builds a request as the router would hand it to a handler:
// route params resolved and, when principal is non-empty, authenticated.
func newRequest(method, target, body string, principal ownership.Principal, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if principal != "" {
		ctx = middleware.WithPrincipal(ctx, principal)
	}
	return req.WithContext(ctx)
}
