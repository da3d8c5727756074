package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLoanHandler() (*LoanHandler, *MockLoanService) {
	h, svc, _ := newLoanHandlerWithCustomers()
	return h, svc
}

func newLoanHandlerWithCustomers() (*LoanHandler, *MockLoanService, *MockCustomerService) {
	svc := new(MockLoanService)
	customers := new(MockCustomerService)
	return NewLoanHandler(svc, customers, testLogger), svc, customers
}

func sampleLoan() *loan.Loan {
	return &loan.Loan{
		ID:          12,
		Amount:      2000,
		Description: "fertiliser",
		DueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      loan.StatusOverdue,
		CustomerID:  5,
		OwnerID:     "alice",
		Customer:    &loan.CustomerRef{Name: "Ravi", Phone: "9876543210"},
	}
}

type loanEnvelope struct {
	Success bool             `json:"success"`
	Data    dto.LoanResponse `json:"data"`
}

func TestLoanHandlerCreateLoan(t *testing.T) {
	params := map[string]string{customerIDParam: "5"}

	t.Run("accepts string amounts and bare dates", func(t *testing.T) {
		h, svc := newLoanHandler()
		want := loan.CreateInput{Amount: 2000.5, Description: "fertiliser", DueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		svc.On("CreateLoan", mock.Anything, alice, int64(5), mock.MatchedBy(func(in loan.CreateInput) bool {
			return in.Amount == want.Amount && in.Description == want.Description && in.DueDate.Equal(want.DueDate)
		})).Return(sampleLoan(), nil).Once()

		body := `{"amount":"2000.50","description":"fertiliser","dueDate":"2024-01-01"}`
		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", body, alice, params))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp loanEnvelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "overdue", resp.Data.Status)
		require.NotNil(t, resp.Data.Customer)
		assert.Equal(t, "Ravi", resp.Data.Customer.Name)
		svc.AssertExpectations(t)
	})

	t.Run("status in the body is rejected", func(t *testing.T) {
		h, svc, customers := newLoanHandlerWithCustomers()
		customers.On("GetCustomer", mock.Anything, alice, int64(5)).Return(sampleCustomer(), nil).Once()

		body := `{"amount":10,"dueDate":"2030-01-01","status":"paid"}`
		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", body, alice, params))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		customers.AssertExpectations(t)
	})

	t.Run("missing amount is a validation error on amount", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("CreateLoan", mock.Anything, alice, int64(5), mock.MatchedBy(func(in loan.CreateInput) bool {
			return in.Amount == 0 && in.DueDate.Year() == 2030
		})).Return(nil, apperrors.NewValidationError("amount", "Loan amount must be at least 0.01")).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", `{"dueDate":"2030-01-01"}`, alice, params))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "amount", resp.Error.Field)
		svc.AssertExpectations(t)
	})

	t.Run("foreign customer outranks an incomplete payload", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("CreateLoan", mock.Anything, alice, int64(5), mock.Anything).
			Return(nil, fmt.Errorf("%w: not yours", apperrors.ErrForbidden)).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", `{"description":"x"}`, alice, params))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("foreign customer outranks a malformed payload", func(t *testing.T) {
		h, svc, customers := newLoanHandlerWithCustomers()
		customers.On("GetCustomer", mock.Anything, alice, int64(5)).
			Return(nil, fmt.Errorf("%w: not yours", apperrors.ErrForbidden)).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", `{"amount":10,"dueDate":"31/12/2030"}`, alice, params))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing customer outranks a malformed payload", func(t *testing.T) {
		h, _, customers := newLoanHandlerWithCustomers()
		customers.On("GetCustomer", mock.Anything, alice, int64(5)).Return(nil, apperrors.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", `{"amount":"lots"}`, alice, params))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown customer is 404", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("CreateLoan", mock.Anything, alice, int64(5), mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/customers/5/loans", `{"amount":10,"dueDate":"2030-01-01"}`, alice, params))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLoanHandlerUpdateLoan(t *testing.T) {
	params := map[string]string{loanIDParam: "12"}

	t.Run("passes only the provided fields", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("UpdateLoan", mock.Anything, alice, int64(12), mock.MatchedBy(func(in loan.UpdateInput) bool {
			return in.Amount == nil && in.Description == nil && in.DueDate != nil && in.DueDate.Year() == 2024
		})).Return(sampleLoan(), nil).Once()

		rec := httptest.NewRecorder()
		h.UpdateLoan(rec, newRequest(http.MethodPut, "/loans/12", `{"dueDate":"2024-01-01"}`, alice, params))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("status cannot be set by the client", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("GetLoan", mock.Anything, alice, int64(12)).Return(sampleLoan(), nil).Once()

		rec := httptest.NewRecorder()
		h.UpdateLoan(rec, newRequest(http.MethodPut, "/loans/12", `{"status":"paid"}`, alice, params))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "UpdateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("foreign loan outranks a malformed due date", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("GetLoan", mock.Anything, alice, int64(12)).
			Return(nil, fmt.Errorf("%w: not yours", apperrors.ErrForbidden)).Once()

		rec := httptest.NewRecorder()
		h.UpdateLoan(rec, newRequest(http.MethodPut, "/loans/12", `{"dueDate":"tomorrow"}`, alice, params))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "UpdateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing loan outranks a malformed due date", func(t *testing.T) {
		h, svc := newLoanHandler()
		svc.On("GetLoan", mock.Anything, alice, int64(12)).Return(nil, apperrors.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.UpdateLoan(rec, newRequest(http.MethodPut, "/loans/12", `{"dueDate":"tomorrow"}`, alice, params))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLoanHandlerGetAndDelete(t *testing.T) {
	params := map[string]string{loanIDParam: "12"}

	h, svc := newLoanHandler()
	svc.On("GetLoan", mock.Anything, alice, int64(12)).Return(sampleLoan(), nil).Once()
	svc.On("DeleteLoan", mock.Anything, alice, int64(12)).Return(nil).Once()

	rec := httptest.NewRecorder()
	h.GetLoan(rec, newRequest(http.MethodGet, "/loans/12", "", alice, params))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteLoan(rec, newRequest(http.MethodDelete, "/loans/12", "", alice, params))
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.AssertExpectations(t)
}

func TestLoanHandlerSummary(t *testing.T) {
	h, svc := newLoanHandler()
	svc.On("Summary", mock.Anything, alice).Return(loan.Summary{
		TotalLoaned: 3500, OverdueAmount: 1000, TotalActiveLoans: 1, TotalOverdueLoans: 1, TotalPaidLoans: 1,
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.Summary(rec, newRequest(http.MethodGet, "/loans/summary", "", alice, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"totalLoaned":3500,"totalCollected":0,"overdueAmount":1000,"totalActiveLoans":1,"totalOverdueLoans":1,"totalPaidLoans":1}}`, rec.Body.String())
}

func TestLoanHandlerListings(t *testing.T) {
	h, svc := newLoanHandler()
	svc.On("ListLoans", mock.Anything, alice).Return([]*loan.Loan{sampleLoan()}, nil).Once()
	svc.On("OverdueLoans", mock.Anything, alice).Return([]*loan.Loan{}, nil).Once()
	svc.On("ListCustomerLoans", mock.Anything, alice, int64(5)).Return(nil, apperrors.ErrNotFound).Once()

	rec := httptest.NewRecorder()
	h.ListLoans(rec, newRequest(http.MethodGet, "/loans", "", alice, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = httptest.NewRecorder()
	h.OverdueLoans(rec, newRequest(http.MethodGet, "/loans/overdue", "", alice, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"count":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ListCustomerLoans(rec, newRequest(http.MethodGet, "/customers/5/loans", "", alice, map[string]string{customerIDParam: "5"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.AssertExpectations(t)
}
