package handler

import (
	"log/slog"
	"net/http"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
)

const loanIDParam = "loanID"

type LoanHandler struct {
	service   loan.LoanService
	customers customer.CustomerService
	logger    *slog.Logger
}

func NewLoanHandler(s loan.LoanService, customers customer.CustomerService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service:   s,
		customers: customers,
		logger:    l.With("component", "LoanHandler"),
	}
}

// ListLoans returns the caller's loans with the borrower's name and phone.
//
// @Summary List loans
// @Tags Loans
// @Produce json
// @Success 200 {object} dto.Envelope{data=[]dto.LoanResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ListLoans(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, dto.NewLoanResponses(loans))
}

// ListCustomerLoans returns the caller's loans for one of their customers.
//
// @Summary List a customer's loans
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.Envelope{data=[]dto.LoanResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers/{customerID}/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListCustomerLoans(w http.ResponseWriter, r *http.Request) {
	principal, customerID, err := principalAndID(r, customerIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ListCustomerLoans(r.Context(), principal, customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, dto.NewLoanResponses(loans))
}

// CreateLoan records credit extended to a customer.
//
// @Summary Create a loan
// @Description Amount accepts a number or numeric string; dueDate accepts RFC 3339 or YYYY-MM-DD. A due date already in the past yields an overdue loan.
// @Tags Loans
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID"
// @Param request body dto.CreateLoanRequest true "Loan payload"
// @Success 201 {object} dto.Envelope{data=dto.LoanResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers/{customerID}/loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	principal, customerID, err := principalAndID(r, customerIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode loan payload", "error", err)
		rejectPayload(w, err, func() error {
			_, err := h.customers.GetCustomer(r.Context(), principal, customerID)
			return err
		})
		return
	}

	created, err := h.service.CreateLoan(r.Context(), principal, customerID, req.ToInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, dto.NewLoanResponse(created))
}

// GetLoan returns one loan.
//
// @Summary Get a loan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope{data=dto.LoanResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	principal, loanID, err := principalAndID(r, loanIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	found, err := h.service.GetLoan(r.Context(), principal, loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewLoanResponse(found))
}

// UpdateLoan changes amount, description or due date. The status is
// recomputed and can never be set directly.
//
// @Summary Update a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.UpdateLoanRequest true "Fields to change"
// @Success 200 {object} dto.Envelope{data=dto.LoanResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/{loanID} [put]
// @Security BearerAuth
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	principal, loanID, err := principalAndID(r, loanIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode loan update", "error", err)
		rejectPayload(w, err, func() error {
			_, err := h.service.GetLoan(r.Context(), principal, loanID)
			return err
		})
		return
	}

	updated, err := h.service.UpdateLoan(r.Context(), principal, loanID, req.ToInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// DeleteLoan removes the loan. Its repayments are left in place.
//
// @Summary Delete a loan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/{loanID} [delete]
// @Security BearerAuth
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	principal, loanID, err := principalAndID(r, loanIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteLoan(r.Context(), principal, loanID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.Envelope{Success: true})
}

// Summary returns the caller's portfolio totals.
//
// @Summary Loan summary
// @Description Totals over every loan the caller owns. Overdue figures use the current time, so pending loans past due count as overdue.
// @Tags Loans
// @Produce json
// @Success 200 {object} dto.Envelope{data=dto.SummaryResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/summary [get]
// @Security BearerAuth
func (h *LoanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewSummaryResponse(summary))
}

// OverdueLoans lists the caller's loans that are overdue or pending past due.
//
// @Summary Overdue loans
// @Tags Loans
// @Produce json
// @Success 200 {object} dto.Envelope{data=[]dto.LoanResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/overdue [get]
// @Security BearerAuth
func (h *LoanHandler) OverdueLoans(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.OverdueLoans(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, dto.NewLoanResponses(loans))
}
