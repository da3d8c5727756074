package handler

import (
	"log/slog"
	"net/http"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/repayment"
)

const repaymentIDParam = "repaymentID"

type RepaymentHandler struct {
	service repayment.RepaymentService
	loans   loan.LoanService
	logger  *slog.Logger
}

func NewRepaymentHandler(s repayment.RepaymentService, loans loan.LoanService, l *slog.Logger) *RepaymentHandler {
	return &RepaymentHandler{
		service: s,
		loans:   loans,
		logger:  l.With("component", "RepaymentHandler"),
	}
}

// ListRepayments returns the caller's repayments with the repaid loan's amount and description.
//
// @Summary List repayments
// @Tags Repayments
// @Produce json
// @Success 200 {object} dto.Envelope{data=[]dto.RepaymentResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /repayments [get]
// @Security BearerAuth
func (h *RepaymentHandler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}

	repayments, err := h.service.ListRepayments(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, dto.NewRepaymentResponses(repayments))
}

// ListLoanRepayments returns the caller's repayments against one of their loans.
//
// @Summary List a loan's repayments
// @Tags Repayments
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope{data=[]dto.RepaymentResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/{loanID}/repayments [get]
// @Security BearerAuth
func (h *RepaymentHandler) ListLoanRepayments(w http.ResponseWriter, r *http.Request) {
	principal, loanID, err := principalAndID(r, loanIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	repayments, err := h.service.ListLoanRepayments(r.Context(), principal, loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, dto.NewRepaymentResponses(repayments))
}

// CreateRepayment records money received against a loan. A repayment of at
// least the loan amount marks the loan paid in the same transaction.
//
// @Summary Record a repayment
// @Tags Repayments
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.CreateRepaymentRequest true "Repayment payload"
// @Success 201 {object} dto.Envelope{data=dto.RepaymentResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /loans/{loanID}/repayments [post]
// @Security BearerAuth
func (h *RepaymentHandler) CreateRepayment(w http.ResponseWriter, r *http.Request) {
	principal, loanID, err := principalAndID(r, loanIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.CreateRepaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode repayment payload", "error", err)
		rejectPayload(w, err, func() error {
			_, err := h.loans.GetLoan(r.Context(), principal, loanID)
			return err
		})
		return
	}

	created, err := h.service.CreateRepayment(r.Context(), principal, loanID, req.ToInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, dto.NewRepaymentResponse(created))
}

// GetRepayment returns one repayment.
//
// @Summary Get a repayment
// @Tags Repayments
// @Produce json
// @Param repaymentID path int true "Repayment ID"
// @Success 200 {object} dto.Envelope{data=dto.RepaymentResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /repayments/{repaymentID} [get]
// @Security BearerAuth
func (h *RepaymentHandler) GetRepayment(w http.ResponseWriter, r *http.Request) {
	principal, repaymentID, err := principalAndID(r, repaymentIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	found, err := h.service.GetRepayment(r.Context(), principal, repaymentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewRepaymentResponse(found))
}

// UpdateRepayment corrects a repayment amount. It never changes the loan status.
//
// @Summary Update a repayment
// @Tags Repayments
// @Accept json
// @Produce json
// @Param repaymentID path int true "Repayment ID"
// @Param request body dto.UpdateRepaymentRequest true "Fields to change"
// @Success 200 {object} dto.Envelope{data=dto.RepaymentResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /repayments/{repaymentID} [put]
// @Security BearerAuth
func (h *RepaymentHandler) UpdateRepayment(w http.ResponseWriter, r *http.Request) {
	principal, repaymentID, err := principalAndID(r, repaymentIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateRepaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode repayment update", "error", err)
		rejectPayload(w, err, func() error {
			_, err := h.service.GetRepayment(r.Context(), principal, repaymentID)
			return err
		})
		return
	}

	updated, err := h.service.UpdateRepayment(r.Context(), principal, repaymentID, req.ToInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewRepaymentResponse(updated))
}

// DeleteRepayment removes a repayment. A loan it settled stays paid.
//
// @Summary Delete a repayment
// @Tags Repayments
// @Produce json
// @Param repaymentID path int true "Repayment ID"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /repayments/{repaymentID} [delete]
// @Security BearerAuth
func (h *RepaymentHandler) DeleteRepayment(w http.ResponseWriter, r *http.Request) {
	principal, repaymentID, err := principalAndID(r, repaymentIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteRepayment(r.Context(), principal, repaymentID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.Envelope{Success: true})
}
