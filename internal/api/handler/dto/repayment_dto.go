package dto

import (
	"fmt"
	"time"

	"loan-ledger/internal/domain/repayment"

	"github.com/shopspring/decimal"
)

type CreateRepaymentRequest struct {
	Amount *decimal.Decimal `json:"amount" swaggertype:"number"`
}

func (r *CreateRepaymentRequest) ToInput() repayment.CreateInput {
	var in repayment.CreateInput
	if amount := amountValue(r.Amount); amount != nil {
		in.Amount = *amount
	}
	return in
}

type UpdateRepaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty" swaggertype:"number"`
}

func (r *UpdateRepaymentRequest) ToInput() repayment.UpdateInput {
	return repayment.UpdateInput{Amount: amountValue(r.Amount)}
}

type RepaymentLoanResponse struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type RepaymentResponse struct {
	ID        string                 `json:"id"`
	Amount    float64                `json:"amount"`
	LoanID    string                 `json:"loanId"`
	OwnerID   string                 `json:"ownerId"`
	Loan      *RepaymentLoanResponse `json:"loan,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func NewRepaymentResponse(r *repayment.Repayment) RepaymentResponse {
	resp := RepaymentResponse{
		ID:        fmt.Sprint(r.ID),
		Amount:    r.Amount,
		LoanID:    fmt.Sprint(r.LoanID),
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Loan != nil {
		resp.Loan = &RepaymentLoanResponse{Amount: r.Loan.Amount, Description: r.Loan.Description}
	}
	return resp
}

func NewRepaymentResponses(repayments []*repayment.Repayment) []RepaymentResponse {
	resp := make([]RepaymentResponse, 0, len(repayments))
	for _, r := range repayments {
		resp = append(resp, NewRepaymentResponse(r))
	}
	return resp
}
