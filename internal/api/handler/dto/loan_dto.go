package dto

import (
	"fmt"
	"time"

	"loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number"`
	Description string           `json:"description"`
	DueDate     *Date            `json:"dueDate" swaggertype:"string" example:"2024-12-31"`
}

// ToInput leaves absent fields at their zero value; the loan's own
// validation reports them once the customer has been resolved.
func (r *CreateLoanRequest) ToInput() loan.CreateInput {
	in := loan.CreateInput{Description: r.Description}
	if amount := amountValue(r.Amount); amount != nil {
		in.Amount = *amount
	}
	if r.DueDate != nil {
		in.DueDate = r.DueDate.Time
	}
	return in
}

// UpdateLoanRequest has no status or customer field; unknown fields are
// rejected by the decoder so neither can be smuggled in.
type UpdateLoanRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty" swaggertype:"number"`
	Description *string          `json:"description,omitempty"`
	DueDate     *Date            `json:"dueDate,omitempty" swaggertype:"string" example:"2024-12-31"`
}

func (r *UpdateLoanRequest) ToInput() loan.UpdateInput {
	in := loan.UpdateInput{
		Amount:      amountValue(r.Amount),
		Description: r.Description,
	}
	if r.DueDate != nil {
		due := r.DueDate.Time
		in.DueDate = &due
	}
	return in
}

type LoanCustomerResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type LoanResponse struct {
	ID          string                `json:"id"`
	Amount      float64               `json:"amount"`
	Description string                `json:"description"`
	DueDate     time.Time             `json:"dueDate"`
	Status      string                `json:"status"`
	CustomerID  string                `json:"customerId"`
	OwnerID     string                `json:"ownerId"`
	Customer    *LoanCustomerResponse `json:"customer,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	resp := LoanResponse{
		ID:          fmt.Sprint(l.ID),
		Amount:      l.Amount,
		Description: l.Description,
		DueDate:     l.DueDate,
		Status:      string(l.Status),
		CustomerID:  fmt.Sprint(l.CustomerID),
		OwnerID:     l.OwnerID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.Customer != nil {
		resp.Customer = &LoanCustomerResponse{Name: l.Customer.Name, Phone: l.Customer.Phone}
	}
	return resp
}

func NewLoanResponses(loans []*loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, NewLoanResponse(l))
	}
	return resp
}

type SummaryResponse struct {
	TotalLoaned       float64 `json:"totalLoaned"`
	TotalCollected    float64 `json:"totalCollected"`
	OverdueAmount     float64 `json:"overdueAmount"`
	TotalActiveLoans  int     `json:"totalActiveLoans"`
	TotalOverdueLoans int     `json:"totalOverdueLoans"`
	TotalPaidLoans    int     `json:"totalPaidLoans"`
}

func NewSummaryResponse(s loan.Summary) SummaryResponse {
	return SummaryResponse(s)
}
