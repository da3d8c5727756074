package dto

import (
	"fmt"
	"time"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
)

type CreateCustomerRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	TrustScore *int   `json:"trustScore,omitempty"`
}

func (r *CreateCustomerRequest) ToInput() customer.CreateInput {
	return customer.CreateInput{
		Name:       r.Name,
		Phone:      r.Phone,
		Address:    r.Address,
		TrustScore: r.TrustScore,
	}
}

type UpdateCustomerRequest struct {
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	TrustScore *int    `json:"trustScore,omitempty"`
}

func (r *UpdateCustomerRequest) ToInput() customer.UpdateInput {
	return customer.UpdateInput{
		Name:       r.Name,
		Phone:      r.Phone,
		Address:    r.Address,
		TrustScore: r.TrustScore,
	}
}

type CustomerResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Phone      string                 `json:"phone"`
	Address    string                 `json:"address"`
	TrustScore int                    `json:"trustScore"`
	OwnerID    string                 `json:"ownerId"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
	Loans      []CustomerLoanResponse `json:"loans,omitempty"`
}

// CustomerLoanResponse is the short loan view embedded in a customer read.
type CustomerLoanResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	DueDate     string  `json:"dueDate"`
	Status      string  `json:"status"`
}

func NewCustomerResponse(c *customer.Customer, loans []*loan.Loan) CustomerResponse {
	resp := CustomerResponse{
		ID:         fmt.Sprint(c.ID),
		Name:       c.Name,
		Phone:      c.Phone,
		Address:    c.Address,
		TrustScore: c.TrustScore,
		OwnerID:    c.OwnerID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	for _, l := range loans {
		resp.Loans = append(resp.Loans, CustomerLoanResponse{
			ID:          fmt.Sprint(l.ID),
			Amount:      l.Amount,
			Description: l.Description,
			DueDate:     l.DueDate.Format(dateLayout),
			Status:      string(l.Status),
		})
	}
	return resp
}

func NewCustomerResponses(customers []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, NewCustomerResponse(c, nil))
	}
	return resp
}
