package loan

import (
	"strings"
	"time"
	"unicode/utf8"

	"loan-ledger/internal/pkg/apperrors"
	"loan-ledger/internal/pkg/money"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

const maxDescriptionLength = 200

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// CustomerRef is the borrowing customer's contact as seen from a loan read.
// It is nil when the customer no longer exists.
type CustomerRef struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Loan struct {
	ID          int64        `json:"id"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	DueDate     time.Time    `json:"dueDate"`
	Status      Status       `json:"status"`
	CustomerID  int64        `json:"customerId"`
	OwnerID     string       `json:"ownerId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Customer    *CustomerRef `json:"customer,omitempty"`
}

// Owner implements ownership.Owned.
func (l *Loan) Owner() string {
	return l.OwnerID
}

type CreateInput struct {
	Amount      float64
	Description string
	DueDate     time.Time
}

// UpdateInput carries the client-mutable loan fields. Status and customer
// are deliberately absent.
type UpdateInput struct {
	Amount      *float64
	Description *string
	DueDate     *time.Time
}

func (in UpdateInput) IsEmpty() bool {
	return in.Amount == nil && in.Description == nil && in.DueDate == nil
}

func NewLoan(ownerID string, customerID int64, in CreateInput) *Loan {
	return &Loan{
		Amount:      money.Round(in.Amount),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Status:      StatusPending,
		CustomerID:  customerID,
		OwnerID:     ownerID,
	}
}

func (l *Loan) Apply(in UpdateInput) {
	if in.Amount != nil {
		l.Amount = money.Round(*in.Amount)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.DueDate != nil {
		l.DueDate = *in.DueDate
	}
}

// Validate expects amounts already rounded to cents, so anything below one
// cent, including a missing amount, is rejected here rather than by storage.
func (l *Loan) Validate() error {
	switch {
	case l.Amount < money.MinAmount:
		return apperrors.NewValidationError("amount", "Loan amount must be at least 0.01")
	case l.Amount > money.MaxAmount:
		return apperrors.NewValidationError("amount", "Loan amount cannot exceed 999999999999.99")
	case utf8.RuneCountInString(l.Description) > maxDescriptionLength:
		return apperrors.NewValidationError("description", "Description cannot exceed 200 characters")
	case l.DueDate.IsZero():
		return apperrors.NewValidationError("dueDate", "Please provide due date")
	case !l.Status.IsValid():
		return apperrors.NewValidationError("status", "Status must be one of pending, paid, overdue")
	}
	return nil
}
