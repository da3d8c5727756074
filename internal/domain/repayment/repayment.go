package repayment

import (
	"time"

	"loan-ledger/internal/pkg/apperrors"
	"loan-ledger/internal/pkg/money"
)

const MinAmount = 1

// LoanRef is the repaid loan as seen from a repayment read. It is nil when
// the loan no longer exists.
type LoanRef struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type Repayment struct {
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
	LoanID    int64     `json:"loanId"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Loan      *LoanRef  `json:"loan,omitempty"`
}

// Owner implements ownership.Owned.
func (r *Repayment) Owner() string {
	return r.OwnerID
}

type CreateInput struct {
	Amount float64
}

// UpdateInput carries the only client-mutable repayment field.
type UpdateInput struct {
	Amount *float64
}

func (in UpdateInput) IsEmpty() bool {
	return in.Amount == nil
}

func NewRepayment(ownerID string, loanID int64, in CreateInput) *Repayment {
	return &Repayment{
		Amount:  money.Round(in.Amount),
		LoanID:  loanID,
		OwnerID: ownerID,
	}
}

func (r *Repayment) Apply(in UpdateInput) {
	if in.Amount != nil {
		r.Amount = money.Round(*in.Amount)
	}
}

func (r *Repayment) Validate() error {
	switch {
	case r.Amount < MinAmount:
		return apperrors.NewValidationError("amount", "Repayment amount must be at least 1")
	case r.Amount > money.MaxAmount:
		return apperrors.NewValidationError("amount", "Repayment amount cannot exceed 999999999999.99")
	}
	return nil
}
