package event

import (
	"context"
	"time"
)

const (
	RoutingKeyCustomerCreated   = "customer.created"
	RoutingKeyCustomerDeleted   = "customer.deleted"
	RoutingKeyLoanCreated       = "loan.created"
	RoutingKeyLoanStatusChanged = "loan.status.changed"
	RoutingKeyLoanDeleted       = "loan.deleted"
	RoutingKeyRepaymentCreated  = "repayment.created"
	RoutingKeyOverdueDigest     = "loan.overdue.digest"
)

// Publisher emits ledger events. Implementations must be safe for
// concurrent use; callers treat a publish failure as non-fatal.
type Publisher interface {
	PublishCustomerCreated(ctx context.Context, event CustomerEvent) error
	PublishCustomerDeleted(ctx context.Context, event CustomerEvent) error
	PublishLoanCreated(ctx context.Context, event LoanEvent) error
	PublishLoanStatusChanged(ctx context.Context, event LoanStatusChangedEvent) error
	PublishLoanDeleted(ctx context.Context, event LoanEvent) error
	PublishRepaymentCreated(ctx context.Context, event RepaymentEvent) error
	PublishOverdueDigest(ctx context.Context, event OverdueDigestEvent) error
}

type CustomerEventPayload struct {
	CustomerID int64     `json:"customerId"`
	OwnerID    string    `json:"ownerId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	TrustScore int       `json:"trustScore"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CustomerEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type LoanEventPayload struct {
	LoanID     int64     `json:"loanId"`
	CustomerID int64     `json:"customerId"`
	OwnerID    string    `json:"ownerId"`
	Amount     float64   `json:"amount"`
	DueDate    time.Time `json:"dueDate"`
	Status     string    `json:"status"`
}

type LoanEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Payload   LoanEventPayload `json:"payload"`
}

type LoanStatusChangedEvent struct {
	LoanID    int64     `json:"loanId"`
	OwnerID   string    `json:"ownerId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type RepaymentEventPayload struct {
	RepaymentID int64   `json:"repaymentId"`
	LoanID      int64   `json:"loanId"`
	OwnerID     string  `json:"ownerId"`
	Amount      float64 `json:"amount"`
	SettledLoan bool    `json:"settledLoan"`
}

type RepaymentEvent struct {
	Timestamp time.Time             `json:"timestamp"`
	Payload   RepaymentEventPayload `json:"payload"`
}

type OverdueLoanPayload struct {
	LoanID        int64     `json:"loanId"`
	CustomerID    int64     `json:"customerId"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Amount        float64   `json:"amount"`
	DueDate       time.Time `json:"dueDate"`
	Status        string    `json:"status"`
}

type OverdueDigestEvent struct {
	OwnerID       string               `json:"ownerId"`
	OverdueAmount float64              `json:"overdueAmount"`
	Loans         []OverdueLoanPayload `json:"loans"`
	Timestamp     time.Time            `json:"timestamp"`
}
