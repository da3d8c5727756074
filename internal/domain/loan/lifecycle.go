package loan

import "time"

// DeriveStatus returns the status a loan must be stored with when it is
// written at time now. Paid is terminal, a pending loan past its due date
// becomes overdue, and overdue never reverts to pending.
func DeriveStatus(l *Loan, now time.Time) Status {
	switch l.Status {
	case StatusPaid:
		return StatusPaid
	case StatusPending:
		if l.DueDate.Before(now) {
			return StatusOverdue
		}
		return StatusPending
	case StatusOverdue:
		return StatusOverdue
	}
	return StatusPending
}

// SettlesLoan reports whether a single repayment of amount moves l to paid.
// Earlier repayments on the same loan are not summed.
func SettlesLoan(l *Loan, amount float64) bool {
	return l.Status != StatusPaid && amount >= l.Amount
}

// IsEffectivelyOverdue is the read-time overdue predicate. It also holds for
// pending loans whose due date passed without a later write.
func IsEffectivelyOverdue(l *Loan, now time.Time) bool {
	return l.Status == StatusOverdue || (l.Status == StatusPending && l.DueDate.Before(now))
}
