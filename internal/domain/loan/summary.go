package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Summary struct {
	TotalLoaned       float64 `json:"totalLoaned"`
	TotalCollected    float64 `json:"totalCollected"`
	OverdueAmount     float64 `json:"overdueAmount"`
	TotalActiveLoans  int     `json:"totalActiveLoans"`
	TotalOverdueLoans int     `json:"totalOverdueLoans"`
	TotalPaidLoans    int     `json:"totalPaidLoans"`
}

// Summarize aggregates one principal's loans. TotalCollected is always zero,
// and a stored-pending loan past its due date counts as both active and
// overdue.
func Summarize(loans []*Loan, now time.Time) Summary {
	loaned := decimal.Zero
	overdue := decimal.Zero
	var s Summary

	for _, l := range loans {
		amount := decimal.NewFromFloat(l.Amount)
		loaned = loaned.Add(amount)

		if IsEffectivelyOverdue(l, now) {
			overdue = overdue.Add(amount)
			s.TotalOverdueLoans++
		}
		switch l.Status {
		case StatusPending:
			s.TotalActiveLoans++
		case StatusPaid:
			s.TotalPaidLoans++
		}
	}

	s.TotalLoaned = loaned.Round(2).InexactFloat64()
	s.OverdueAmount = overdue.Round(2).InexactFloat64()
	return s
}

// StableFor reports how long a summary computed at now stays accurate while
// no loan is written, which is until the earliest pending loan passes its due
// date. bounded is false when no pending loan is still ahead of its due date.
func StableFor(loans []*Loan, now time.Time) (d time.Duration, bounded bool) {
	for _, l := range loans {
		if l.Status != StatusPending || l.DueDate.Before(now) {
			continue
		}
		left := l.DueDate.Sub(now)
		if !bounded || left < d {
			d, bounded = left, true
		}
	}
	return d, bounded
}
