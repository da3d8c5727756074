package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_MixedPortfolio(t *testing.T) {
	loans := []*Loan{
		{Amount: 1000, Status: StatusOverdue, DueDate: fixedNow.AddDate(0, 0, -3)},
		{Amount: 500, Status: StatusPending, DueDate: fixedNow.AddDate(0, 0, 7)},
		{Amount: 2000, Status: StatusPaid, DueDate: fixedNow.AddDate(0, 0, -10)},
	}

	got := Summarize(loans, fixedNow)

	assert.Equal(t, Summary{
		TotalLoaned:       3500,
		TotalCollected:    0,
		OverdueAmount:     1000,
		TotalActiveLoans:  1,
		TotalOverdueLoans: 1,
		TotalPaidLoans:    1,
	}, got)
}

func TestSummarize_StalePendingCountsAsActiveAndOverdue(t *testing.T) {
	loans := []*Loan{
		{Amount: 300, Status: StatusPending, DueDate: fixedNow.AddDate(0, 0, -1)},
	}

	got := Summarize(loans, fixedNow)

	assert.Equal(t, 1, got.TotalActiveLoans)
	assert.Equal(t, 1, got.TotalOverdueLoans)
	assert.Equal(t, 300.0, got.OverdueAmount)
}

func TestSummarize_DecimalSums(t *testing.T) {
	loans := []*Loan{
		{Amount: 0.1, Status: StatusPending, DueDate: fixedNow.AddDate(0, 0, 1)},
		{Amount: 0.2, Status: StatusPending, DueDate: fixedNow.AddDate(0, 0, 1)},
	}

	assert.Equal(t, 0.3, Summarize(loans, fixedNow).TotalLoaned)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil, fixedNow))
}

func TestStableFor(t *testing.T) {
	tests := []struct {
		name        string
		loans       []*Loan
		want        time.Duration
		wantBounded bool
	}{
		{"No loans", nil, 0, false},
		{"Only paid and overdue", []*Loan{
			{Status: StatusPaid, DueDate: fixedNow.Add(time.Hour)},
			{Status: StatusOverdue, DueDate: fixedNow.Add(time.Hour)},
		}, 0, false},
		{"Pending already past due", []*Loan{{Status: StatusPending, DueDate: fixedNow.Add(-time.Hour)}}, 0, false},
		{"Earliest future due date wins", []*Loan{
			{Status: StatusPending, DueDate: fixedNow.Add(3 * time.Hour)},
			{Status: StatusPending, DueDate: fixedNow.Add(time.Minute)},
		}, time.Minute, true},
		{"Due exactly now", []*Loan{{Status: StatusPending, DueDate: fixedNow}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bounded := StableFor(tt.loans, fixedNow)
			assert.Equal(t, tt.wantBounded, bounded)
			assert.Equal(t, tt.want, got)
		})
	}
}
