package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type LedgerMetrics struct {
	CustomersCreated  prometheus.Counter
	LoansCreated      prometheus.Counter
	RepaymentsTotal   *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	OverdueDigests    *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_ledger_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Ledger = LedgerMetrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loan_ledger_customers_created_total",
			Help: "Total number of customers created.",
		}),
		LoansCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loan_ledger_loans_created_total",
			Help: "Total number of loans created.",
		}),
		RepaymentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_ledger_repayments_total",
			Help: "Total number of repayment attempts by outcome.",
		}, []string{"status"}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_ledger_loan_status_transitions_total",
			Help: "Total number of loan status transitions by target status.",
		}, []string{"to"}),
		OverdueDigests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_ledger_overdue_digests_total",
			Help: "Total number of overdue digests by publish outcome.",
		}, []string{"status"}),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCustomerCreated() {
	Ledger.CustomersCreated.Inc()
}

func RecordLoanCreated() {
	Ledger.LoansCreated.Inc()
}

func RecordRepayment(status string) {
	Ledger.RepaymentsTotal.WithLabelValues(status).Inc()
}

func RecordStatusTransition(to string) {
	Ledger.StatusTransitions.WithLabelValues(to).Inc()
}

func RecordOverdueDigest(status string) {
	Ledger.OverdueDigests.WithLabelValues(status).Inc()
}
