package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/ownership"
	"loan-ledger/internal/event"
	"loan-ledger/internal/infrastructure/monitoring"

	"github.com/shopspring/decimal"
)

const maxConcurrentOwners = 8

// OverdueDigestJob publishes, for every owner with overdue loans, one digest
// listing those loans. It only reads; loan status is never written here.
type OverdueDigestJob struct {
	loanRepo    loan.Repository
	loanService loan.LoanService
	pub         event.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewOverdueDigestJob(
	loanRepo loan.Repository,
	loanSvc loan.LoanService,
	pub event.Publisher,
	logger *slog.Logger,
) *OverdueDigestJob {
	if loanRepo == nil || loanSvc == nil || pub == nil || logger == nil {
		panic("OverdueDigestJob dependencies cannot be nil")
	}
	return &OverdueDigestJob{
		loanRepo:    loanRepo,
		loanService: loanSvc,
		pub:         pub,
		logger:      logger.With("job", "OverdueDigest"),
		now:         time.Now,
	}
}

func (j *OverdueDigestJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue digest job.")

	owners, err := j.loanRepo.ListOwnersWithOverdue(ctx, j.now())
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list owners with overdue loans, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list owners: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched owners with overdue loans.", slog.Int("count", len(owners)))

	if len(owners) == 0 {
		j.logger.InfoContext(ctx, "Overdue digest job finished.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var (
		wg                        sync.WaitGroup
		published, empty, errored atomic.Int32
	)
	sem := make(chan struct{}, maxConcurrentOwners)
	started := 0

loop:
	for _, owner := range owners {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		// both cases can be ready at once; cancellation wins.
		if ctx.Err() != nil {
			<-sem
			break loop
		}
		started++
		wg.Add(1)
		go func(ownerID string) {
			defer wg.Done()
			defer func() { <-sem }()

			sent, err := j.digestOwner(ctx, ownership.Principal(ownerID))
			switch {
			case err != nil:
				errored.Add(1)
				monitoring.RecordOverdueDigest("failure")
			case !sent:
				empty.Add(1)
			default:
				published.Add(1)
				monitoring.RecordOverdueDigest("published")
			}
		}(owner)
	}

	wg.Wait()
	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("owners", len(owners)),
		slog.Int("owners_started", started),
		slog.Int("digests_published", int(published.Load())),
		slog.Int("owners_without_overdue", int(empty.Load())),
		slog.Int("errors_encountered", int(errored.Load())),
	)
	if started < len(owners) {
		summaryLog.WarnContext(ctx, "Overdue digest job cancelled before all owners were processed.")
		return fmt.Errorf("job cancelled after %d of %d owners: %w", started, len(owners), ctx.Err())
	}
	if n := errored.Load(); n > 0 {
		summaryLog.WarnContext(ctx, "Overdue digest job finished with errors.")
		return fmt.Errorf("job completed with %d errors", n)
	}
	summaryLog.InfoContext(ctx, "Overdue digest job finished successfully.")
	return nil
}

// digestOwner reports false without error when the owner's overdue set
// emptied between the owner scan and the listing.
func (j *OverdueDigestJob) digestOwner(ctx context.Context, principal ownership.Principal) (bool, error) {
	log := j.logger.With(slog.String("owner", principal.String()))

	loans, err := j.loanService.OverdueLoans(ctx, principal)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list overdue loans", slog.Any("error", err))
		return false, err
	}
	if len(loans) == 0 {
		log.DebugContext(ctx, "No overdue loans left for owner.")
		return false, nil
	}

	digest := NewOverdueDigestEvent(principal.String(), loans, j.now())
	if err := j.pub.PublishOverdueDigest(ctx, digest); err != nil {
		log.ErrorContext(ctx, "Failed to publish overdue digest", slog.Any("error", err))
		return false, err
	}
	log.InfoContext(ctx, "Published overdue digest",
		slog.Int("loans", len(digest.Loans)),
		slog.Float64("overdueAmount", digest.OverdueAmount))
	return true, nil
}

func NewOverdueDigestEvent(ownerID string, loans []*loan.Loan, now time.Time) event.OverdueDigestEvent {
	total := decimal.Zero
	payload := make([]event.OverdueLoanPayload, 0, len(loans))
	for _, l := range loans {
		total = total.Add(decimal.NewFromFloat(l.Amount))
		p := event.OverdueLoanPayload{
			LoanID:     l.ID,
			CustomerID: l.CustomerID,
			Amount:     l.Amount,
			DueDate:    l.DueDate,
			Status:     string(l.Status),
		}
		if l.Customer != nil {
			p.CustomerName = l.Customer.Name
			p.CustomerPhone = l.Customer.Phone
		}
		payload = append(payload, p)
	}
	return event.OverdueDigestEvent{
		OwnerID:       ownerID,
		OverdueAmount: total.Round(2).InexactFloat64(),
		Loans:         payload,
		Timestamp:     now.UTC(),
	}
}
