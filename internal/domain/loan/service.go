package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/ownership"
	"loan-ledger/internal/event"
	"loan-ledger/internal/infrastructure/monitoring"
	"loan-ledger/internal/pkg/apperrors"
)

const loanNotFound = "Loan not found by repository"

type LoanService interface {
	ListLoans(ctx context.Context, principal ownership.Principal) ([]*Loan, error)
	ListCustomerLoans(ctx context.Context, principal ownership.Principal, customerID int64) ([]*Loan, error)
	GetLoan(ctx context.Context, principal ownership.Principal, loanID int64) (*Loan, error)
	CreateLoan(ctx context.Context, principal ownership.Principal, customerID int64, in CreateInput) (*Loan, error)
	UpdateLoan(ctx context.Context, principal ownership.Principal, loanID int64, in UpdateInput) (*Loan, error)
	DeleteLoan(ctx context.Context, principal ownership.Principal, loanID int64) error
	Summary(ctx context.Context, principal ownership.Principal) (Summary, error)
	OverdueLoans(ctx context.Context, principal ownership.Principal) ([]*Loan, error)
}

var _ LoanService = (*loanService)(nil)

type loanService struct {
	repo      Repository
	customers customer.CustomerService
	pub       event.Publisher
	cache     SummaryCache
	logger    *slog.Logger
	now       func() time.Time
}

func NewLoanService(
	repo Repository,
	customers customer.CustomerService,
	pub event.Publisher,
	cache SummaryCache,
	logger *slog.Logger,
) LoanService {
	if repo == nil || customers == nil {
		panic("loan repository and customer service cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewLoanService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if cache == nil {
		cache = NoopSummaryCache{}
	}
	return &loanService{
		repo:      repo,
		customers: customers,
		pub:       pub,
		cache:     cache,
		logger:    logger.With(slog.String("component", "loanService")),
		now:       time.Now,
	}
}

func NewLoanEvent(l *Loan) event.LoanEvent {
	return event.LoanEvent{
		Timestamp: time.Now(),
		Payload: event.LoanEventPayload{
			LoanID:     l.ID,
			CustomerID: l.CustomerID,
			OwnerID:    l.OwnerID,
			Amount:     l.Amount,
			DueDate:    l.DueDate,
			Status:     string(l.Status),
		},
	}
}

func NewStatusChangedEvent(l *Loan, from, to Status, reason string) event.LoanStatusChangedEvent {
	return event.LoanStatusChangedEvent{
		LoanID:    l.ID,
		OwnerID:   l.OwnerID,
		OldStatus: string(from),
		NewStatus: string(to),
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (s *loanService) ListLoans(ctx context.Context, principal ownership.Principal) ([]*Loan, error) {
	log := s.logger.With(slog.String("principal", principal.String()))
	log.InfoContext(ctx, "Attempting to list loans")

	loans, err := s.repo.ListByOwner(ctx, principal.String())
	if err != nil {
		log.ErrorContext(ctx, "Repository error listing loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

func (s *loanService) ListCustomerLoans(ctx context.Context, principal ownership.Principal, customerID int64) ([]*Loan, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("customerID", customerID))
	log.InfoContext(ctx, "Attempting to list loans for customer")

	if _, err := s.customers.GetCustomer(ctx, principal, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.ListByCustomer(ctx, principal.String(), customerID)
	if err != nil {
		log.ErrorContext(ctx, "Repository error listing customer loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans for customer %d: %w", customerID, err)
	}
	return loans, nil
}

func (s *loanService) GetLoan(ctx context.Context, principal ownership.Principal, loanID int64) (*Loan, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("loanID", loanID))
	log.DebugContext(ctx, "Attempting to get loan by ID")

	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, loanNotFound)
			return nil, fmt.Errorf("%w: loan not found with id of %d", apperrors.ErrNotFound, loanID)
		}
		log.ErrorContext(ctx, "Repository error finding loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	if err := ownership.AuthorizeRecord(principal, l); err != nil {
		log.WarnContext(ctx, "Principal not authorized to access this loan")
		return nil, fmt.Errorf("%w: not authorized to access loan %d", apperrors.ErrForbidden, loanID)
	}
	return l, nil
}

func (s *loanService) CreateLoan(ctx context.Context, principal ownership.Principal, customerID int64, in CreateInput) (*Loan, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("customerID", customerID))
	log.InfoContext(ctx, "Attempting to create new loan")

	cust, err := s.customers.GetCustomer(ctx, principal, customerID)
	if err != nil {
		log.WarnContext(ctx, "Borrowing customer could not be resolved", slog.Any("error", err))
		return nil, err
	}

	l := NewLoan(principal.String(), cust.ID, in)
	if err := l.Validate(); err != nil {
		log.WarnContext(ctx, "Validation failed for new loan", slog.Any("error", err))
		return nil, err
	}
	l.Status = DeriveStatus(l, s.now())

	if err := s.repo.Create(ctx, l); err != nil {
		log.ErrorContext(ctx, "Repository failed to save new loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new loan: %w", err)
	}
	l.Customer = &CustomerRef{Name: cust.Name, Phone: cust.Phone}
	log = log.With(slog.Int64("loanID", l.ID), slog.String("status", string(l.Status)))

	monitoring.RecordLoanCreated()
	if pubErr := s.pub.PublishLoanCreated(ctx, NewLoanEvent(l)); pubErr != nil {
		log.ErrorContext(ctx, "Loan created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}
	if l.Status != StatusPending {
		s.statusChanged(ctx, l, StatusPending, "due date already passed at creation")
	}
	s.invalidateSummary(ctx, principal)

	log.InfoContext(ctx, "Successfully created new loan")
	return l, nil
}

// UpdateLoan applies a partial update and re-derives the stored status, so a
// due date moved into the past makes a pending loan overdue.
func (s *loanService) UpdateLoan(ctx context.Context, principal ownership.Principal, loanID int64, in UpdateInput) (*Loan, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("loanID", loanID))
	log.InfoContext(ctx, "Attempting to update loan")

	l, err := s.GetLoan(ctx, principal, loanID)
	if err != nil {
		return nil, err
	}

	previous := l.Status
	l.Apply(in)
	if err := l.Validate(); err != nil {
		log.WarnContext(ctx, "Validation failed for loan update", slog.Any("error", err))
		return nil, err
	}
	l.Status = DeriveStatus(l, s.now())

	if err := s.repo.Update(ctx, l, previous); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, loanNotFound)
			return nil, fmt.Errorf("%w: loan not found with id of %d", apperrors.ErrNotFound, loanID)
		}
		if errors.Is(err, apperrors.ErrConflict) {
			log.WarnContext(ctx, "Loan changed concurrently, update rejected", slog.Any("error", err))
			return nil, fmt.Errorf("failed to update loan %d: %w", loanID, err)
		}
		log.ErrorContext(ctx, "Repository failed to save loan update", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update loan %d: %w", loanID, err)
	}

	if l.Status != previous {
		s.statusChanged(ctx, l, previous, "due date passed on update")
	}
	s.invalidateSummary(ctx, principal)

	log.InfoContext(ctx, "Successfully updated loan", slog.String("status", string(l.Status)))
	return l, nil
}

// DeleteLoan removes only the loan row; its repayments are kept.
func (s *loanService) DeleteLoan(ctx context.Context, principal ownership.Principal, loanID int64) error {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("loanID", loanID))
	log.InfoContext(ctx, "Attempting to delete loan")

	l, err := s.GetLoan(ctx, principal, loanID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, loanID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, loanNotFound)
			return fmt.Errorf("%w: loan not found with id of %d", apperrors.ErrNotFound, loanID)
		}
		log.ErrorContext(ctx, "Repository error deleting loan", slog.Any("error", err))
		return fmt.Errorf("failed to delete loan %d: %w", loanID, err)
	}

	if pubErr := s.pub.PublishLoanDeleted(ctx, NewLoanEvent(l)); pubErr != nil {
		log.ErrorContext(ctx, "Loan deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}
	s.invalidateSummary(ctx, principal)

	log.InfoContext(ctx, "Successfully deleted loan")
	return nil
}

// Summary serves the cached aggregate when one is valid. A computed summary
// is cached only until its earliest pending loan falls due, since overdue
// figures are derived at read time.
func (s *loanService) Summary(ctx context.Context, principal ownership.Principal) (Summary, error) {
	log := s.logger.With(slog.String("principal", principal.String()))

	cached, gen, err := s.cache.Get(ctx, principal.String())
	if err == nil && cached != nil {
		log.DebugContext(ctx, "Serving loan summary from cache")
		return *cached, nil
	}
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		log.WarnContext(ctx, "Summary cache lookup failed, computing from store", slog.Any("error", err))
	}

	loans, err := s.repo.ListByOwner(ctx, principal.String())
	if err != nil {
		log.ErrorContext(ctx, "Repository error loading loans for summary", slog.Any("error", err))
		return Summary{}, fmt.Errorf("failed to load loans for summary: %w", err)
	}

	now := s.now()
	summary := Summarize(loans, now)
	if ttl, bounded := StableFor(loans, now); bounded && ttl <= 0 {
		log.DebugContext(ctx, "A loan falls due now, not caching summary")
	} else {
		if !bounded {
			ttl = 0
		}
		if setErr := s.cache.Set(ctx, principal.String(), gen, summary, ttl); setErr != nil {
			log.WarnContext(ctx, "Failed to cache loan summary", slog.Any("error", setErr))
		}
	}
	log.InfoContext(ctx, "Computed loan summary", slog.Int("loans", len(loans)))
	return summary, nil
}

func (s *loanService) OverdueLoans(ctx context.Context, principal ownership.Principal) ([]*Loan, error) {
	log := s.logger.With(slog.String("principal", principal.String()))

	loans, err := s.repo.ListOverdue(ctx, principal.String(), s.now())
	if err != nil {
		log.ErrorContext(ctx, "Repository error listing overdue loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	log.InfoContext(ctx, "Listed overdue loans", slog.Int("count", len(loans)))
	return loans, nil
}

func (s *loanService) statusChanged(ctx context.Context, l *Loan, from Status, reason string) {
	monitoring.RecordStatusTransition(string(l.Status))
	if err := s.pub.PublishLoanStatusChanged(ctx, NewStatusChangedEvent(l, from, l.Status, reason)); err != nil {
		s.logger.ErrorContext(ctx, "FAILED to publish loan status change event",
			slog.Int64("loanID", l.ID), slog.Any("error", err))
	}
}

func (s *loanService) invalidateSummary(ctx context.Context, principal ownership.Principal) {
	if err := s.cache.Invalidate(ctx, principal.String()); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate summary cache",
			slog.String("principal", principal.String()), slog.Any("error", err))
	}
}
