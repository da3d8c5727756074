package repayment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/ownership"
	"loan-ledger/internal/event"
	"loan-ledger/internal/infrastructure/monitoring"
	"loan-ledger/internal/pkg/apperrors"
)

const repaymentNotFound = "Repayment not found by repository"

type RepaymentService interface {
	ListRepayments(ctx context.Context, principal ownership.Principal) ([]*Repayment, error)
	ListLoanRepayments(ctx context.Context, principal ownership.Principal, loanID int64) ([]*Repayment, error)
	GetRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64) (*Repayment, error)
	CreateRepayment(ctx context.Context, principal ownership.Principal, loanID int64, in CreateInput) (*Repayment, error)
	UpdateRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64, in UpdateInput) (*Repayment, error)
	DeleteRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64) error
}

var _ RepaymentService = (*repaymentService)(nil)

type repaymentService struct {
	repo     Repository
	loans    loan.LoanService
	loanRepo loan.Repository
	pub      event.Publisher
	cache    loan.SummaryCache
	logger   *slog.Logger
}

func NewRepaymentService(
	repo Repository,
	loans loan.LoanService,
	loanRepo loan.Repository,
	pub event.Publisher,
	cache loan.SummaryCache,
	logger *slog.Logger,
) RepaymentService {
	if repo == nil || loans == nil || loanRepo == nil {
		panic("repayment service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewRepaymentService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if cache == nil {
		cache = loan.NoopSummaryCache{}
	}
	return &repaymentService{
		repo:     repo,
		loans:    loans,
		loanRepo: loanRepo,
		pub:      pub,
		cache:    cache,
		logger:   logger.With(slog.String("component", "repaymentService")),
	}
}

func (s *repaymentService) ListRepayments(ctx context.Context, principal ownership.Principal) ([]*Repayment, error) {
	log := s.logger.With(slog.String("principal", principal.String()))
	log.InfoContext(ctx, "Attempting to list repayments")

	repayments, err := s.repo.ListByOwner(ctx, principal.String())
	if err != nil {
		log.ErrorContext(ctx, "Repository error listing repayments", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list repayments: %w", err)
	}
	return repayments, nil
}

func (s *repaymentService) ListLoanRepayments(ctx context.Context, principal ownership.Principal, loanID int64) ([]*Repayment, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("loanID", loanID))
	log.InfoContext(ctx, "Attempting to list repayments for loan")

	if _, err := s.loans.GetLoan(ctx, principal, loanID); err != nil {
		return nil, err
	}

	repayments, err := s.repo.ListByLoan(ctx, principal.String(), loanID)
	if err != nil {
		log.ErrorContext(ctx, "Repository error listing loan repayments", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list repayments for loan %d: %w", loanID, err)
	}
	return repayments, nil
}

func (s *repaymentService) GetRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64) (*Repayment, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("repaymentID", repaymentID))

	r, err := s.repo.FindByID(ctx, repaymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, repaymentNotFound)
			return nil, fmt.Errorf("%w: repayment not found with id of %d", apperrors.ErrNotFound, repaymentID)
		}
		log.ErrorContext(ctx, "Repository error finding repayment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get repayment %d: %w", repaymentID, err)
	}

	if err := ownership.AuthorizeRecord(principal, r); err != nil {
		log.WarnContext(ctx, "Principal not authorized to access this repayment")
		return nil, fmt.Errorf("%w: not authorized to access repayment %d", apperrors.ErrForbidden, repaymentID)
	}
	return r, nil
}

// CreateRepayment records a repayment against an owned loan. When the single
// repayment covers the loan amount the loan is marked paid in the same
// transaction as the insert.
func (s *repaymentService) CreateRepayment(ctx context.Context, principal ownership.Principal, loanID int64, in CreateInput) (_ *Repayment, err error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("loanID", loanID))
	log.InfoContext(ctx, "Attempting to record repayment")

	l, err := s.loans.GetLoan(ctx, principal, loanID)
	if err != nil {
		log.WarnContext(ctx, "Repaid loan could not be resolved", slog.Any("error", err))
		return nil, err
	}

	r := NewRepayment(principal.String(), l.ID, in)
	if err := r.Validate(); err != nil {
		log.WarnContext(ctx, "Validation failed for new repayment", slog.Any("error", err))
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}

	settled := false
	defer func() {
		status := "recorded"
		if settled {
			status = "settled"
		}
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "Panic occurred while recording repayment", slog.Any("panic", p))
			_ = s.repo.RollbackTx(ctx, tx)
			monitoring.RecordRepayment("failure")
			panic(p)
		} else if err != nil {
			log.ErrorContext(ctx, "Rolling back repayment transaction", slog.Any("error", err))
			_ = s.repo.RollbackTx(ctx, tx)
			status = "failure"
		}
		monitoring.RecordRepayment(status)
	}()

	if err = s.repo.CreateInTx(ctx, tx, r); err != nil {
		return nil, fmt.Errorf("failed to save repayment: %w", err)
	}

	if loan.SettlesLoan(l, r.Amount) {
		settled, err = s.loanRepo.MarkPaidInTx(ctx, tx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark loan %d paid: %w", l.ID, err)
		}
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		settled = false
		return nil, fmt.Errorf("failed to commit repayment: %w", err)
	}

	r.Loan = &LoanRef{Amount: l.Amount, Description: l.Description}
	log = log.With(slog.Int64("repaymentID", r.ID), slog.Bool("settled", settled))

	s.publishCreated(ctx, r, settled)
	if settled {
		previous := l.Status
		l.Status = loan.StatusPaid
		monitoring.RecordStatusTransition(string(loan.StatusPaid))
		if pubErr := s.pub.PublishLoanStatusChanged(ctx, loan.NewStatusChangedEvent(l, previous, loan.StatusPaid, "repayment covered loan amount")); pubErr != nil {
			log.ErrorContext(ctx, "Loan settled, but FAILED to publish status change event", slog.Any("error", pubErr))
		}
	}
	s.invalidateSummary(ctx, principal)

	log.InfoContext(ctx, "Successfully recorded repayment")
	return r, nil
}

// UpdateRepayment changes the amount only. It never re-evaluates the loan
// status; settlement is decided when a repayment is created.
func (s *repaymentService) UpdateRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64, in UpdateInput) (*Repayment, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("repaymentID", repaymentID))
	log.InfoContext(ctx, "Attempting to update repayment")

	r, err := s.GetRepayment(ctx, principal, repaymentID)
	if err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		return r, nil
	}

	r.Apply(in)
	if err := r.Validate(); err != nil {
		log.WarnContext(ctx, "Validation failed for repayment update", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Update(ctx, r); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, repaymentNotFound)
			return nil, fmt.Errorf("%w: repayment not found with id of %d", apperrors.ErrNotFound, repaymentID)
		}
		log.ErrorContext(ctx, "Repository failed to save repayment update", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update repayment %d: %w", repaymentID, err)
	}
	s.invalidateSummary(ctx, principal)

	log.InfoContext(ctx, "Successfully updated repayment")
	return r, nil
}

// DeleteRepayment removes the record only; a loan it settled stays paid.
func (s *repaymentService) DeleteRepayment(ctx context.Context, principal ownership.Principal, repaymentID int64) error {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("repaymentID", repaymentID))
	log.InfoContext(ctx, "Attempting to delete repayment")

	if _, err := s.GetRepayment(ctx, principal, repaymentID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, repaymentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, repaymentNotFound)
			return fmt.Errorf("%w: repayment not found with id of %d", apperrors.ErrNotFound, repaymentID)
		}
		log.ErrorContext(ctx, "Repository error deleting repayment", slog.Any("error", err))
		return fmt.Errorf("failed to delete repayment %d: %w", repaymentID, err)
	}
	s.invalidateSummary(ctx, principal)

	log.InfoContext(ctx, "Successfully deleted repayment")
	return nil
}

func (s *repaymentService) publishCreated(ctx context.Context, r *Repayment, settled bool) {
	e := event.RepaymentEvent{
		Timestamp: time.Now(),
		Payload: event.RepaymentEventPayload{
			RepaymentID: r.ID,
			LoanID:      r.LoanID,
			OwnerID:     r.OwnerID,
			Amount:      r.Amount,
			SettledLoan: settled,
		},
	}
	if err := s.pub.PublishRepaymentCreated(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Repayment recorded, but FAILED to publish creation event",
			slog.Int64("repaymentID", r.ID), slog.Any("error", err))
	}
}

func (s *repaymentService) invalidateSummary(ctx context.Context, principal ownership.Principal) {
	if err := s.cache.Invalidate(ctx, principal.String()); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate summary cache",
			slog.String("principal", principal.String()), slog.Any("error", err))
	}
}
