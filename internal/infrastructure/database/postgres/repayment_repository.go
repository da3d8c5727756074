package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loan-ledger/internal/domain/repayment"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const repaymentSelect = `
        SELECT r.id, r.amount, r.loan_id, r.owner_id, r.created_at, r.updated_at, l.amount, l.description
        FROM repayments r
        LEFT JOIN loans l ON l.id = r.loan_id`

type RepaymentRepository struct {
	txRunner
	db     DBPool
	logger *slog.Logger
}

var _ repayment.Repository = (*RepaymentRepository)(nil)

func NewRepaymentRepository(db DBPool, logger *slog.Logger) *RepaymentRepository {
	if db == nil {
		panic("DBPool cannot be nil for RepaymentRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewRepaymentRepository, using default stderr handler")
	}
	logger = logger.With("component", "RepaymentRepository")
	return &RepaymentRepository{
		txRunner: txRunner{db: db, logger: logger},
		db:       db,
		logger:   logger,
	}
}

func scanRepayment(row pgx.Row) (*repayment.Repayment, error) {
	var (
		rp          repayment.Repayment
		loanAmount  *float64
		description *string
	)
	err := row.Scan(
		&rp.ID,
		&rp.Amount,
		&rp.LoanID,
		&rp.OwnerID,
		&rp.CreatedAt,
		&rp.UpdatedAt,
		&loanAmount,
		&description,
	)
	if err != nil {
		return nil, err
	}
	if loanAmount != nil {
		ref := &repayment.LoanRef{Amount: *loanAmount}
		if description != nil {
			ref.Description = *description
		}
		rp.Loan = ref
	}
	return &rp, nil
}

func (r *RepaymentRepository) collect(ctx context.Context, queryName, query string, args ...any) ([]*repayment.Repayment, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		recordQuery(queryName, start, err)
		r.logger.ErrorContext(ctx, "Failed to query repayments", slog.String("query", queryName), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query repayments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	repayments := make([]*repayment.Repayment, 0)
	for rows.Next() {
		rp, err := scanRepayment(rows)
		if err != nil {
			recordQuery(queryName, start, err)
			r.logger.ErrorContext(ctx, "Failed to scan repayment row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan repayment row: %w", apperrors.ErrDatabase, err)
		}
		repayments = append(repayments, rp)
	}

	err = rows.Err()
	recordQuery(queryName, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating repayment rows", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return repayments, nil
}

func (r *RepaymentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, rp *repayment.Repayment) error {
	if rp == nil {
		return fmt.Errorf("%w: repayment cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO repayments (amount, loan_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := tx.QueryRow(ctx, query, rp.Amount, rp.LoanID, rp.OwnerID).
		Scan(&rp.ID, &rp.CreatedAt, &rp.UpdatedAt)
	recordQuery("CreateRepayment", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert repayment", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Repayment inserted successfully", slog.Int64("repaymentID", rp.ID))
	return nil
}

func (r *RepaymentRepository) FindByID(ctx context.Context, repaymentID int64) (*repayment.Repayment, error) {
	query := repaymentSelect + ` WHERE r.id = $1`

	start := time.Now()
	rp, err := scanRepayment(r.db.QueryRow(ctx, query, repaymentID))
	recordQuery("FindRepaymentByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Repayment not found", slog.Int64("repaymentID", repaymentID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get repayment by ID", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return rp, nil
}

// Update rewrites the amount only; loan_id and owner_id are immutable.
func (r *RepaymentRepository) Update(ctx context.Context, rp *repayment.Repayment) error {
	query := `
        UPDATE repayments
        SET amount = $1,
            updated_at = NOW()
        WHERE id = $2
        RETURNING updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query, rp.Amount, rp.ID).Scan(&rp.UpdatedAt)
	recordQuery("UpdateRepayment", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update matched zero rows, repayment likely not found", slog.Int64("repaymentID", rp.ID))
			return apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to update repayment", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *RepaymentRepository) Delete(ctx context.Context, repaymentID int64) error {
	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM repayments WHERE id = $1`, repaymentID)
	recordQuery("DeleteRepayment", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute delete repayment", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete repayment: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, repayment likely not found", slog.Int64("repaymentID", repaymentID))
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RepaymentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*repayment.Repayment, error) {
	query := repaymentSelect + ` WHERE r.owner_id = $1 ORDER BY r.id ASC`
	return r.collect(ctx, "ListRepaymentsByOwner", query, ownerID)
}

func (r *RepaymentRepository) ListByLoan(ctx context.Context, ownerID string, loanID int64) ([]*repayment.Repayment, error) {
	query := repaymentSelect + ` WHERE r.owner_id = $1 AND r.loan_id = $2 ORDER BY r.id ASC`
	return r.collect(ctx, "ListRepaymentsByLoan", query, ownerID, loanID)
}
