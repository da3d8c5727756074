package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const loanSelect = `
        SELECT l.id, l.amount, l.description, l.due_date, l.status, l.customer_id, l.owner_id,
               l.created_at, l.updated_at, c.name, c.phone
        FROM loans l
        LEFT JOIN customers c ON c.id = l.customer_id`

// overdueClause mirrors loan.IsEffectivelyOverdue. It binds three
// consecutive parameters from first: the overdue status, the pending status
// and the evaluation time.
func overdueClause(first int) string {
	return fmt.Sprintf("(l.status = $%d OR (l.status = $%d AND l.due_date < $%d))", first, first+1, first+2)
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewLoanRepository, using default stderr handler")
	}
	return &LoanRepository{
		db:     db,
		logger: logger.With("component", "LoanRepository"),
	}
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l           loan.Loan
		status      string
		name, phone *string
	)
	err := row.Scan(
		&l.ID,
		&l.Amount,
		&l.Description,
		&l.DueDate,
		&status,
		&l.CustomerID,
		&l.OwnerID,
		&l.CreatedAt,
		&l.UpdatedAt,
		&name,
		&phone,
	)
	if err != nil {
		return nil, err
	}
	l.Status = loan.Status(status)
	if name != nil {
		ref := &loan.CustomerRef{Name: *name}
		if phone != nil {
			ref.Phone = *phone
		}
		l.Customer = ref
	}
	return &l, nil
}

func (r *LoanRepository) collect(ctx context.Context, queryName, query string, args ...any) ([]*loan.Loan, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		recordQuery(queryName, start, err)
		r.logger.ErrorContext(ctx, "Failed to query loans", slog.String("query", queryName), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			recordQuery(queryName, start, err)
			r.logger.ErrorContext(ctx, "Failed to scan loan row", slog.String("query", queryName), slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}

	err = rows.Err()
	recordQuery(queryName, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", slog.String("query", queryName), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO loans (amount, description, due_date, status, customer_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		l.Amount,
		l.Description,
		l.DueDate,
		string(l.Status),
		l.CustomerID,
		l.OwnerID,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	recordQuery("CreateLoan", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan inserted successfully", slog.Int64("loanID", l.ID))
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := loanSelect + ` WHERE l.id = $1`

	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	recordQuery("FindLoanByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

// Update writes amount, description, due date and status while the stored
// status still equals expected. When no row matches, a missing loan is
// ErrNotFound and one whose status moved underneath the caller, such as a
// concurrent settlement, is ErrConflict.
func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan, expected loan.Status) error {
	query := `
        UPDATE loans
        SET amount = $1,
            description = $2,
            due_date = $3,
            status = $4,
            updated_at = NOW()
        WHERE id = $5 AND status = $6
        RETURNING updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		l.Amount,
		l.Description,
		l.DueDate,
		string(l.Status),
		l.ID,
		string(expected),
	).Scan(&l.UpdatedAt)
	recordQuery("UpdateLoan", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOrConflict(ctx, l.ID, expected)
		}
		r.logger.ErrorContext(ctx, "Failed to update loan", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan updated successfully", slog.Int64("loanID", l.ID))
	return nil
}

func (r *LoanRepository) missingOrConflict(ctx context.Context, loanID int64, expected loan.Status) error {
	var exists bool
	start := time.Now()
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`, loanID).Scan(&exists)
	recordQuery("LoanExists", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check loan existence", slog.Int64("loanID", loanID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	if !exists {
		r.logger.WarnContext(ctx, "Update matched zero rows, loan not found", slog.Int64("loanID", loanID))
		return apperrors.ErrNotFound
	}
	r.logger.WarnContext(ctx, "Loan status changed during update", slog.Int64("loanID", loanID), slog.String("expected", string(expected)))
	return fmt.Errorf("%w: loan %d is no longer %s", apperrors.ErrConflict, loanID, expected)
}

func (r *LoanRepository) Delete(ctx context.Context, loanID int64) error {
	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM loans WHERE id = $1`, loanID)
	recordQuery("DeleteLoan", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute delete loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete loan: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, loan likely not found", slog.Int64("loanID", loanID))
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Loan deleted successfully", slog.Int64("loanID", loanID))
	return nil
}

func (r *LoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]*loan.Loan, error) {
	query := loanSelect + ` WHERE l.owner_id = $1 ORDER BY l.id ASC`
	return r.collect(ctx, "ListLoansByOwner", query, ownerID)
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, ownerID string, customerID int64) ([]*loan.Loan, error) {
	query := loanSelect + ` WHERE l.owner_id = $1 AND l.customer_id = $2 ORDER BY l.id ASC`
	return r.collect(ctx, "ListLoansByCustomer", query, ownerID, customerID)
}

func (r *LoanRepository) ListOverdue(ctx context.Context, ownerID string, now time.Time) ([]*loan.Loan, error) {
	query := loanSelect + ` WHERE l.owner_id = $1 AND ` + overdueClause(2) + ` ORDER BY l.due_date ASC, l.id ASC`
	return r.collect(ctx, "ListOverdueLoans", query,
		ownerID, string(loan.StatusOverdue), string(loan.StatusPending), now)
}

func (r *LoanRepository) ListOwnersWithOverdue(ctx context.Context, now time.Time) ([]string, error) {
	query := `
        SELECT DISTINCT l.owner_id
        FROM loans l
        WHERE ` + overdueClause(1) + `
        ORDER BY l.owner_id`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, string(loan.StatusOverdue), string(loan.StatusPending), now)
	if err != nil {
		recordQuery("ListOwnersWithOverdue", start, err)
		r.logger.ErrorContext(ctx, "Failed to query owners with overdue loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query owners with overdue loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	owners := make([]string, 0)
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			recordQuery("ListOwnersWithOverdue", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan owner row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan owner row: %w", apperrors.ErrDatabase, err)
		}
		owners = append(owners, owner)
	}

	err = rows.Err()
	recordQuery("ListOwnersWithOverdue", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return owners, nil
}

func (r *LoanRepository) MarkPaidInTx(ctx context.Context, tx pgx.Tx, loanID int64) (bool, error) {
	query := `UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1`

	start := time.Now()
	cmdTag, err := tx.Exec(ctx, query, string(loan.StatusPaid), loanID)
	recordQuery("MarkLoanPaid", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark loan paid", slog.Int64("loanID", loanID), slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to mark loan paid: %w", apperrors.ErrDatabase, err)
	}

	changed := cmdTag.RowsAffected() > 0
	r.logger.InfoContext(ctx, "Loan paid transition applied", slog.Int64("loanID", loanID), slog.Bool("changed", changed))
	return changed, nil
}
