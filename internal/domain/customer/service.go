package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loan-ledger/internal/domain/ownership"
	"loan-ledger/internal/event"
	"loan-ledger/internal/infrastructure/monitoring"
	"loan-ledger/internal/pkg/apperrors"
)

const customerNotFound = "Customer not found by repository"

type CustomerService interface {
	ListCustomers(ctx context.Context, principal ownership.Principal) ([]*Customer, error)
	GetCustomer(ctx context.Context, principal ownership.Principal, customerID int64) (*Customer, error)
	CreateCustomer(ctx context.Context, principal ownership.Principal, in CreateInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, principal ownership.Principal, customerID int64, in UpdateInput) (*Customer, error)
	DeleteCustomer(ctx context.Context, principal ownership.Principal, customerID int64) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewCustomerService(repo Repository, pub event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func newCustomerEvent(cust *Customer) event.CustomerEvent {
	return event.CustomerEvent{
		Timestamp: time.Now(),
		Payload: event.CustomerEventPayload{
			CustomerID: cust.ID,
			OwnerID:    cust.OwnerID,
			Name:       cust.Name,
			Phone:      cust.Phone,
			TrustScore: cust.TrustScore,
			CreatedAt:  cust.CreatedAt,
		},
	}
}

func (s *customerService) ListCustomers(ctx context.Context, principal ownership.Principal) ([]*Customer, error) {
	log := s.logger.With(slog.String("principal", principal.String()))
	log.InfoContext(ctx, "Attempting to list customers")

	customers, err := s.repo.ListByOwner(ctx, principal.String())
	if err != nil {
		log.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	log.InfoContext(ctx, "Successfully listed customers", slog.Int("count", len(customers)))
	return customers, nil
}

// GetCustomer loads a customer and checks the principal owns it. It fails
// with apperrors.ErrNotFound before apperrors.ErrForbidden.
func (s *customerService) GetCustomer(ctx context.Context, principal ownership.Principal, customerID int64) (*Customer, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("customerID", customerID))
	log.InfoContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, customerNotFound)
			return nil, fmt.Errorf("%w: customer not found with id of %d", apperrors.ErrNotFound, customerID)
		}
		log.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	if err := ownership.AuthorizeRecord(principal, cust); err != nil {
		log.WarnContext(ctx, "Principal not authorized to access this customer")
		return nil, fmt.Errorf("%w: not authorized to access customer %d", apperrors.ErrForbidden, customerID)
	}

	return cust, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, principal ownership.Principal, in CreateInput) (*Customer, error) {
	log := s.logger.With(slog.String("principal", principal.String()))
	log.InfoContext(ctx, "Attempting to create new customer")

	cust := NewCustomer(principal.String(), in)
	if err := cust.Validate(); err != nil {
		log.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Create(ctx, cust); err != nil {
		log.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	log = log.With(slog.Int64("customerID", cust.ID))
	monitoring.RecordCustomerCreated()

	if pubErr := s.pub.PublishCustomerCreated(ctx, newCustomerEvent(cust)); pubErr != nil {
		log.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	log.InfoContext(ctx, "Successfully created new customer")
	return cust, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, principal ownership.Principal, customerID int64, in UpdateInput) (*Customer, error) {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("customerID", customerID))
	log.InfoContext(ctx, "Attempting to update customer")

	cust, err := s.GetCustomer(ctx, principal, customerID)
	if err != nil {
		return nil, err
	}

	if in.IsEmpty() {
		log.InfoContext(ctx, "No customer fields supplied, skipping save")
		return cust, nil
	}

	cust.Apply(in)
	if err := cust.Validate(); err != nil {
		log.WarnContext(ctx, "Validation failed for customer update", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Update(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, "Customer disappeared before save completed")
			return nil, fmt.Errorf("%w: customer not found with id of %d", apperrors.ErrNotFound, customerID)
		}
		log.ErrorContext(ctx, "Repository failed to save customer update", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}

	log.InfoContext(ctx, "Successfully updated customer")
	return cust, nil
}

// DeleteCustomer removes only the customer row. Loans that reference it are
// kept and keep pointing at the removed id.
func (s *customerService) DeleteCustomer(ctx context.Context, principal ownership.Principal, customerID int64) error {
	log := s.logger.With(slog.String("principal", principal.String()), slog.Int64("customerID", customerID))
	log.InfoContext(ctx, "Attempting to delete customer")

	cust, err := s.GetCustomer(ctx, principal, customerID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, customerNotFound)
			return fmt.Errorf("%w: customer not found with id of %d", apperrors.ErrNotFound, customerID)
		}
		log.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	if pubErr := s.pub.PublishCustomerDeleted(ctx, newCustomerEvent(cust)); pubErr != nil {
		log.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}

	log.InfoContext(ctx, "Successfully deleted customer")
	return nil
}
