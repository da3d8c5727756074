// Package eventmock provides a testify mock of event.Publisher.
package eventmock

import (
	"context"

	"loan-ledger/internal/event"

	"github.com/stretchr/testify/mock"
)

type Publisher struct {
	mock.Mock
}

var _ event.Publisher = (*Publisher)(nil)

func (m *Publisher) PublishCustomerCreated(ctx context.Context, e event.CustomerEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Publisher) PublishCustomerDeleted(ctx context.Context, e event.CustomerEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Publisher) PublishLoanCreated(ctx context.Context, e event.LoanEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Publisher) PublishLoanStatusChanged(ctx context.Context, e event.LoanStatusChangedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Publisher) PublishLoanDeleted(ctx context.Context, e event.LoanEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Publisher) PublishRepaymentCreated(ctx context.Context, e event.RepaymentEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Publisher) PublishOverdueDigest(ctx context.Context, e event.OverdueDigestEvent) error {
	return m.Called(ctx, e).Error(0)
}
