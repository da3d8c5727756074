package event

import "context"

// NoopPublisher drops every event. It is used when RabbitMQ is disabled.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) PublishCustomerCreated(context.Context, CustomerEvent) error { return nil }

func (NoopPublisher) PublishCustomerDeleted(context.Context, CustomerEvent) error { return nil }

func (NoopPublisher) PublishLoanCreated(context.Context, LoanEvent) error { return nil }

func (NoopPublisher) PublishLoanStatusChanged(context.Context, LoanStatusChangedEvent) error {
	return nil
}

func (NoopPublisher) PublishLoanDeleted(context.Context, LoanEvent) error { return nil }

func (NoopPublisher) PublishRepaymentCreated(context.Context, RepaymentEvent) error { return nil }

func (NoopPublisher) PublishOverdueDigest(context.Context, OverdueDigestEvent) error { return nil }
