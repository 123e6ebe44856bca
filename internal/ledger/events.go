package ledger

import (
	"context"
	"time"

	"cablebill/internal/core"
)

type EventType string

const (
	CustomerCreated  EventType = "customer.created"
	PaymentRecorded  EventType = "payment.recorded"
	InvoiceGenerated EventType = "invoice.generated"
	InvoicePaid      EventType = "invoice.paid"
)

// Event describes a ledger mutation that other systems may want to mirror.
type Event struct {
	Type         EventType
	CustomerID   string
	CustomerName string
	PaymentID    string
	InvoiceID    string
	Amount       core.Money
	Method       core.PaymentMethod
	Date         core.Date
	Month        string
	At           time.Time
}

// Publisher receives ledger events. Failures are logged and never undo the
// mutation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RemoteCreator creates records on a sync server so that they get
// server-assigned IDs. Any error makes the repository fall back to a local ID.
type RemoteCreator interface {
	CreateCustomer(ctx context.Context, c core.Customer) (core.Customer, error)
	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
}

func (r *Repository) publish(ctx context.Context, e Event) {
	if r.publisher == nil {
		return
	}
	e.At = r.now()
	if err := r.publisher.Publish(ctx, e); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"event_type", e.Type, "error", err)
	}
}
