package sheets

import (
	"context"
	"errors"

	"cablebill/internal/core"
)

// ErrNotInitialized is returned when an exporter has no backing service.
var ErrNotInitialized = errors.New("sheets service not initialized")

// PaymentRow is one exported payment. Columns are written in field order.
type PaymentRow struct {
	Date         core.Date
	Month        string
	CustomerID   string
	CustomerName string
	Amount       core.Money
	Method       core.PaymentMethod
	PaymentID    string
}

// Validate checks the fields every exported row must carry.
func (r PaymentRow) Validate() error {
	if r.PaymentID == "" {
		return errors.New("missing payment id")
	}
	if r.CustomerID == "" {
		return core.ErrMissingCustomer
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	return r.Amount.Validate()
}

// Ports for outbound adapters.
type (
	PaymentExporter interface {
		AppendPayment(ctx context.Context, row PaymentRow) (rowRef string, err error)
	}

	// PaymentIndex reports which payments were already exported, so a
	// redelivered event does not produce a duplicate row.
	PaymentIndex interface {
		HasPayment(ctx context.Context, paymentID string) (bool, error)
	}
)
