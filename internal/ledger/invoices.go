package ledger

import (
	"context"
	"fmt"
	"time"

	"cablebill/internal/core"
	"cablebill/internal/log"
	"cablebill/internal/store"
)

// GenerateInvoiceID hands out the next INVnnnnnn id.
func (r *Repository) GenerateInvoiceID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generateInvoiceIDLocked()
}

func (r *Repository) generateInvoiceIDLocked() string {
	id := fmt.Sprintf("INV%06d", r.nextInvoiceID)
	r.nextInvoiceID++
	r.persist.enqueueCounter(store.NextInvoiceID, r.nextInvoiceID)
	return id
}

// GenerateMonthlyInvoices bills every active customer their recurring
// charge, skipping customers that already have a pending invoice dated in
// the current month. A paid invoice this month does not block a new one.
// Customers whose stored charge is out of range are skipped with a warning.
// It returns the invoices it created.
func (r *Repository) GenerateMonthlyInvoices(ctx context.Context) []core.Invoice {
	today := r.Today()
	month := today.MonthKey()

	r.mu.Lock()
	var created []core.Invoice
	for _, c := range r.customers {
		if !c.IsActive() || r.hasPendingInMonthLocked(c.ID, month) {
			continue
		}
		inv := core.Invoice{
			CustomerID: c.ID,
			Amount:     c.Amount,
			Date:       today,
			Status:     core.InvoicePending,
			CreatedAt:  r.now(),
		}
		if err := inv.Validate(); err != nil {
			r.logger.WarnContext(ctx, "Skipping customer with invalid charge",
				log.FieldCustomerID, c.ID, log.FieldAmount, c.Amount.Value(),
				log.FieldError, err, log.FieldErrorType, log.ErrorTypeValidation)
			continue
		}
		inv.ID = r.generateInvoiceIDLocked()
		r.invoices = append(r.invoices, inv)
		created = append(created, inv)
	}
	if len(created) > 0 {
		r.saveInvoicesLocked()
	}
	names := r.namesLocked(created)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Monthly invoices generated",
		log.FieldMonth, month, log.FieldRecords, len(created))
	for i, inv := range created {
		r.publish(ctx, invoiceEvent(InvoiceGenerated, inv, names[i]))
	}
	return created
}

// GenerateInvoice bills one customer. A nil amount means the customer's
// recurring charge. There is no once-per-month check here.
func (r *Repository) GenerateInvoice(ctx context.Context, customerID string, amount *core.Money) (core.Invoice, bool) {
	r.mu.Lock()
	i := r.customerIndexLocked(customerID)
	if i < 0 {
		r.mu.Unlock()
		r.notFound("customer", customerID)
		return core.Invoice{}, false
	}
	c := r.customers[i]
	inv := core.Invoice{
		ID:         r.generateInvoiceIDLocked(),
		CustomerID: customerID,
		Amount:     c.Amount,
		Date:       r.Today(),
		Status:     core.InvoicePending,
		CreatedAt:  r.now(),
	}
	if amount != nil {
		inv.Amount = *amount
	}
	r.invoices = append(r.invoices, inv)
	r.saveInvoicesLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Invoice generated",
		log.FieldInvoiceID, inv.ID, log.FieldCustomerID, customerID, log.FieldAmount, inv.Amount.Value())
	r.publish(ctx, invoiceEvent(InvoiceGenerated, inv, c.Name))
	return inv, true
}

// MarkInvoicePaid moves a pending invoice to paid. Paid is terminal, so
// marking an already paid or unknown invoice returns false.
func (r *Repository) MarkInvoicePaid(ctx context.Context, id string) (core.Invoice, bool) {
	r.mu.Lock()
	i := r.invoiceIndexLocked(id)
	if i < 0 || r.invoices[i].Status != core.InvoicePending {
		r.mu.Unlock()
		r.notFound("pending invoice", id)
		return core.Invoice{}, false
	}
	r.invoices[i].Status = core.InvoicePaid
	inv := r.invoices[i]
	r.saveInvoicesLocked()
	name := r.bookLocked().CustomerName(inv.CustomerID)
	r.mu.Unlock()

	r.publish(ctx, invoiceEvent(InvoicePaid, inv, name))
	return inv, true
}

func (r *Repository) Invoice(id string) (core.Invoice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.invoiceIndexLocked(id); i >= 0 {
		return r.invoices[i], true
	}
	return core.Invoice{}, false
}

func (r *Repository) Invoices() []core.Invoice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.Invoice(nil), r.invoices...)
}

// LastBilledMonth is the YYYY-MM month the billing scheduler last ran,
// or "" if it never has.
func (r *Repository) LastBilledMonth() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastBilledMonth < 100 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", r.lastBilledMonth/100, r.lastBilledMonth%100)
}

// MarkMonthBilled records month (YYYY-MM) as billed by the scheduler. The
// mark is a persisted counter, so it survives restarts. Earlier months
// never overwrite a later mark.
func (r *Repository) MarkMonthBilled(month string) error {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return fmt.Errorf("parse billing month %q: %w", month, err)
	}
	v := int64(t.Year()*100 + int(t.Month()))

	r.mu.Lock()
	defer r.mu.Unlock()
	if v > r.lastBilledMonth {
		r.lastBilledMonth = v
		r.persist.enqueueCounter(store.LastBilledMonth, v)
	}
	return nil
}

func (r *Repository) hasPendingInMonthLocked(customerID, month string) bool {
	for _, inv := range r.invoices {
		if inv.CustomerID == customerID && inv.Status == core.InvoicePending && inv.Date.MonthKey() == month {
			return true
		}
	}
	return false
}

func (r *Repository) invoiceIndexLocked(id string) int {
	for i := range r.invoices {
		if r.invoices[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) namesLocked(invoices []core.Invoice) []string {
	book := r.bookLocked()
	names := make([]string, len(invoices))
	for i, inv := range invoices {
		names[i] = book.CustomerName(inv.CustomerID)
	}
	return names
}

func invoiceEvent(t EventType, inv core.Invoice, customerName string) Event {
	return Event{
		Type:         t,
		CustomerID:   inv.CustomerID,
		CustomerName: customerName,
		InvoiceID:    inv.ID,
		Amount:       inv.Amount,
		Date:         inv.Date,
		Month:        inv.Date.MonthKey(),
	}
}
