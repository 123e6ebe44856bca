package ledger

import (
	"context"

	"cablebill/internal/balance"
	"cablebill/internal/core"
	"cablebill/internal/log"
)

// PaymentPatch lists the fields an edit may change. Nil fields are kept.
type PaymentPatch struct {
	CustomerID    *string
	Amount        *core.Money
	Method        *core.PaymentMethod
	Date          *core.Date
	TransactionID *string
}

func (p PaymentPatch) apply(pay *core.Payment) {
	if p.CustomerID != nil {
		pay.CustomerID = *p.CustomerID
	}
	if p.Amount != nil {
		pay.Amount = *p.Amount
	}
	if p.Method != nil {
		pay.Method = *p.Method
	}
	if p.Date != nil {
		pay.Date = *p.Date
	}
	if p.TransactionID != nil {
		pay.TransactionID = *p.TransactionID
	}
}

// stampBalance fills the derived fields from the customer's balance as the
// engine sees it right now.
func stampBalance(p *core.Payment, before core.Money) {
	p.Month = p.Date.MonthKey()
	p.BalanceBefore = before
	p.BalanceAfter = before.Sub(p.Amount).FloorZero()
}

// AddPayment records a payment for an existing customer. The balance
// snapshot is taken before the payment lands. An unknown customer makes
// this a no-op returning false.
func (r *Repository) AddPayment(ctx context.Context, p core.Payment) (core.Payment, bool) {
	if p.Date.IsZero() {
		p.Date = r.Today()
	}
	if p.Method == "" {
		p.Method = core.MethodCash
	}

	r.mu.RLock()
	customer, ok := r.bookLocked().Customer(p.CustomerID)
	var before core.Money
	if ok {
		before = balance.Compute(r.bookLocked(), p.CustomerID).Balance
	}
	r.mu.RUnlock()
	if !ok {
		r.notFound("customer", p.CustomerID)
		return core.Payment{}, false
	}

	p.ID = ""
	stampBalance(&p, before)
	p.CreatedAt = r.now()

	if r.remote != nil {
		created, err := r.remote.CreatePayment(ctx, p)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "Remote payment create failed, using local id",
				log.FieldError, err, log.FieldErrorType, log.ErrorTypeRemote)
		case created.ID != "":
			p.ID = created.ID
			if !created.CreatedAt.IsZero() {
				p.CreatedAt = created.CreatedAt
			}
		}
	}

	r.mu.Lock()
	if p.ID == "" {
		p.ID = r.timestampIDLocked("PAY")
	}
	r.payments = append(r.payments, p)
	r.savePaymentsLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Payment recorded",
		log.NewFields().WithPayment(p.ID, p.CustomerID, p.Amount.Value(), string(p.Method)).ToSlice()...)
	r.publish(ctx, Event{
		Type:         PaymentRecorded,
		CustomerID:   p.CustomerID,
		CustomerName: customer.Name,
		PaymentID:    p.ID,
		Amount:       p.Amount,
		Method:       p.Method,
		Date:         p.Date,
		Month:        p.Month,
	})
	return p, true
}

// UpdatePayment shallow-merges patch and recomputes month and balance
// snapshots against the current state, not the state at creation time.
// The edit is dropped if the payment or its (possibly new) customer is
// unknown.
func (r *Repository) UpdatePayment(id string, patch PaymentPatch) (core.Payment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.paymentIndexLocked(id)
	if i < 0 {
		r.notFound("payment", id)
		return core.Payment{}, false
	}
	merged := r.payments[i]
	patch.apply(&merged)

	book := r.bookLocked()
	if _, ok := book.Customer(merged.CustomerID); !ok {
		r.notFound("customer", merged.CustomerID)
		return core.Payment{}, false
	}
	stampBalance(&merged, balance.Compute(book, merged.CustomerID).Balance)

	r.payments[i] = merged
	r.savePaymentsLocked()
	return merged, true
}

func (r *Repository) DeletePayment(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.paymentIndexLocked(id)
	if i < 0 {
		r.notFound("payment", id)
		return false
	}
	r.payments = append(r.payments[:i:i], r.payments[i+1:]...)
	r.savePaymentsLocked()
	return true
}

func (r *Repository) Payment(id string) (core.Payment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.paymentIndexLocked(id); i >= 0 {
		return r.payments[i], true
	}
	return core.Payment{}, false
}

func (r *Repository) Payments() []core.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.Payment(nil), r.payments...)
}

// ReplacePayments swaps the whole collection, as a remote pull does.
// Incoming payments without a month get one derived from their date.
func (r *Repository) ReplacePayments(payments []core.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append([]core.Payment(nil), payments...)
	fillMonths(r.payments)
	r.savePaymentsLocked()
}

func (r *Repository) paymentIndexLocked(id string) int {
	for i := range r.payments {
		if r.payments[i].ID == id {
			return i
		}
	}
	return -1
}
