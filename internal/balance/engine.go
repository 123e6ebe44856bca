// Package balance reconciles a customer's payments against their invoices
// and recurring charge.
//
// The engine has two modes. While the customer has pending invoices the
// balance is what those invoices still need after crediting payments that
// were not already consumed by paid invoices. Without pending invoices the
// balance falls back to the recurring charge minus everything ever paid.
// Both modes floor at zero; overpayment never shows as a negative balance.
package balance

import "cablebill/internal/core"

// Result is the reconciled position of one customer.
type Result struct {
	Found bool

	// Paid is the lifetime sum of the customer's payments.
	Paid core.Money
	// Balance is the amount still owed, never negative.
	Balance core.Money
	// TotalDue is the pending-invoice total, or the recurring charge when
	// nothing is pending.
	TotalDue core.Money

	PendingInvoices core.Money
	PaidInvoices    core.Money
	// Available is payments not consumed by paid invoices. May be negative.
	Available core.Money

	// Charge is the customer's recurring amount at computation time.
	Charge core.Money
}

// Compute derives the customer's balance from the book. An unknown customer
// yields a zero Result with Found unset.
func Compute(book core.Book, customerID string) Result {
	customer, ok := book.Customer(customerID)
	if !ok {
		return Result{}
	}

	var paid core.Money
	for _, p := range book.Payments {
		if p.CustomerID == customerID {
			paid = paid.Add(p.Amount)
		}
	}

	var pending, paidInv core.Money
	for _, inv := range book.Invoices {
		if inv.CustomerID != customerID {
			continue
		}
		switch inv.Status {
		case core.InvoicePending:
			pending = pending.Add(inv.Amount)
		case core.InvoicePaid:
			paidInv = paidInv.Add(inv.Amount)
		}
	}

	available := paid.Sub(paidInv)

	r := Result{
		Found:           true,
		Paid:            paid,
		PendingInvoices: pending,
		PaidInvoices:    paidInv,
		Available:       available,
		Charge:          customer.Amount,
	}
	if pending.IsPositive() {
		r.Balance = pending.Sub(available).FloorZero()
		r.TotalDue = pending
	} else {
		r.Balance = customer.Amount.Sub(paid).FloorZero()
		r.TotalDue = customer.Amount
	}
	return r
}

// Credit is how far lifetime payments exceed the recurring charge when no
// invoice is pending. It only drives the "+credit" label and never reduces
// Balance below zero.
func (r Result) Credit() core.Money {
	if r.PendingInvoices.IsPositive() {
		return core.Money{}
	}
	return r.Paid.Sub(r.Charge).FloorZero()
}

// Label renders the balance column: the amount owed, "+Rs. x" for credit,
// or "Rs. 0.00" when settled.
func (r Result) Label() string {
	switch {
	case r.Balance.IsPositive():
		return core.FormatCurrency(r.Balance)
	case r.Credit().IsPositive():
		return "+" + core.FormatCurrency(r.Credit())
	default:
		return core.FormatCurrency(core.Money{})
	}
}
