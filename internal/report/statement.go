package report

import (
	"sort"

	"cablebill/internal/balance"
	"cablebill/internal/core"
)

// StatementFilter narrows a statement. Empty fields match everything.
type StatementFilter struct {
	CustomerID string
	Month      string // YYYY-MM
}

type PaymentRow struct {
	core.Payment
	CustomerName string `json:"customerName"`
}

// CustomerSummary is shown when a statement is scoped to one customer.
type CustomerSummary struct {
	CustomerID   string     `json:"customerId"`
	CustomerName string     `json:"customerName"`
	TotalPaid    core.Money `json:"totalPaid"`
	Balance      core.Money `json:"balance"`
	PaymentCount int        `json:"paymentCount"`
}

type Statement struct {
	Rows     []PaymentRow     `json:"payments"`
	Total    core.Money       `json:"total"`
	Customer *CustomerSummary `json:"customer,omitempty"`
}

// BuildStatement lists matching payments newest first. When the filter
// names a customer the summary carries the filtered total and count plus
// the customer's current engine balance.
func BuildStatement(book core.Book, f StatementFilter) Statement {
	var st Statement
	for _, p := range book.Payments {
		if f.CustomerID != "" && p.CustomerID != f.CustomerID {
			continue
		}
		if f.Month != "" && paymentMonth(p) != f.Month {
			continue
		}
		st.Rows = append(st.Rows, PaymentRow{Payment: p, CustomerName: book.CustomerName(p.CustomerID)})
		st.Total = st.Total.Add(p.Amount)
	}
	sortNewestFirst(st.Rows)

	if f.CustomerID != "" {
		st.Customer = &CustomerSummary{
			CustomerID:   f.CustomerID,
			CustomerName: book.CustomerName(f.CustomerID),
			TotalPaid:    st.Total,
			Balance:      balance.Compute(book, f.CustomerID).Balance,
			PaymentCount: len(st.Rows),
		}
	}
	return st
}

func paymentMonth(p core.Payment) string {
	if p.Month != "" {
		return p.Month
	}
	return p.Date.MonthKey()
}

func sortNewestFirst(rows []PaymentRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.IsAfter(rows[j].Date)
	})
}
