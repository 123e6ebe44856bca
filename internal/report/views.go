package report

import (
	"sort"
	"strings"

	"cablebill/internal/balance"
	"cablebill/internal/core"
)

// MethodAll disables method filtering.
const MethodAll = "all"

// CustomerRow is one line of the customer list.
type CustomerRow struct {
	core.Customer
	Paid         core.Money `json:"paid"`
	Balance      core.Money `json:"balance"`
	BalanceLabel string     `json:"balanceLabel"`
	StatusLabel  string     `json:"statusLabel"`
}

// CustomerRows renders every customer with paid total, balance and status.
func CustomerRows(book core.Book, today core.Date) []CustomerRow {
	rows := make([]CustomerRow, 0, len(book.Customers))
	for _, c := range book.Customers {
		res := balance.Compute(book, c.ID)
		rows = append(rows, CustomerRow{
			Customer:     c,
			Paid:         res.Paid,
			Balance:      res.Balance,
			BalanceLabel: res.Label(),
			StatusLabel:  StatusLabel(c, today),
		})
	}
	return rows
}

// StatusLabel is "Inactive", "Expired" or "Active".
func StatusLabel(c core.Customer, today core.Date) string {
	switch {
	case !c.IsActive():
		return "Inactive"
	case c.IsExpired(today):
		return "Expired"
	default:
		return "Active"
	}
}

// SearchCustomers matches term case-insensitively against name, phone,
// set-top box number and id. A blank term returns everyone.
func SearchCustomers(book core.Book, term string) []core.Customer {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]core.Customer(nil), book.Customers...)
	}
	var out []core.Customer
	for _, c := range book.Customers {
		for _, field := range []string{c.Name, c.Phone, c.STBNumber, c.ID} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// PaymentRows lists payments newest first, optionally by method.
func PaymentRows(book core.Book, method string) []PaymentRow {
	var rows []PaymentRow
	for _, p := range book.Payments {
		if method != "" && method != MethodAll && string(p.Method) != method {
			continue
		}
		rows = append(rows, PaymentRow{Payment: p, CustomerName: book.CustomerName(p.CustomerID)})
	}
	sortNewestFirst(rows)
	return rows
}

type InvoiceRow struct {
	core.Invoice
	CustomerName string `json:"customerName"`
	STBNumber    string `json:"stbNumber"`
}

// InvoiceRows lists invoices newest first with customer details resolved.
func InvoiceRows(book core.Book) []InvoiceRow {
	rows := make([]InvoiceRow, 0, len(book.Invoices))
	for _, inv := range book.Invoices {
		row := InvoiceRow{Invoice: inv, CustomerName: core.UnknownCustomerName}
		if c, ok := book.Customer(inv.CustomerID); ok {
			row.CustomerName = c.Name
			row.STBNumber = c.STBNumber
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.IsAfter(rows[j].Date)
	})
	return rows
}
