package core

// Book is a point-in-time copy of every ledger collection. Reports and the
// balance engine read from a Book and never from live repository state.
type Book struct {
	Customers []Customer
	Payments  []Payment
	Expenses  []Expense
	Invoices  []Invoice
}

// Customer looks a customer up by ID.
func (b Book) Customer(id string) (Customer, bool) {
	for _, c := range b.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

// CustomerName resolves a display name, falling back to UnknownCustomerName
// for orphaned references.
func (b Book) CustomerName(id string) string {
	if c, ok := b.Customer(id); ok {
		return c.Name
	}
	return UnknownCustomerName
}

// PaymentsFor returns the customer's payments in stored order.
func (b Book) PaymentsFor(customerID string) []Payment {
	var out []Payment
	for _, p := range b.Payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out
}

// InvoicesFor returns the customer's invoices in stored order.
func (b Book) InvoicesFor(customerID string) []Invoice {
	var out []Invoice
	for _, inv := range b.Invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out
}

// Clone returns a Book whose slices do not alias b's.
func (b Book) Clone() Book {
	return Book{
		Customers: append([]Customer(nil), b.Customers...),
		Payments:  append([]Payment(nil), b.Payments...),
		Expenses:  append([]Expense(nil), b.Expenses...),
		Invoices:  append([]Invoice(nil), b.Invoices...),
	}
}
