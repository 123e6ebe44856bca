package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2026-10-15", "2026-10-15", false},
		{"2026-10-15T08:30:00.000Z", "2026-10-15", false},
		{"15/10/2026", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("got %s, want %s", d, tt.want)
			}
		})
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2026, 1, 31)
	if d.MonthKey() != "2026-01" {
		t.Errorf("MonthKey = %s", d.MonthKey())
	}
	if d.Display() != "31/01/2026" {
		t.Errorf("Display = %s", d.Display())
	}
	if got := d.AddMonths(1).String(); got != "2026-03-03" {
		t.Errorf("AddMonths overflow = %s, want 2026-03-03", got)
	}
	if got := NewDate(2026, 12, 15).AddMonths(1).String(); got != "2027-01-15" {
		t.Errorf("AddMonths year wrap = %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2026-05-01"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2026-05-01" {
		t.Errorf("got %s", d)
	}
	if err := json.Unmarshal([]byte(`""`), &d); err != nil || !d.IsZero() {
		t.Errorf("empty string should decode to zero date, got %v err=%v", d, err)
	}
	out, _ := json.Marshal(NewDate(2026, 2, 3))
	if string(out) != `"2026-02-03"` {
		t.Errorf("marshal = %s", out)
	}
}

func TestCustomerExpiry(t *testing.T) {
	today := NewDate(2026, 10, 15)
	tests := []struct {
		name    string
		c       Customer
		expired bool
		due     bool
	}{
		{"renew yesterday", Customer{Status: StatusActive, RenewDate: NewDate(2026, 10, 14)}, true, true},
		{"renew today", Customer{Status: StatusActive, RenewDate: today}, false, true},
		{"renew tomorrow", Customer{Status: StatusActive, RenewDate: NewDate(2026, 10, 16)}, false, false},
		{"inactive lapsed", Customer{Status: StatusInactive, RenewDate: NewDate(2026, 1, 1)}, true, false},
		{"no renew date", Customer{Status: StatusActive}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.IsExpired(today); got != tt.expired {
				t.Errorf("IsExpired = %v, want %v", got, tt.expired)
			}
			if got := tt.c.IsDueForRenewal(today); got != tt.due {
				t.Errorf("IsDueForRenewal = %v, want %v", got, tt.due)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	today := NewDate(2026, 10, 15)
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"customer ok", Customer{Name: "Ravi", Amount: Money{Paise: 30000}, Status: StatusActive}.Validate(), nil},
		{"customer blank name", Customer{Name: "  "}.Validate(), ErrEmptyName},
		{"customer bad status", Customer{Name: "Ravi", Status: "paused"}.Validate(), ErrInvalidStatus},
		{"customer negative amount", Customer{Name: "Ravi", Amount: Money{Paise: -100}}.Validate(), ErrInvalidAmount},
		{"customer amount too large", Customer{Name: "Ravi", Amount: Money{Paise: MaxRupees*100 + 1}}.Validate(), ErrInvalidAmount},
		{"payment ok", Payment{CustomerID: "CUST000001", Amount: Money{Paise: 100}, Method: MethodCash, Date: today}.Validate(), nil},
		{"payment no customer", Payment{Amount: Money{Paise: 100}, Date: today}.Validate(), ErrMissingCustomer},
		{"payment zero amount", Payment{CustomerID: "C", Date: today}.Validate(), ErrInvalidAmount},
		{"payment bad method", Payment{CustomerID: "C", Amount: Money{Paise: 1}, Method: "upi", Date: today}.Validate(), ErrInvalidMethod},
		{"payment no date", Payment{CustomerID: "C", Amount: Money{Paise: 1}}.Validate(), ErrInvalidDate},
		{"expense ok", Expense{Category: CategoryRent, Description: "Office", Amount: Money{Paise: 1}, Date: today}.Validate(), nil},
		{"expense bad category", Expense{Category: "travel", Description: "x", Amount: Money{Paise: 1}, Date: today}.Validate(), ErrInvalidCategory},
		{"expense blank description", Expense{Category: CategoryRent, Amount: Money{Paise: 1}, Date: today}.Validate(), ErrEmptyDescription},
		{"invoice ok", Invoice{CustomerID: "C", Amount: Money{Paise: 30000}, Status: InvoicePending, Date: today}.Validate(), nil},
		{"invoice no customer", Invoice{Amount: Money{Paise: 1}, Status: InvoicePending, Date: today}.Validate(), ErrMissingCustomer},
		{"invoice negative amount", Invoice{CustomerID: "C", Amount: Money{Paise: -1}, Status: InvoicePending, Date: today}.Validate(), ErrInvalidAmount},
		{"invoice bad status", Invoice{CustomerID: "C", Status: "void", Date: today}.Validate(), ErrInvalidInvoiceStat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("got %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestBookLookups(t *testing.T) {
	b := Book{
		Customers: []Customer{{ID: "CUST000001", Name: "Ravi"}},
		Payments: []Payment{
			{ID: "PAY1", CustomerID: "CUST000001"},
			{ID: "PAY2", CustomerID: "CUST000009"},
		},
	}
	if b.CustomerName("CUST000001") != "Ravi" {
		t.Error("expected Ravi")
	}
	if b.CustomerName("CUST000009") != UnknownCustomerName {
		t.Error("orphan should resolve to Unknown")
	}
	if got := len(b.PaymentsFor("CUST000001")); got != 1 {
		t.Errorf("PaymentsFor = %d", got)
	}

	c := b.Clone()
	c.Customers[0].Name = "Changed"
	if b.Customers[0].Name != "Ravi" {
		t.Error("Clone aliases customers slice")
	}
}
