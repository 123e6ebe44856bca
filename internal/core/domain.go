package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusActive   CustomerStatus = "active"
	StatusInactive CustomerStatus = "inactive"

	MethodCash    PaymentMethod = "cash"
	MethodGPay    PaymentMethod = "gpay"
	MethodPhonePe PaymentMethod = "phonepe"
	MethodBank    PaymentMethod = "bank"
	MethodOther   PaymentMethod = "other"

	CategoryEquipment   ExpenseCategory = "equipment"
	CategoryMaintenance ExpenseCategory = "maintenance"
	CategorySalary      ExpenseCategory = "salary"
	CategoryRent        ExpenseCategory = "rent"
	CategoryUtilities   ExpenseCategory = "utilities"
	CategoryOther       ExpenseCategory = "other"

	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

type (
	CustomerStatus  string
	PaymentMethod   string
	ExpenseCategory string
	InvoiceStatus   string

	Customer struct {
		ID        string         `json:"id"`
		Name      string         `json:"name"`
		Phone     string         `json:"phone"`
		STBNumber string         `json:"stbNumber"`
		Amount    Money          `json:"amount"` // recurring charge per period
		RenewDate Date           `json:"renewDate"`
		Status    CustomerStatus `json:"status"`
		CreatedAt time.Time      `json:"createdAt"`
	}

	Payment struct {
		ID            string        `json:"id"`
		CustomerID    string        `json:"customerId"`
		Amount        Money         `json:"amount"`
		Method        PaymentMethod `json:"method"`
		Date          Date          `json:"date"`
		TransactionID string        `json:"transactionId,omitempty"`
		Month         string        `json:"month,omitempty"` // YYYY-MM, backfilled on load when missing
		BalanceBefore Money         `json:"balanceBefore"`
		BalanceAfter  Money         `json:"balanceAfter"`
		CreatedAt     time.Time     `json:"createdAt"`
	}

	Expense struct {
		ID          string          `json:"id"`
		Category    ExpenseCategory `json:"category"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Invoice struct {
		ID         string        `json:"id"`
		CustomerID string        `json:"customerId"`
		Amount     Money         `json:"amount"`
		Date       Date          `json:"date"`
		Status     InvoiceStatus `json:"status"`
		CreatedAt  time.Time     `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty customer name")
	ErrMissingCustomer    = errors.New("missing customer id")
	ErrInvalidStatus      = errors.New("invalid customer status")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidCategory    = errors.New("invalid expense category")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidInvoiceStat = errors.New("invalid invoice status")
)

// UnknownCustomerName is shown wherever a record points at a deleted customer.
const UnknownCustomerName = "Unknown"

func (s CustomerStatus) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodGPay, MethodPhonePe, MethodBank, MethodOther:
		return true
	}
	return false
}

// IsOnline reports whether the method counts towards online collection.
func (m PaymentMethod) IsOnline() bool {
	return m == MethodGPay || m == MethodPhonePe
}

func (c ExpenseCategory) IsValid() bool {
	switch c {
	case CategoryEquipment, CategoryMaintenance, CategorySalary, CategoryRent, CategoryUtilities, CategoryOther:
		return true
	}
	return false
}

func (s InvoiceStatus) IsValid() bool {
	return s == InvoicePending || s == InvoicePaid
}

func (c Customer) IsActive() bool {
	return c.Status == StatusActive
}

// IsExpired reports whether the subscription lapsed before today.
func (c Customer) IsExpired(today Date) bool {
	return !c.RenewDate.IsZero() && c.RenewDate.IsBefore(today)
}

// IsDueForRenewal reports whether an active subscription is due on or before today.
func (c Customer) IsDueForRenewal(today Date) bool {
	return c.IsActive() && !c.RenewDate.IsZero() && !c.RenewDate.IsAfter(today)
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if c.Amount.Paise < 0 || !c.Amount.InRange() {
		return ErrInvalidAmount
	}
	if c.Status != "" && !c.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.CustomerID) == "" {
		return ErrMissingCustomer
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.Method != "" && !p.Method.IsValid() {
		return ErrInvalidMethod
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (e Expense) Validate() error {
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (i Invoice) Validate() error {
	if strings.TrimSpace(i.CustomerID) == "" {
		return ErrMissingCustomer
	}
	if i.Amount.Paise < 0 || !i.Amount.InRange() {
		return ErrInvalidAmount
	}
	if !i.Status.IsValid() {
		return ErrInvalidInvoiceStat
	}
	return i.Date.Validate()
}
