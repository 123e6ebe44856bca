package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"cablebill/internal/core"
	"cablebill/internal/ledger"
)

// LedgerEvent is the wire form of a ledger mutation. Consumers look records
// up by ID when they need more than what the event carries.
type LedgerEvent struct {
	MessageID    string             `json:"messageId"`
	Type         ledger.EventType   `json:"type"`
	CustomerID   string             `json:"customerId"`
	CustomerName string             `json:"customerName,omitempty"`
	PaymentID    string             `json:"paymentId,omitempty"`
	InvoiceID    string             `json:"invoiceId,omitempty"`
	Amount       core.Money         `json:"amount"`
	Method       core.PaymentMethod `json:"method,omitempty"`
	Date         core.Date          `json:"date"`
	Month        string             `json:"month,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// NewLedgerEvent converts a repository event into a message with a fresh ID.
func NewLedgerEvent(e ledger.Event) *LedgerEvent {
	ts := e.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEvent{
		MessageID:    uuid.NewString(),
		Type:         e.Type,
		CustomerID:   e.CustomerID,
		CustomerName: e.CustomerName,
		PaymentID:    e.PaymentID,
		InvoiceID:    e.InvoiceID,
		Amount:       e.Amount,
		Method:       e.Method,
		Date:         e.Date,
		Month:        e.Month,
		Timestamp:    ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
