package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"cablebill/internal/core"
	"cablebill/internal/ledger"
	"cablebill/internal/log"
)

type fakeChannel struct {
	mu         sync.Mutex
	published  []amqp091.Publishing
	keys       []string
	publishErr error
	deliveries chan amqp091.Delivery
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	f.keys = append(f.keys, exchange+"/"+key)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error { return nil }

type ackRecorder struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newTestClient(ch *fakeChannel) *Client {
	return &Client{
		channel:      ch,
		exchangeName: "cablebill",
		queueName:    "ledger_events",
		logger:       log.Discard(),
	}
}

func TestNewLedgerEvent(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	msg := NewLedgerEvent(ledger.Event{
		Type:         ledger.PaymentRecorded,
		CustomerID:   "CUST000001",
		CustomerName: "Ravi",
		PaymentID:    "PAY1",
		Amount:       core.Rupees(250.5),
		Method:       core.MethodGPay,
		Date:         core.NewDate(2024, 3, 5),
		Month:        "2024-03",
		At:           at,
	})
	if msg.MessageID == "" {
		t.Fatal("MessageID is empty")
	}
	if !msg.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, at)
	}

	other := NewLedgerEvent(ledger.Event{Type: ledger.PaymentRecorded})
	if other.MessageID == msg.MessageID {
		t.Error("message ids must be unique")
	}
	if other.Timestamp.IsZero() {
		t.Error("zero event time should default to now")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["type"] != "payment.recorded" || raw["amount"] != 250.5 || raw["date"] != "2024-03-05" {
		t.Errorf("wire form = %s", body)
	}

	decoded, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.PaymentID != "PAY1" || decoded.Amount != core.Rupees(250.5) || decoded.Method != core.MethodGPay {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestClient_Publish(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(ch)

	err := c.Publish(context.Background(), ledger.Event{
		Type:       ledger.InvoiceGenerated,
		CustomerID: "CUST000001",
		InvoiceID:  "INV000001",
		Amount:     core.Rupees(300),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(ch.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(ch.published))
	}
	pub := ch.published[0]
	if ch.keys[0] != "cablebill/ledger_events" {
		t.Errorf("exchange/key = %q", ch.keys[0])
	}
	if pub.DeliveryMode != amqp091.Persistent || pub.ContentType != "application/json" {
		t.Errorf("publishing = %+v", pub)
	}
	if pub.Type != string(ledger.InvoiceGenerated) || pub.MessageId == "" {
		t.Errorf("Type=%q MessageId=%q", pub.Type, pub.MessageId)
	}

	ch.publishErr = errors.New("channel closed")
	if err := c.Publish(context.Background(), ledger.Event{Type: ledger.PaymentRecorded}); err == nil {
		t.Error("Publish error not returned")
	}
}

func TestClient_Consume(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 3)}
	c := newTestClient(ch)
	acks := &ackRecorder{}

	good, _ := NewLedgerEvent(ledger.Event{Type: ledger.PaymentRecorded, PaymentID: "PAY1"}).ToJSON()
	failing, _ := NewLedgerEvent(ledger.Event{Type: ledger.PaymentRecorded, PaymentID: "PAY2"}).ToJSON()
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: good}
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("{not json")}
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: failing}
	close(ch.deliveries)

	var handled []string
	err := c.Consume(context.Background(), func(ctx context.Context, msg *LedgerEvent) error {
		handled = append(handled, msg.PaymentID)
		if msg.PaymentID == "PAY2" {
			return errors.New("sheet unavailable")
		}
		return nil
	})
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Consume error = %v, want ErrChannelClosed", err)
	}
	if len(handled) != 2 {
		t.Errorf("handled = %v", handled)
	}
	if acks.acks != 1 || acks.nacks != 2 {
		t.Errorf("acks=%d nacks=%d", acks.acks, acks.nacks)
	}
	// malformed: dropped; handler failure: requeued
	if len(acks.requeue) != 2 || acks.requeue[0] || !acks.requeue[1] {
		t.Errorf("requeue flags = %v", acks.requeue)
	}
}

func TestClient_ConsumeStopsOnCancel(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery)}
	c := newTestClient(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, *LedgerEvent) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Consume error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not stop after cancel")
	}
}
