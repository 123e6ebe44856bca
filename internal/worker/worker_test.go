package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cablebill/internal/amqp"
	"cablebill/internal/core"
	"cablebill/internal/ledger"
	"cablebill/internal/sheets"
	"cablebill/internal/sheets/memory"
)

type failingExporter struct{ err error }

func (f failingExporter) AppendPayment(context.Context, sheets.PaymentRow) (string, error) {
	return "", f.err
}

func paymentEvent(id string) *amqp.LedgerEvent {
	return &amqp.LedgerEvent{
		MessageID:    "msg-" + id,
		Type:         ledger.PaymentRecorded,
		CustomerID:   "CUST000001",
		CustomerName: "Ravi",
		PaymentID:    id,
		Amount:       core.Rupees(300),
		Method:       core.MethodCash,
		Date:         core.NewDate(2024, 3, 5),
	}
}

func TestSyncWorker_HandleEvent(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(store, store, nil)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, paymentEvent("PAY1")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	rows := store.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Month != "2024-03" {
		t.Errorf("Month = %q, want derived 2024-03", rows[0].Month)
	}

	// redelivery is a no-op
	if err := w.HandleEvent(ctx, paymentEvent("PAY1")); err != nil {
		t.Fatalf("redelivered HandleEvent: %v", err)
	}
	if len(store.Rows()) != 1 {
		t.Errorf("duplicate row written for redelivered event")
	}

	// non-payment events are skipped
	inv := &amqp.LedgerEvent{Type: ledger.InvoiceGenerated, InvoiceID: "INV000001"}
	if err := w.HandleEvent(ctx, inv); err != nil {
		t.Fatalf("invoice event: %v", err)
	}
	if len(store.Rows()) != 1 {
		t.Errorf("invoice event produced a row")
	}
}

func TestSyncWorker_HandleEventError(t *testing.T) {
	w := NewSyncWorker(failingExporter{err: errors.New("quota exceeded")}, nil, nil)
	if err := w.HandleEvent(context.Background(), paymentEvent("PAY1")); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestSyncWorker_ExportPending(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(store, store, nil)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, paymentEvent("PAY1")); err != nil {
		t.Fatal(err)
	}

	book := core.Book{
		Customers: []core.Customer{{ID: "CUST000001", Name: "Ravi"}},
		Payments: []core.Payment{
			{ID: "PAY1", CustomerID: "CUST000001", Amount: core.Rupees(300), Date: core.NewDate(2024, 3, 5)},
			{ID: "PAY2", CustomerID: "CUST000001", Amount: core.Rupees(100), Date: core.NewDate(2024, 4, 2), Month: "2024-04"},
			{ID: "PAY3", CustomerID: "CUST000404", Amount: core.Rupees(50), Date: core.NewDate(2024, 4, 3)},
		},
	}
	n, err := w.ExportPending(ctx, book)
	if err != nil {
		t.Fatalf("ExportPending: %v", err)
	}
	if n != 2 {
		t.Errorf("exported = %d, want 2", n)
	}
	rows := store.Rows()
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2].CustomerName != core.UnknownCustomerName {
		t.Errorf("orphan payment name = %q, want %q", rows[2].CustomerName, core.UnknownCustomerName)
	}

	if n, _ := NewSyncWorker(store, nil, nil).ExportPending(ctx, book); n != 0 {
		t.Errorf("ExportPending without index exported %d", n)
	}
}

type countingFlusher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFlusher) Flush(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestAutosaver_FlushesOnTickAndStop(t *testing.T) {
	f := &countingFlusher{}
	a := NewAutosaver(f, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.calls.Load() < 2 {
		t.Fatalf("flushes = %d, want at least 2 ticks", f.calls.Load())
	}

	before := f.calls.Load()
	cancel()
	<-done
	if f.calls.Load() <= before {
		t.Error("no final flush on stop")
	}
}

func TestAutosaver_ErrorsDoNotStop(t *testing.T) {
	f := &countingFlusher{err: errors.New("disk full")}
	a := NewAutosaver(f, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.Run(ctx)
	if f.calls.Load() < 2 {
		t.Errorf("flushes = %d, autosave should keep ticking after errors", f.calls.Load())
	}
}

type flakySyncer struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakySyncer) CheckAndEnable(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.calls > s.failures
}

func TestSyncProbe_RetriesUntilReachable(t *testing.T) {
	s := &flakySyncer{failures: 2}
	p := NewSyncProbe(s, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !p.Run(ctx) {
		t.Fatal("Run = false, want true after retries")
	}
	if s.calls != 3 {
		t.Errorf("calls = %d, want 3", s.calls)
	}
}

func TestSyncProbe_StopsOnCancel(t *testing.T) {
	s := &flakySyncer{failures: 1 << 30}
	p := NewSyncProbe(s, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p.Run(ctx) {
		t.Fatal("Run = true for unreachable server")
	}
}
