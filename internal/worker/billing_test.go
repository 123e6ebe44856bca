package worker

import (
	"context"
	"testing"
	"time"

	"cablebill/internal/core"
	"cablebill/internal/ledger"
	"cablebill/internal/log"
	storemem "cablebill/internal/store/memory"
)

type fakeBiller struct {
	today  core.Date
	billed string
	runs   int
	perRun int
}

func (f *fakeBiller) GenerateMonthlyInvoices(context.Context) []core.Invoice {
	f.runs++
	var created []core.Invoice
	for i := 0; i < f.perRun; i++ {
		created = append(created, core.Invoice{ID: "INV", Date: f.today, Status: core.InvoicePending})
	}
	return created
}

func (f *fakeBiller) LastBilledMonth() string { return f.billed }

func (f *fakeBiller) MarkMonthBilled(month string) error {
	f.billed = month
	return nil
}

func (f *fakeBiller) Today() core.Date { return f.today }

func TestBillingScheduler_IsDue(t *testing.T) {
	tests := []struct {
		name   string
		day    int
		today  core.Date
		billed string
		want   bool
	}{
		{"before billing day", 5, core.NewDate(2026, 10, 3), "", false},
		{"on billing day", 5, core.NewDate(2026, 10, 5), "", true},
		{"after billing day", 5, core.NewDate(2026, 10, 20), "", true},
		{"month already billed", 1, core.NewDate(2026, 10, 20), "2026-10", false},
		{"only last month billed", 1, core.NewDate(2026, 10, 2), "2026-09", true},
		{"previous year billed", 1, core.NewDate(2027, 1, 2), "2026-12", true},
		{"day clamps to 28", 31, core.NewDate(2026, 2, 28), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBillingScheduler(&fakeBiller{billed: tt.billed}, tt.day, 0, nil)
			if got := s.IsDue(tt.today); got != tt.want {
				t.Errorf("IsDue(%s) = %v, want %v", tt.today, got, tt.want)
			}
		})
	}
}

func TestBillingScheduler_RunOncePerMonth(t *testing.T) {
	b := &fakeBiller{today: core.NewDate(2026, 10, 1), perRun: 2}
	s := NewBillingScheduler(b, 1, 0, nil)
	ctx := context.Background()

	if n := s.RunOnce(ctx); n != 2 {
		t.Fatalf("first run created %d, want 2", n)
	}
	if n := s.RunOnce(ctx); n != 0 {
		t.Fatalf("second run created %d, want 0", n)
	}

	b.today = core.NewDate(2026, 11, 1)
	if n := s.RunOnce(ctx); n != 2 {
		t.Fatalf("next month created %d, want 2", n)
	}
	if b.runs != 2 {
		t.Errorf("batch ran %d times, want 2", b.runs)
	}
}

func TestBillingScheduler_EmptyBatchStillMarksMonth(t *testing.T) {
	b := &fakeBiller{today: core.NewDate(2026, 10, 1)}
	s := NewBillingScheduler(b, 1, 0, nil)
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	if b.runs != 1 {
		t.Errorf("batch ran %d times, want 1", b.runs)
	}
	if b.billed != "2026-10" {
		t.Errorf("billed month = %q, want 2026-10", b.billed)
	}
}

func TestBillingScheduler_ManualInvoiceDoesNotSkipOthers(t *testing.T) {
	ctx := context.Background()
	st := storemem.New()
	now := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	repo, err := ledger.Open(ctx, st, ledger.WithClock(clock), ledger.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var ids []string
	for _, name := range []string{"Asha", "Bala", "Chitra"} {
		c := repo.AddCustomer(ctx, core.Customer{Name: name, Amount: core.Rupees(300), Status: core.StatusActive})
		ids = append(ids, c.ID)
	}
	if _, ok := repo.GenerateInvoice(ctx, ids[0], nil); !ok {
		t.Fatal("GenerateInvoice rejected")
	}

	now = time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	s := NewBillingScheduler(repo, 5, 0, nil)
	if n := s.RunOnce(ctx); n != 2 {
		t.Fatalf("billing run created %d invoices, want 2", n)
	}
	billed := make(map[string]int)
	for _, inv := range repo.Invoices() {
		billed[inv.CustomerID]++
	}
	for _, id := range ids {
		if billed[id] != 1 {
			t.Errorf("customer %s has %d invoices, want 1", id, billed[id])
		}
	}
	if n := s.RunOnce(ctx); n != 0 {
		t.Fatalf("second run created %d invoices, want 0", n)
	}
	if err := repo.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.Open(ctx, st, ledger.WithClock(clock), ledger.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close(ctx)
	if got := reopened.LastBilledMonth(); got != "2026-10" {
		t.Fatalf("LastBilledMonth after reopen = %q, want 2026-10", got)
	}
	if n := NewBillingScheduler(reopened, 5, 0, nil).RunOnce(ctx); n != 0 {
		t.Errorf("run after restart created %d invoices, want 0", n)
	}
}
