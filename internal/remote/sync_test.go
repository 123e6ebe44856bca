package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cablebill/internal/core"
)

type fakeAPI struct {
	mu          sync.Mutex
	statusErr   error
	listCustErr error
	listPayErr  error
	createErr   map[string]error // keyed by customer name or payment id
	customers   []core.Customer
	payments    []core.Payment
	nextID      int
}

func (f *fakeAPI) Status(ctx context.Context) (Status, error) {
	if f.statusErr != nil {
		return Status{}, f.statusErr
	}
	return Status{OK: true, Message: "Server running"}, nil
}

func (f *fakeAPI) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listCustErr != nil {
		return nil, f.listCustErr
	}
	return append([]core.Customer(nil), f.customers...), nil
}

func (f *fakeAPI) ListPayments(ctx context.Context) ([]core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listPayErr != nil {
		return nil, f.listPayErr
	}
	return append([]core.Payment(nil), f.payments...), nil
}

func (f *fakeAPI) CreateCustomer(ctx context.Context, c core.Customer) (core.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[c.Name]; err != nil {
		return core.Customer{}, err
	}
	f.nextID++
	c.ID = fmt.Sprintf("SRV%d", f.nextID)
	f.customers = append(f.customers, c)
	return c, nil
}

func (f *fakeAPI) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[p.ID]; err != nil {
		return core.Payment{}, err
	}
	f.payments = append(f.payments, p)
	return p, nil
}

type fakeLedger struct {
	customers []core.Customer
	payments  []core.Payment
	replaced  int
}

func (l *fakeLedger) Customers() []core.Customer { return l.customers }
func (l *fakeLedger) Payments() []core.Payment   { return l.payments }
func (l *fakeLedger) ReplaceCustomers(c []core.Customer) {
	l.customers = c
	l.replaced++
}
func (l *fakeLedger) ReplacePayments(p []core.Payment) {
	l.payments = p
	l.replaced++
}

func TestSyncer_Pull(t *testing.T) {
	api := &fakeAPI{
		customers: []core.Customer{{ID: "CUST000001", Name: "Ravi"}},
		payments:  []core.Payment{{ID: "PAY1", CustomerID: "CUST000001", Amount: core.Rupees(100)}},
	}
	ledger := &fakeLedger{customers: []core.Customer{{ID: "OLD"}}}

	if err := NewSyncer(api, ledger, nil).Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if len(ledger.customers) != 1 || ledger.customers[0].ID != "CUST000001" {
		t.Errorf("customers = %+v", ledger.customers)
	}
	if len(ledger.payments) != 1 {
		t.Errorf("payments = %+v", ledger.payments)
	}
}

func TestSyncer_PullPartialFailureKeepsLocal(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{"customers fail", &fakeAPI{listCustErr: errors.New("boom")}},
		{"payments fail", &fakeAPI{listPayErr: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{customers: []core.Customer{{ID: "LOCAL"}}}
			if err := NewSyncer(tt.api, ledger, nil).Pull(context.Background()); err == nil {
				t.Fatal("Pull succeeded, want error")
			}
			if ledger.replaced != 0 {
				t.Errorf("local data replaced %d times", ledger.replaced)
			}
			if ledger.customers[0].ID != "LOCAL" {
				t.Errorf("customers changed: %+v", ledger.customers)
			}
		})
	}
}

func TestSyncer_PushDedupesAndRemaps(t *testing.T) {
	api := &fakeAPI{
		customers: []core.Customer{{ID: "SRV-RAVI", Name: "Ravi", Phone: "98765"}},
	}
	ledger := &fakeLedger{
		customers: []core.Customer{
			{ID: "CUST000001", Name: "RAVI", Phone: "98765"},
			{ID: "CUST000002", Name: "Meena", Phone: "11111"},
		},
		payments: []core.Payment{
			{ID: "PAY1", CustomerID: "CUST000001", Amount: core.Rupees(300)},
			{ID: "PAY2", CustomerID: "CUST000002", Amount: core.Rupees(200)},
			{ID: "PAY3", CustomerID: "CUST000009", Amount: core.Rupees(50)},
		},
	}

	var phases []string
	res, err := NewSyncer(api, ledger, nil).Push(context.Background(), func(p Progress) {
		phases = append(phases, fmt.Sprintf("%s %d/%d", p.Phase, p.Index, p.Total))
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	wantPhases := []string{
		"customer-skip 1/2",
		"customer-push 2/2",
		"payment-push 1/3",
		"payment-push 2/3",
		"payment-push 3/3",
	}
	if fmt.Sprint(phases) != fmt.Sprint(wantPhases) {
		t.Errorf("phases = %v, want %v", phases, wantPhases)
	}
	if res.CustomersMapped != 2 || res.PaymentsPushed != 3 {
		t.Errorf("result = %+v", res)
	}
	if res.IDMap["CUST000001"] != "SRV-RAVI" {
		t.Errorf("IDMap[CUST000001] = %q, want SRV-RAVI", res.IDMap["CUST000001"])
	}
	if len(api.customers) != 2 {
		t.Errorf("server has %d customers, want 2", len(api.customers))
	}

	gotCustomers := map[string]string{}
	for _, p := range api.payments {
		gotCustomers[p.ID] = p.CustomerID
	}
	want := map[string]string{
		"PAY1": "SRV-RAVI",
		"PAY2": res.IDMap["CUST000002"],
		"PAY3": "CUST000009",
	}
	for id, cust := range want {
		if gotCustomers[id] != cust {
			t.Errorf("payment %s pushed for %q, want %q", id, gotCustomers[id], cust)
		}
	}
}

func TestSyncer_PushSkipsFailures(t *testing.T) {
	api := &fakeAPI{createErr: map[string]error{
		"Meena": errors.New("rejected"),
		"PAY2":  errors.New("rejected"),
	}}
	ledger := &fakeLedger{
		customers: []core.Customer{{ID: "C1", Name: "Ravi"}, {ID: "C2", Name: "Meena"}},
		payments:  []core.Payment{{ID: "PAY1", CustomerID: "C1"}, {ID: "PAY2", CustomerID: "C2"}},
	}

	res, err := NewSyncer(api, ledger, nil).Push(context.Background(), nil)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if res.CustomersMapped != 1 || res.PaymentsPushed != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncer_PushFailsWithoutServerList(t *testing.T) {
	api := &fakeAPI{listCustErr: errors.New("down")}
	if _, err := NewSyncer(api, &fakeLedger{}, nil).Push(context.Background(), nil); err == nil {
		t.Fatal("Push succeeded, want error")
	}
}

func TestSyncer_CheckAndEnable(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		ledger := &fakeLedger{customers: []core.Customer{{ID: "C1", Name: "Ravi"}}}
		api := &fakeAPI{statusErr: ErrUnavailable}
		if NewSyncer(api, ledger, nil).CheckAndEnable(context.Background()) {
			t.Fatal("CheckAndEnable = true for unreachable server")
		}
		if len(api.customers) != 0 || ledger.replaced != 0 {
			t.Error("no push or pull expected")
		}
	})

	t.Run("push then pull", func(t *testing.T) {
		ledger := &fakeLedger{
			customers: []core.Customer{{ID: "C1", Name: "Ravi"}},
			payments:  []core.Payment{{ID: "PAY1", CustomerID: "C1", Amount: core.Rupees(100)}},
		}
		api := &fakeAPI{}
		if !NewSyncer(api, ledger, nil).CheckAndEnable(context.Background()) {
			t.Fatal("CheckAndEnable = false")
		}
		if len(ledger.customers) != 1 || ledger.customers[0].ID != "SRV1" {
			t.Errorf("customers after pull = %+v", ledger.customers)
		}
		if len(ledger.payments) != 1 || ledger.payments[0].CustomerID != "SRV1" {
			t.Errorf("payments after pull = %+v", ledger.payments)
		}
	})
}
