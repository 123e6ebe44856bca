// Package storetest runs the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cablebill/internal/store"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty collection", func(t *testing.T) {
		s := newStore(t)
		got, err := s.LoadAll(ctx, store.Customers)
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty collection, got %d records", len(got))
		}
	})

	t.Run("save replaces collection in order", func(t *testing.T) {
		s := newStore(t)
		first := []store.Record{
			rec("CUST000001", `{"id":"CUST000001","name":"Ravi"}`),
			rec("CUST000002", `{"id":"CUST000002","name":"Anu"}`),
		}
		if err := s.SaveAll(ctx, store.Customers, first); err != nil {
			t.Fatalf("SaveAll: %v", err)
		}
		second := []store.Record{
			rec("CUST000003", `{"id":"CUST000003","name":"Meera"}`),
			rec("CUST000001", `{"id":"CUST000001","name":"Ravi K"}`),
		}
		if err := s.SaveAll(ctx, store.Customers, second); err != nil {
			t.Fatalf("SaveAll: %v", err)
		}
		got, err := s.LoadAll(ctx, store.Customers)
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 records, got %d", len(got))
		}
		for i, want := range second {
			if got[i].ID != want.ID {
				t.Errorf("record %d id = %s, want %s", i, got[i].ID, want.ID)
			}
			if !sameJSON(t, got[i].Data, want.Data) {
				t.Errorf("record %d body = %s, want %s", i, got[i].Data, want.Data)
			}
		}
	})

	t.Run("collections are independent", func(t *testing.T) {
		s := newStore(t)
		if err := s.SaveAll(ctx, store.Payments, []store.Record{rec("PAY1", `{"id":"PAY1"}`)}); err != nil {
			t.Fatalf("SaveAll: %v", err)
		}
		got, err := s.LoadAll(ctx, store.Expenses)
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expenses should be empty, got %d", len(got))
		}
	})

	t.Run("save empty collection", func(t *testing.T) {
		s := newStore(t)
		if err := s.SaveAll(ctx, store.Invoices, []store.Record{rec("INV000001", `{"id":"INV000001"}`)}); err != nil {
			t.Fatalf("SaveAll: %v", err)
		}
		if err := s.SaveAll(ctx, store.Invoices, nil); err != nil {
			t.Fatalf("SaveAll: %v", err)
		}
		got, err := s.LoadAll(ctx, store.Invoices)
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty after clearing, got %d", len(got))
		}
	})

	t.Run("counters default to one", func(t *testing.T) {
		s := newStore(t)
		v, err := s.LoadCounter(ctx, store.NextCustomerID)
		if err != nil {
			t.Fatalf("LoadCounter: %v", err)
		}
		if v != store.DefaultCounter {
			t.Fatalf("counter = %d, want %d", v, store.DefaultCounter)
		}
		if err := s.SaveCounter(ctx, store.NextCustomerID, 42); err != nil {
			t.Fatalf("SaveCounter: %v", err)
		}
		if v, _ := s.LoadCounter(ctx, store.NextCustomerID); v != 42 {
			t.Fatalf("counter = %d, want 42", v)
		}
		if v, _ := s.LoadCounter(ctx, store.NextInvoiceID); v != store.DefaultCounter {
			t.Fatalf("invoice counter = %d, want default", v)
		}
	})

	t.Run("unknown collection", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.LoadAll(ctx, store.Collection("orders")); !errors.Is(err, store.ErrUnknownCollection) {
			t.Fatalf("expected ErrUnknownCollection, got %v", err)
		}
	})
}

func rec(id, body string) store.Record {
	return store.Record{ID: id, Data: json.RawMessage(body)}
}

func sameJSON(t *testing.T, a, b []byte) bool {
	t.Helper()
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("decode %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	ja, _ := json.Marshal(va)
	jb, _ := json.Marshal(vb)
	return string(ja) == string(jb)
}
