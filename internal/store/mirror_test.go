package store_test

import (
	"context"
	"testing"

	"cablebill/internal/store"
	"cablebill/internal/store/memory"
	"cablebill/internal/store/storetest"
)

func TestMirror(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMirror(memory.New(), memory.New(), nil)
	})
}

func TestMirrorMigratesFromBackup(t *testing.T) {
	ctx := context.Background()
	primary, backup := memory.New(), memory.New()
	recs := []store.Record{{ID: "CUST000001", Data: []byte(`{"id":"CUST000001"}`)}}
	if err := backup.SaveAll(ctx, store.Customers, recs); err != nil {
		t.Fatal(err)
	}

	m := store.NewMirror(primary, backup, nil)
	got, err := m.LoadAll(ctx, store.Customers)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected backup record, got %d", len(got))
	}
	if primary.Len(store.Customers) != 1 {
		t.Fatal("backup records were not copied into primary")
	}
}

func TestMirrorSavesToBoth(t *testing.T) {
	ctx := context.Background()
	primary, backup := memory.New(), memory.New()
	m := store.NewMirror(primary, backup, nil)

	if err := m.SaveAll(ctx, store.Payments, []store.Record{{ID: "PAY1", Data: []byte(`{"id":"PAY1"}`)}}); err != nil {
		t.Fatal(err)
	}
	if primary.Len(store.Payments) != 1 || backup.Len(store.Payments) != 1 {
		t.Fatal("save did not reach both stores")
	}
}

func TestMirrorReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	primary, backup := memory.New(), memory.New()
	backup.SetFailSaves(true)
	m := store.NewMirror(primary, backup, nil)

	err := m.SaveAll(ctx, store.Payments, []store.Record{{ID: "PAY1", Data: []byte(`{"id":"PAY1"}`)}})
	if err == nil {
		t.Fatal("expected error from failing backup")
	}
	if primary.Len(store.Payments) != 1 {
		t.Fatal("primary should still hold the records")
	}
}

func TestMirrorCounterTakesLargest(t *testing.T) {
	ctx := context.Background()
	primary, backup := memory.New(), memory.New()
	_ = primary.SaveCounter(ctx, store.NextCustomerID, 3)
	_ = backup.SaveCounter(ctx, store.NextCustomerID, 9)

	v, err := store.NewMirror(primary, backup, nil).LoadCounter(ctx, store.NextCustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if v != 9 {
		t.Fatalf("counter = %d, want 9", v)
	}
}
