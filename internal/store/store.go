// Package store defines the durable collaborator behind the ledger.
//
// A Store persists whole collections of JSON records plus a handful of
// integer counters. Backends live in sub-packages; Mirror fans writes out to
// a primary and a backup backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Collection string

const (
	Customers Collection = "customers"
	Payments  Collection = "payments"
	Expenses  Collection = "expenses"
	Invoices  Collection = "invoices"
)

// Counter names. The ID counters hold the next number to hand out;
// LastBilledMonth holds the last month the billing scheduler ran, as YYYYMM.
const (
	NextCustomerID  = "nextCustomerId"
	NextInvoiceID   = "nextInvoiceId"
	LastBilledMonth = "lastBilledMonth"
)

// DefaultCounter is returned for counters that were never saved.
const DefaultCounter int64 = 1

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrMissingID         = errors.New("record has no id")
)

// Collections lists every collection a ledger persists.
var Collections = []Collection{Customers, Payments, Expenses, Invoices}

func (c Collection) IsValid() bool {
	switch c {
	case Customers, Payments, Expenses, Invoices:
		return true
	}
	return false
}

// Record is one persisted entity: its ID and JSON body.
type Record struct {
	ID   string
	Data json.RawMessage
}

// Store loads and saves whole collections. LoadAll returns an empty slice
// for a collection that has never been saved, and LoadCounter returns
// DefaultCounter for an unknown counter.
type Store interface {
	LoadAll(ctx context.Context, c Collection) ([]Record, error)
	SaveAll(ctx context.Context, c Collection, records []Record) error
	LoadCounter(ctx context.Context, name string) (int64, error)
	SaveCounter(ctx context.Context, name string, value int64) error
	Close() error
}

// Encode marshals items into records using id to extract each key.
func Encode[T any](items []T, id func(T) string) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode record %s: %w", id(item), err)
		}
		out = append(out, Record{ID: id(item), Data: data})
	}
	return out, nil
}

// Decode unmarshals records into items, preserving order.
func Decode[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		var item T
		if err := json.Unmarshal(r.Data, &item); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// FromRaw wraps raw JSON objects as records, reading each "id" field.
// Backends that keep a collection as one JSON array use it on load.
func FromRaw(raws []json.RawMessage) ([]Record, error) {
	out := make([]Record, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		if head.ID == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrMissingID)
		}
		out = append(out, Record{ID: head.ID, Data: raw})
	}
	return out, nil
}

// ToRaw strips records back to their JSON bodies.
func ToRaw(records []Record) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		out = append(out, r.Data)
	}
	return out
}
