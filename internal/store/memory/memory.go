package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cablebill/internal/store"
)

// Store keeps collections in process memory. Saved records are copied so
// callers cannot mutate stored state afterwards.
type Store struct {
	mu          sync.Mutex
	collections map[store.Collection][]store.Record
	counters    map[string]int64
	failSaves   bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[store.Collection][]store.Record),
		counters:    make(map[string]int64),
	}
}

func (s *Store) LoadAll(_ context.Context, c store.Collection) ([]store.Record, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.collections[c]), nil
}

func (s *Store) SaveAll(_ context.Context, c store.Collection, records []store.Record) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("memory store: save %s rejected", c)
	}
	s.collections[c] = cloneRecords(records)
	return nil
}

func (s *Store) LoadCounter(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.counters[name]; ok {
		return v, nil
	}
	return store.DefaultCounter, nil
}

func (s *Store) SaveCounter(_ context.Context, name string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("memory store: save counter %s rejected", name)
	}
	s.counters[name] = value
	return nil
}

func (s *Store) Close() error { return nil }

// SetFailSaves makes every later save return an error. Tests use it to
// exercise persistence-failure paths.
func (s *Store) SetFailSaves(fail bool) {
	s.mu.Lock()
	s.failSaves = fail
	s.mu.Unlock()
}

// Len reports how many records a collection currently holds.
func (s *Store) Len(c store.Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[c])
}

func cloneRecords(in []store.Record) []store.Record {
	out := make([]store.Record, len(in))
	for i, r := range in {
		out[i] = store.Record{ID: r.ID, Data: append(json.RawMessage(nil), r.Data...)}
	}
	return out
}
