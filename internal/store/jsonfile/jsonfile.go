// Package jsonfile stores the whole ledger in one JSON document, the
// data.json layout the sync server has always written:
//
//	{"customers": [...], "payments": [...], "expenses": [...], "invoices": [...],
//	 "nextCustomerId": 1, "nextInvoiceId": 1}
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"cablebill/internal/store"
)

type Store struct {
	mu   sync.Mutex
	path string
}

var _ store.Store = (*Store)(nil)

// New returns a store backed by path. The file and its directory are
// created on first save.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

func (s *Store) LoadAll(_ context.Context, c store.Collection) ([]store.Record, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[string(c)]
	if !ok {
		return []store.Record{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	return store.FromRaw(items)
}

func (s *Store) SaveAll(_ context.Context, c store.Collection, records []store.Record) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	data, err := json.Marshal(store.ToRaw(records))
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	doc[string(c)] = data
	return s.write(doc)
}

func (s *Store) LoadCounter(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return store.DefaultCounter, err
	}
	raw, ok := doc[name]
	if !ok {
		return store.DefaultCounter, nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return store.DefaultCounter, fmt.Errorf("decode counter %s: %w", name, err)
	}
	return v, nil
}

func (s *Store) SaveCounter(_ context.Context, name string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc[name] = json.RawMessage(fmt.Sprintf("%d", value))
	return s.write(doc)
}

func (s *Store) Close() error { return nil }

func (s *Store) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *Store) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".data-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
