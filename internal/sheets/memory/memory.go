// Package memory is an in-process payment exporter used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"cablebill/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.PaymentRow
	ids  map[string]int
}

var (
	_ sheets.PaymentExporter = (*Store)(nil)
	_ sheets.PaymentIndex    = (*Store)(nil)
)

func New() *Store {
	return &Store{ids: map[string]int{}}
}

// AppendPayment stores the row and returns a synthetic row reference.
func (s *Store) AppendPayment(_ context.Context, row sheets.PaymentRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	s.ids[row.PaymentID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) HasPayment(_ context.Context, paymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[paymentID]
	return ok, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.PaymentRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.PaymentRow(nil), s.rows...)
}
