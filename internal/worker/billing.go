package worker

import (
	"context"
	"time"

	"cablebill/internal/core"
	"cablebill/internal/log"
)

// DefaultBillingCheckInterval is how often the scheduler checks whether the
// monthly batch is due.
const DefaultBillingCheckInterval = time.Hour

// Biller runs the monthly invoice batch and remembers which month it last
// ran for.
type Biller interface {
	GenerateMonthlyInvoices(ctx context.Context) []core.Invoice
	LastBilledMonth() string
	MarkMonthBilled(month string) error
	Today() core.Date
}

// BillingScheduler generates monthly invoices once per calendar month on
// or after the configured billing day.
type BillingScheduler struct {
	biller   Biller
	day      int
	interval time.Duration
	logger   *log.Logger
}

// NewBillingScheduler returns a scheduler billing on day (1-28; other
// values clamp into range).
func NewBillingScheduler(b Biller, day int, interval time.Duration, logger *log.Logger) *BillingScheduler {
	if day < 1 {
		day = 1
	}
	if day > 28 {
		day = 28
	}
	if interval <= 0 {
		interval = DefaultBillingCheckInterval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &BillingScheduler{
		biller:   b,
		day:      day,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// IsDue reports whether the batch should run for today's month. Only the
// scheduler's own mark counts as billed; invoices raised by hand for single
// customers do not.
func (s *BillingScheduler) IsDue(today core.Date) bool {
	if today.Day() < s.day {
		return false
	}
	return s.biller.LastBilledMonth() < today.MonthKey()
}

// RunOnce bills the current month if due and returns the number of
// invoices created.
func (s *BillingScheduler) RunOnce(ctx context.Context) int {
	today := s.biller.Today()
	if !s.IsDue(today) {
		return 0
	}
	month := today.MonthKey()
	created := s.biller.GenerateMonthlyInvoices(ctx)
	if err := s.biller.MarkMonthBilled(month); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record billed month",
			log.FieldMonth, month, log.FieldError, err, log.FieldErrorType, log.ErrorTypePersistence)
	}
	s.logger.InfoContext(ctx, "Monthly billing complete",
		log.FieldMonth, month, log.FieldRecords, len(created))
	return len(created)
}

// Run checks immediately and then on every tick until ctx is cancelled.
func (s *BillingScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "Billing scheduler started", "billing_day", s.day, "interval", s.interval)
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Billing scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
