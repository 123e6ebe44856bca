// Package ledger owns the customer, payment, expense and invoice collections.
//
// Mutations apply to memory synchronously and are visible to the next read.
// Durable writes happen in the background through the configured store.Store;
// a failed write is logged and the in-memory state stays authoritative until
// the next save. Lookups by ID that miss return ok=false and change nothing.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cablebill/internal/balance"
	"cablebill/internal/core"
	"cablebill/internal/log"
	"cablebill/internal/store"
)

type Repository struct {
	mu sync.RWMutex

	customers []core.Customer
	payments  []core.Payment
	expenses  []core.Expense
	invoices  []core.Invoice

	nextCustomerID  int64
	nextInvoiceID   int64
	lastBilledMonth int64 // YYYYMM, below 100 when never billed
	lastStamp       int64 // last millisecond handed out for PAY/EXP ids

	store     store.Store
	persist   *persister
	remote    RemoteCreator
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*Repository)

// WithClock overrides time.Now. Tests pin "today" with it.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l.WithComponent(log.ComponentLedger) }
}

// WithRemote enables remote-then-local creation of customers and payments.
func WithRemote(rc RemoteCreator) Option {
	return func(r *Repository) { r.remote = rc }
}

func WithPublisher(p Publisher) Option {
	return func(r *Repository) { r.publisher = p }
}

// Open loads every collection and counter from st, backfills missing
// payment months, and starts the background persister.
func Open(ctx context.Context, st store.Store, opts ...Option) (*Repository, error) {
	r := &Repository{
		store:  st,
		now:    time.Now,
		logger: log.FromSlog(slog.Default(), log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	r.persist = newPersister(st, r.logger.WithComponent(log.ComponentStore))

	if n := r.backfillMonths(); n > 0 {
		r.mu.Lock()
		r.savePaymentsLocked()
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "Backfilled payment months",
			log.FieldOperation, log.OpMigrate, log.FieldRecords, n)
	}

	r.logger.InfoContext(ctx, "Ledger loaded",
		"customers", len(r.customers),
		"payments", len(r.payments),
		"expenses", len(r.expenses),
		"invoices", len(r.invoices))
	return r, nil
}

func (r *Repository) load(ctx context.Context) error {
	var err error
	if r.customers, err = loadCollection[core.Customer](ctx, r.store, store.Customers); err != nil {
		return err
	}
	if r.payments, err = loadCollection[core.Payment](ctx, r.store, store.Payments); err != nil {
		return err
	}
	if r.expenses, err = loadCollection[core.Expense](ctx, r.store, store.Expenses); err != nil {
		return err
	}
	if r.invoices, err = loadCollection[core.Invoice](ctx, r.store, store.Invoices); err != nil {
		return err
	}
	if r.nextCustomerID, err = loadCounter(ctx, r.store, store.NextCustomerID); err != nil {
		return err
	}
	if r.nextInvoiceID, err = loadCounter(ctx, r.store, store.NextInvoiceID); err != nil {
		return err
	}
	if r.lastBilledMonth, err = loadCounter(ctx, r.store, store.LastBilledMonth); err != nil {
		return err
	}
	return nil
}

func loadCollection[T any](ctx context.Context, st store.Store, c store.Collection) ([]T, error) {
	records, err := st.LoadAll(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	items, err := store.Decode[T](records)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	return items, nil
}

func loadCounter(ctx context.Context, st store.Store, name string) (int64, error) {
	v, err := st.LoadCounter(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("load counter %s: %w", name, err)
	}
	if v < store.DefaultCounter {
		v = store.DefaultCounter
	}
	return v, nil
}

// backfillMonths derives the month key for payments stored without one.
func (r *Repository) backfillMonths() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fillMonths(r.payments)
}

func fillMonths(payments []core.Payment) int {
	n := 0
	for i := range payments {
		if payments[i].Month == "" && !payments[i].Date.IsZero() {
			payments[i].Month = payments[i].Date.MonthKey()
			n++
		}
	}
	return n
}

// Today is the current calendar day according to the repository clock.
func (r *Repository) Today() core.Date {
	return core.DateOf(r.now())
}

// GenerateCustomerID hands out the next CUSTnnnnnn id.
func (r *Repository) GenerateCustomerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generateCustomerIDLocked()
}

func (r *Repository) generateCustomerIDLocked() string {
	id := fmt.Sprintf("CUST%06d", r.nextCustomerID)
	r.nextCustomerID++
	r.persist.enqueueCounter(store.NextCustomerID, r.nextCustomerID)
	return id
}

// timestampIDLocked returns prefix+unix millis, nudged forward so two ids
// created within the same millisecond still differ.
func (r *Repository) timestampIDLocked(prefix string) string {
	ms := r.now().UnixMilli()
	if ms <= r.lastStamp {
		ms = r.lastStamp + 1
	}
	r.lastStamp = ms
	return fmt.Sprintf("%s%d", prefix, ms)
}

// Book returns a copy of every collection for the engine and reports.
func (r *Repository) Book() core.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bookLocked().Clone()
}

// bookLocked aliases live state; only use it while holding r.mu.
func (r *Repository) bookLocked() core.Book {
	return core.Book{
		Customers: r.customers,
		Payments:  r.payments,
		Expenses:  r.expenses,
		Invoices:  r.invoices,
	}
}

// Balance runs the reconciliation engine against current state.
func (r *Repository) Balance(customerID string) balance.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return balance.Compute(r.bookLocked(), customerID)
}

// Flush writes every collection and counter synchronously.
func (r *Repository) Flush(ctx context.Context) error {
	return r.persist.flush(ctx, r.snapshot)
}

// Close performs a final flush and stops the background persister.
func (r *Repository) Close(ctx context.Context) error {
	return r.persist.close(ctx, r.snapshot)
}

func (r *Repository) snapshot() snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := snapshot{
		collections: make(map[store.Collection][]store.Record, len(store.Collections)),
		counters: map[string]int64{
			store.NextCustomerID:  r.nextCustomerID,
			store.NextInvoiceID:   r.nextInvoiceID,
			store.LastBilledMonth: r.lastBilledMonth,
		},
	}
	add := func(c store.Collection, records []store.Record, err error) {
		if err != nil {
			r.logger.Error("Failed to encode collection",
				log.FieldCollection, c, log.FieldError, err, log.FieldErrorType, log.ErrorTypePersistence)
			return
		}
		s.collections[c] = records
	}
	recs, err := store.Encode(r.customers, customerKey)
	add(store.Customers, recs, err)
	recs, err = store.Encode(r.payments, paymentKey)
	add(store.Payments, recs, err)
	recs, err = store.Encode(r.expenses, expenseKey)
	add(store.Expenses, recs, err)
	recs, err = store.Encode(r.invoices, invoiceKey)
	add(store.Invoices, recs, err)

	r.persist.discardPending()
	return s
}

func customerKey(c core.Customer) string { return c.ID }
func paymentKey(p core.Payment) string   { return p.ID }
func expenseKey(e core.Expense) string   { return e.ID }
func invoiceKey(i core.Invoice) string   { return i.ID }

func (r *Repository) saveCustomersLocked() {
	schedule(r, store.Customers, r.customers, customerKey)
}

func (r *Repository) savePaymentsLocked() {
	schedule(r, store.Payments, r.payments, paymentKey)
}

func (r *Repository) saveExpensesLocked() {
	schedule(r, store.Expenses, r.expenses, expenseKey)
}

func (r *Repository) saveInvoicesLocked() {
	schedule(r, store.Invoices, r.invoices, invoiceKey)
}

func schedule[T any](r *Repository, c store.Collection, items []T, id func(T) string) {
	records, err := store.Encode(items, id)
	if err != nil {
		r.logger.Error("Failed to encode collection",
			log.FieldCollection, c,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypePersistence)
		return
	}
	r.persist.enqueue(c, records)
}

func (r *Repository) notFound(kind, id string) {
	r.logger.Debug("Lookup missed, nothing changed",
		"kind", kind, "id", id, log.FieldErrorType, log.ErrorTypeNotFound)
}
