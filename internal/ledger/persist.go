package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cablebill/internal/log"
	"cablebill/internal/store"
)

// persister writes snapshots to the store in the background. Pending
// snapshots coalesce per collection, so a burst of mutations costs one write
// per touched collection.
type persister struct {
	st     store.Store
	logger *log.Logger

	mu          sync.Mutex
	collections map[store.Collection][]store.Record
	counters    map[string]int64

	// writeMu orders writes: whoever takes the pending set first also
	// writes it first, so an older snapshot never overwrites a newer one.
	writeMu sync.Mutex

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newPersister(st store.Store, logger *log.Logger) *persister {
	p := &persister{
		st:          st,
		logger:      logger,
		collections: make(map[store.Collection][]store.Record),
		counters:    make(map[string]int64),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(c store.Collection, records []store.Record) {
	p.mu.Lock()
	p.collections[c] = records
	p.mu.Unlock()
	p.signal()
}

func (p *persister) enqueueCounter(name string, value int64) {
	p.mu.Lock()
	p.counters[name] = value
	p.mu.Unlock()
	p.signal()
}

func (p *persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
			if err := p.drain(context.Background()); err != nil {
				p.logger.Error("Background save failed",
					log.NewFields().WithError(err, log.ErrorTypePersistence).WithOperation(log.OpSave).ToSlice()...)
			}
		}
	}
}

// drain writes everything pending and returns the joined write errors.
// Failed snapshots are not retried; the next mutation or flush supersedes them.
func (p *persister) drain(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	pending := snapshot{collections: p.collections, counters: p.counters}
	p.collections = make(map[store.Collection][]store.Record)
	p.counters = make(map[string]int64)
	p.mu.Unlock()

	return p.write(ctx, pending)
}

// snapshot is a full copy of the ledger ready to be written.
type snapshot struct {
	collections map[store.Collection][]store.Record
	counters    map[string]int64
}

// flush writes a full snapshot synchronously. take runs while writeMu is
// held, so no older background snapshot can land after this one. take must
// call discardPending under the same lock that guards the ledger state.
func (p *persister) flush(ctx context.Context, take func() snapshot) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.write(ctx, take())
}

func (p *persister) discardPending() {
	p.mu.Lock()
	p.collections = make(map[store.Collection][]store.Record)
	p.counters = make(map[string]int64)
	p.mu.Unlock()
}

// close stops the background loop and then flushes.
func (p *persister) close(ctx context.Context, take func() snapshot) error {
	p.once.Do(func() { close(p.stop) })
	<-p.stopped
	return p.flush(ctx, take)
}

func (p *persister) write(ctx context.Context, s snapshot) error {
	var errs []error
	for c, records := range s.collections {
		if err := p.st.SaveAll(ctx, c, records); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", c, err))
		}
	}
	for name, v := range s.counters {
		if err := p.st.SaveCounter(ctx, name, v); err != nil {
			errs = append(errs, fmt.Errorf("save counter %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
