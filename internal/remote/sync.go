package remote

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"cablebill/internal/core"
	"cablebill/internal/log"
)

// Progress phases reported by Push.
const (
	PhaseCustomerSkip = "customer-skip"
	PhaseCustomerPush = "customer-push"
	PhasePaymentPush  = "payment-push"
)

// Progress reports how far a Push has got. Index is 1-based.
type Progress struct {
	Phase string
	Index int
	Total int
}

// PushResult summarizes a Push.
type PushResult struct {
	CustomersMapped int
	PaymentsPushed  int
	// IDMap maps local customer IDs to server IDs.
	IDMap map[string]string
}

// API is the subset of Client used by Syncer.
type API interface {
	Status(ctx context.Context) (Status, error)
	ListCustomers(ctx context.Context) ([]core.Customer, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
	CreateCustomer(ctx context.Context, c core.Customer) (core.Customer, error)
	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
}

// Ledger is the local side of a sync.
type Ledger interface {
	Customers() []core.Customer
	Payments() []core.Payment
	ReplaceCustomers(customers []core.Customer)
	ReplacePayments(payments []core.Payment)
}

// Syncer moves customers and payments between the local ledger and the
// sync server.
type Syncer struct {
	api    API
	ledger Ledger
	logger *log.Logger
}

func NewSyncer(api API, ledger Ledger, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Syncer{api: api, ledger: ledger, logger: logger.WithComponent(log.ComponentRemote)}
}

// Pull replaces local customers and payments with the server's copies.
// Both lists are fetched concurrently and nothing changes locally unless
// both fetches succeed.
func (s *Syncer) Pull(ctx context.Context) error {
	var (
		customers []core.Customer
		payments  []core.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = s.api.ListCustomers(gctx)
		if err != nil {
			return fmt.Errorf("list customers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = s.api.ListPayments(gctx)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Pull from server failed, keeping local data",
			log.FieldOperation, log.OpPull, log.FieldError, err, log.FieldErrorType, log.ErrorTypeRemote)
		return err
	}

	s.ledger.ReplaceCustomers(customers)
	s.ledger.ReplacePayments(payments)
	s.logger.InfoContext(ctx, "Pulled data from server",
		log.FieldOperation, log.OpPull,
		"customers", len(customers),
		"payments", len(payments))
	return nil
}

// Push uploads local customers and payments. Customers already on the
// server (same lowercase name and phone) are mapped instead of recreated,
// and payments are sent with their customer IDs rewritten to server IDs.
// Individual create failures are logged and skipped; only the initial
// customer listing is fatal.
func (s *Syncer) Push(ctx context.Context, progress func(Progress)) (PushResult, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	remoteCustomers, err := s.api.ListCustomers(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("list server customers: %w", err)
	}
	index := make(map[string]string, len(remoteCustomers))
	for _, c := range remoteCustomers {
		index[dedupeKey(c)] = c.ID
	}

	idMap := make(map[string]string)
	local := s.ledger.Customers()
	for i, c := range local {
		if serverID, ok := index[dedupeKey(c)]; ok && serverID != "" {
			idMap[c.ID] = serverID
			progress(Progress{Phase: PhaseCustomerSkip, Index: i + 1, Total: len(local)})
			continue
		}
		created, err := s.api.CreateCustomer(ctx, c)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "Failed to push customer",
				log.FieldCustomerID, c.ID, log.FieldError, err, log.FieldErrorType, log.ErrorTypeRemote)
		case created.ID != "":
			idMap[c.ID] = created.ID
			index[dedupeKey(c)] = created.ID
		}
		progress(Progress{Phase: PhaseCustomerPush, Index: i + 1, Total: len(local)})
	}

	pushed := 0
	payments := s.ledger.Payments()
	for i, p := range payments {
		if serverID, ok := idMap[p.CustomerID]; ok {
			p.CustomerID = serverID
		}
		if _, err := s.api.CreatePayment(ctx, p); err != nil {
			s.logger.WarnContext(ctx, "Failed to push payment",
				log.FieldPaymentID, p.ID, log.FieldError, err, log.FieldErrorType, log.ErrorTypeRemote)
		} else {
			pushed++
		}
		progress(Progress{Phase: PhasePaymentPush, Index: i + 1, Total: len(payments)})
	}

	s.logger.InfoContext(ctx, "Pushed local data to server",
		log.FieldOperation, log.OpPush,
		"customers_mapped", len(idMap),
		"payments_pushed", pushed)
	return PushResult{CustomersMapped: len(idMap), PaymentsPushed: pushed, IDMap: idMap}, nil
}

// CheckAndEnable probes the server and, when it answers, pushes local
// data and then pulls the merged result back. It reports whether the
// server was reachable. Push and pull failures are logged only.
func (s *Syncer) CheckAndEnable(ctx context.Context) bool {
	if _, err := s.api.Status(ctx); err != nil {
		s.logger.InfoContext(ctx, "Sync server not reachable", log.FieldError, err)
		return false
	}
	if _, err := s.Push(ctx, nil); err != nil {
		s.logger.WarnContext(ctx, "Push after status check failed", log.FieldError, err)
	}
	if err := s.Pull(ctx); err != nil {
		s.logger.WarnContext(ctx, "Pull after push failed", log.FieldError, err)
	}
	return true
}

func dedupeKey(c core.Customer) string {
	return strings.ToLower(c.Name) + "|" + strings.ToLower(c.Phone)
}
