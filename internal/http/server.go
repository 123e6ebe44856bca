package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"cablebill/internal/ledger"
	"cablebill/internal/log"
	"cablebill/internal/notify"
)

// Options carries the server's collaborators. Ledger is required; a nil
// Notifier disables the send endpoint.
type Options struct {
	Ledger             *ledger.Repository
	Notifier           *notify.Notifier
	BusinessName       string
	Logger             *log.Logger
	RateLimitPerMinute int
	Now                func() time.Time
}

// Server wraps http.Server with the ledger's JSON API.
type Server struct {
	http.Server

	ledger       *ledger.Repository
	notifier     *notify.Notifier
	businessName string
	logger       *log.Logger
	validate     *validator.Validate
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer builds the router and the underlying http.Server. Timeouts
// follow the values used by the command binaries.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	business := opts.BusinessName
	if business == "" {
		business = notify.DefaultBusinessName
	}

	s := &Server{
		ledger:       opts.Ledger,
		notifier:     opts.Notifier,
		businessName: business,
		logger:       logger.WithComponent(log.ComponentHTTP),
		validate:     newValidator(),
		now:          now,
	}

	r := chi.NewRouter()
	r.Use(MiddlewareStack(MiddlewareConfig{
		Logger:             logger,
		RateLimitPerMinute: opts.RateLimitPerMinute,
	})...)
	s.mountRoutes(r)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) mountRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/customers", s.handleListCustomers)
		r.Post("/customers", s.handleCreateCustomer)
		r.Get("/customers/search", s.handleSearchCustomers)
		r.Get("/customers/expiring", s.handleExpiringCustomers)
		r.Get("/customers/{id}/balance", s.handleCustomerBalance)
		r.Get("/customers/{id}/message", s.handleCustomerMessage)
		r.Post("/customers/{id}/notify", s.handleNotifyCustomer)

		r.Get("/payments", s.handleListPayments)
		r.Post("/payments", s.handleCreatePayment)

		r.Get("/invoices", s.handleListInvoices)
		r.Post("/invoices/generate", s.handleGenerateInvoices)
		r.Post("/invoices/{id}/paid", s.handleMarkInvoicePaid)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/summary/monthly", s.handleMonthlySummary)
		r.Get("/statement", s.handleStatement)
		r.Get("/reports/profit", s.handleProfit)

		r.NotFound(s.handleAPINotFound)
		r.MethodNotAllowed(s.handleAPINotFound)
	})
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server")
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// newValidator reports JSON field names instead of Go field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError(msgRouteNotFound).Send(w, r)
}
