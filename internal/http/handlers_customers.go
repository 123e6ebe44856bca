package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cablebill/internal/balance"
	"cablebill/internal/core"
	"cablebill/internal/log"
	"cablebill/internal/notify"
	"cablebill/internal/report"
)

// isoMillis matches the timestamp shape older clients parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type statusResponse struct {
	OK      bool   `json:"ok"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(statusResponse{
		OK:      true,
		Time:    s.now().UTC().Format(isoMillis),
		Message: "Server running",
	}).Send(w, r)
}

// handleListCustomers returns the bare customer array the sync client
// expects.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers := s.ledger.Customers()
	if customers == nil {
		customers = []core.Customer{}
	}
	NewJSONResponse(customers).Send(w, r)
}

type createCustomerResponse struct {
	OK       bool          `json:"ok"`
	Customer core.Customer `json:"customer"`
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		BadRequestError(msgInvalidBody).Send(w, r)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		fields := fieldErrors(err)
		log.FromContext(r.Context()).Warn("Customer rejected",
			log.FieldErrorType, log.ErrorTypeValidation, "fields", fields)
		if _, ok := fields["name"]; ok {
			BadRequestError(msgMissingName).Send(w, r)
			return
		}
		BadRequestError(msgInvalidBody).Send(w, r)
		return
	}

	customer := req.toCustomer()
	if err := customer.Validate(); err != nil {
		log.FromContext(r.Context()).Warn("Customer rejected",
			log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		switch {
		case errors.Is(err, core.ErrEmptyName):
			BadRequestError(msgMissingName).Send(w, r)
		case errors.Is(err, core.ErrInvalidAmount):
			BadRequestError(msgInvalidAmount).Send(w, r)
		default:
			BadRequestError(msgInvalidBody).Send(w, r)
		}
		return
	}

	c := s.ledger.AddCustomer(r.Context(), customer)
	NewJSONResponse(createCustomerResponse{OK: true, Customer: c}).
		Status(http.StatusCreated).
		Send(w, r)
}

func (s *Server) handleSearchCustomers(w http.ResponseWriter, r *http.Request) {
	found := report.SearchCustomers(s.ledger.Book(), r.URL.Query().Get("q"))
	if found == nil {
		found = []core.Customer{}
	}
	NewJSONResponse(found).Send(w, r)
}

func (s *Server) handleExpiringCustomers(w http.ResponseWriter, r *http.Request) {
	expiring := report.ExpiringCustomers(s.ledger.Book(), s.ledger.Today())
	if expiring == nil {
		expiring = []core.Customer{}
	}
	NewJSONResponse(expiring).Send(w, r)
}

type balanceResponse struct {
	CustomerID      string     `json:"customerId"`
	CustomerName    string     `json:"customerName"`
	Paid            core.Money `json:"paid"`
	Balance         core.Money `json:"balance"`
	TotalDue        core.Money `json:"totalDue"`
	PendingInvoices core.Money `json:"pendingInvoices"`
	PaidInvoices    core.Money `json:"paidInvoices"`
	Credit          core.Money `json:"credit"`
	Label           string     `json:"label"`
}

func newBalanceResponse(c core.Customer, res balance.Result) balanceResponse {
	return balanceResponse{
		CustomerID:      c.ID,
		CustomerName:    c.Name,
		Paid:            res.Paid,
		Balance:         res.Balance,
		TotalDue:        res.TotalDue,
		PendingInvoices: res.PendingInvoices,
		PaidInvoices:    res.PaidInvoices,
		Credit:          res.Credit(),
		Label:           res.Label(),
	}
}

func (s *Server) handleCustomerBalance(w http.ResponseWriter, r *http.Request) {
	c, ok := s.ledger.Customer(chi.URLParam(r, "id"))
	if !ok {
		NotFoundError(msgCustomerUnknown).Send(w, r)
		return
	}
	NewJSONResponse(newBalanceResponse(c, s.ledger.Balance(c.ID))).Send(w, r)
}

type messageResponse struct {
	CustomerID   string `json:"customerId"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsappLink,omitempty"`
}

func (s *Server) composeFor(id string) (core.Customer, string, bool) {
	c, ok := s.ledger.Customer(id)
	if !ok {
		return core.Customer{}, "", false
	}
	return c, notify.Compose(c, s.ledger.Balance(c.ID), s.businessName), true
}

func (s *Server) handleCustomerMessage(w http.ResponseWriter, r *http.Request) {
	c, msg, ok := s.composeFor(chi.URLParam(r, "id"))
	if !ok {
		NotFoundError(msgCustomerUnknown).Send(w, r)
		return
	}
	resp := messageResponse{CustomerID: c.ID, Phone: c.Phone, Message: msg}
	if c.Phone != "" {
		resp.WhatsAppLink = notify.WhatsAppLink(c.Phone, msg)
	}
	NewJSONResponse(resp).Send(w, r)
}

type notifyResponse struct {
	OK      bool   `json:"ok"`
	Channel string `json:"channel"`
	SentAt  string `json:"sentAt"`
}

// handleNotifyCustomer sends the payment summary through the SMS or
// WhatsApp gateway.
func (s *Server) handleNotifyCustomer(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		ServiceUnavailableError(msgNotifyDisabled).Send(w, r)
		return
	}
	var req notifyRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		BadRequestError(msgInvalidBody).Send(w, r)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		BadRequestError(msgInvalidChannel).Send(w, r)
		return
	}

	c, msg, ok := s.composeFor(chi.URLParam(r, "id"))
	if !ok {
		NotFoundError(msgCustomerUnknown).Send(w, r)
		return
	}

	err := s.notifier.Send(r.Context(), notify.Channel(req.Channel), c.Phone, msg)
	switch {
	case err == nil:
		NewJSONResponse(notifyResponse{
			OK:      true,
			Channel: req.Channel,
			SentAt:  s.now().UTC().Format(time.RFC3339),
		}).Send(w, r)
	case errors.Is(err, notify.ErrMissingPhone):
		BadRequestError("Customer has no phone number").Send(w, r)
	case errors.Is(err, notify.ErrUnknownChannel), errors.Is(err, notify.ErrNotConfigured):
		ServiceUnavailableError(msgNotifyDisabled).Send(w, r)
	default:
		BadGatewayError(msgNotifyFailed).Send(w, r)
	}
}
