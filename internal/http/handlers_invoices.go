package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cablebill/internal/core"
	"cablebill/internal/report"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(report.InvoiceRows(s.ledger.Book())).Send(w, r)
}

type generateResponse struct {
	OK       bool           `json:"ok"`
	Count    int            `json:"count"`
	Invoices []core.Invoice `json:"invoices"`
}

// handleGenerateInvoices runs the monthly batch. A body naming a
// customerId bills that one customer instead, optionally with an amount
// override.
func (s *Server) handleGenerateInvoices(w http.ResponseWriter, r *http.Request) {
	var req generateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		BadRequestError(msgInvalidBody).Send(w, r)
		return
	}

	var created []core.Invoice
	if req.CustomerID != "" {
		if req.Amount != nil && req.Amount.Validate() != nil {
			BadRequestError(msgAmountPositive).Send(w, r)
			return
		}
		inv, ok := s.ledger.GenerateInvoice(r.Context(), req.CustomerID, req.Amount)
		if !ok {
			NotFoundError(msgCustomerUnknown).Send(w, r)
			return
		}
		created = []core.Invoice{inv}
	} else {
		created = s.ledger.GenerateMonthlyInvoices(r.Context())
	}
	if created == nil {
		created = []core.Invoice{}
	}
	NewJSONResponse(generateResponse{OK: true, Count: len(created), Invoices: created}).
		Status(http.StatusCreated).
		Send(w, r)
}

type invoiceResponse struct {
	OK      bool         `json:"ok"`
	Invoice core.Invoice `json:"invoice"`
}

func (s *Server) handleMarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.ledger.MarkInvoicePaid(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		NotFoundError(msgInvoiceUnknown).Send(w, r)
		return
	}
	NewJSONResponse(invoiceResponse{OK: true, Invoice: inv}).Send(w, r)
}
