package http

import (
	"net/http"

	"cablebill/internal/core"
	"cablebill/internal/log"
	"cablebill/internal/report"
)

// handleListPayments returns the bare payment array. With ?method= it
// returns display rows filtered to that method instead.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	if method := r.URL.Query().Get("method"); method != "" {
		rows := report.PaymentRows(s.ledger.Book(), method)
		if rows == nil {
			rows = []report.PaymentRow{}
		}
		NewJSONResponse(rows).Send(w, r)
		return
	}
	payments := s.ledger.Payments()
	if payments == nil {
		payments = []core.Payment{}
	}
	NewJSONResponse(payments).Send(w, r)
}

type createPaymentResponse struct {
	OK      bool         `json:"ok"`
	Payment core.Payment `json:"payment"`
}

// handleCreatePayment records a payment. Any malformed body, including a
// quoted amount, is reported with the same message the sync client knows.
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(msgMissingPayment).Send(w, r)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		log.FromContext(r.Context()).Warn("Payment rejected",
			log.FieldErrorType, log.ErrorTypeValidation, "fields", fieldErrors(err))
		BadRequestError(msgMissingPayment).Send(w, r)
		return
	}

	payment, err := req.toPayment()
	if err != nil {
		log.FromContext(r.Context()).Warn("Payment rejected",
			log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		BadRequestError(msgMissingPayment).Send(w, r)
		return
	}

	p, ok := s.ledger.AddPayment(r.Context(), payment)
	if !ok {
		NotFoundError(msgCustomerUnknown).Send(w, r)
		return
	}
	NewJSONResponse(createPaymentResponse{OK: true, Payment: p}).
		Status(http.StatusCreated).
		Send(w, r)
}
