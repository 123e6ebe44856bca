// Package http serves the ledger as a JSON API.
//
// This file implements the Builder Pattern for JSON responses so every
// handler emits the same envelope and content type.

package http

import (
	"encoding/json"
	"net/http"

	"cablebill/internal/log"
)

// Error messages shared with API clients. The create messages are matched
// verbatim by older clients.
const (
	msgMissingName     = "Missing name"
	msgMissingPayment  = "Missing customerId or amount (number expected)"
	msgRouteNotFound   = "API route not found"
	msgCustomerUnknown = "Customer not found"
	msgInvoiceUnknown  = "Invoice not found"
	msgInvalidBody     = "Invalid request body"
	msgInvalidAmount   = "Invalid amount"
	msgAmountPositive  = "Amount must be greater than zero"
	msgInvalidMonth    = "Invalid month (YYYY-MM expected)"
	msgInvalidChannel  = "Unknown notification channel"
	msgNotifyFailed    = "Notification failed"
	msgNotifyDisabled  = "Notifications are not configured"
)

// JSONResponse provides a fluent API for building JSON responses.
type JSONResponse struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a response builder with a 200 status.
func NewJSONResponse(body any) *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		body:       body,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

// Header sets a custom header on the response.
func (b *JSONResponse) Header(key, value string) *JSONResponse {
	b.headers[key] = value
	return b
}

// StatusCode returns the configured status code.
func (b *JSONResponse) StatusCode() int {
	return b.statusCode
}

// Send writes the response. Encoding failures are logged against the
// request's logger; the status line has already gone out by then.
func (b *JSONResponse) Send(w http.ResponseWriter, r *http.Request) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeInternal)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a {"error": message} response with the given status.
func ErrorResponse(code int, message string) *JSONResponse {
	return NewJSONResponse(errorBody{Error: message}).Status(code)
}

func BadRequestError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponse {
	return ErrorResponse(http.StatusNotFound, message)
}

func ServiceUnavailableError(message string) *JSONResponse {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

func BadGatewayError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadGateway, message)
}
