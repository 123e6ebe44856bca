// Package remote talks to the ledger sync server over its JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cablebill/internal/core"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 5 * time.Second

var (
	ErrNoBaseURL   = errors.New("remote base url not configured")
	ErrUnavailable = errors.New("remote server unavailable")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned status %d", e.Code)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Code, e.Body)
}

// Status is the payload of GET /api/status.
type Status struct {
	OK      bool      `json:"ok"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Client is a thin JSON client for the sync server. Each call is a single
// attempt bounded by the client timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL, e.g. "http://localhost:3000/api".
// A bare host without the /api suffix gets it appended.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL += "/api"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	var wire []wireCustomer
	if err := c.do(ctx, http.MethodGet, "/customers", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Customer, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.customer())
	}
	return out, nil
}

func (c *Client) ListPayments(ctx context.Context) ([]core.Payment, error) {
	var wire []wirePayment
	if err := c.do(ctx, http.MethodGet, "/payments", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Payment, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.payment())
	}
	return out, nil
}

// CreateCustomer posts the customer and returns the server's copy.
func (c *Client) CreateCustomer(ctx context.Context, cust core.Customer) (core.Customer, error) {
	payload := customerPayload{
		Name:      cust.Name,
		Phone:     cust.Phone,
		STBNumber: cust.STBNumber,
		Amount:    cust.Amount,
		RenewDate: cust.RenewDate,
		Status:    cust.Status,
	}
	var resp struct {
		OK       bool         `json:"ok"`
		Customer wireCustomer `json:"customer"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers", payload, &resp); err != nil {
		return core.Customer{}, err
	}
	return resp.Customer.customer(), nil
}

// CreatePayment posts the payment and returns the server's copy.
func (c *Client) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	payload := paymentPayload{
		CustomerID:    p.CustomerID,
		Amount:        p.Amount,
		Method:        p.Method,
		Date:          p.Date,
		TransactionID: p.TransactionID,
	}
	var resp struct {
		OK      bool        `json:"ok"`
		Payment wirePayment `json:"payment"`
	}
	if err := c.do(ctx, http.MethodPost, "/payments", payload, &resp); err != nil {
		return core.Payment{}, err
	}
	return resp.Payment.payment(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type customerPayload struct {
	Name      string              `json:"name"`
	Phone     string              `json:"phone"`
	STBNumber string              `json:"stbNumber"`
	Amount    core.Money          `json:"amount"`
	RenewDate core.Date           `json:"renewDate"`
	Status    core.CustomerStatus `json:"status"`
}

type paymentPayload struct {
	CustomerID    string             `json:"customerId"`
	Amount        core.Money         `json:"amount"`
	Method        core.PaymentMethod `json:"method"`
	Date          core.Date          `json:"date"`
	TransactionID string             `json:"transactionId,omitempty"`
}

// Servers backed by a document store may only expose "_id".
type wireCustomer struct {
	core.Customer
	DocID string `json:"_id"`
}

func (w wireCustomer) customer() core.Customer {
	c := w.Customer
	if c.ID == "" {
		c.ID = w.DocID
	}
	return c
}

type wirePayment struct {
	core.Payment
	DocID string `json:"_id"`
}

func (w wirePayment) payment() core.Payment {
	p := w.Payment
	if p.ID == "" {
		p.ID = w.DocID
	}
	return p
}
