package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cablebill/internal/log"
	ports "cablebill/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base tab name; the current year is prefixed.
const DefaultSheetName = "Payments"

var header = []any{"Date", "Month", "Customer ID", "Customer Name", "Amount", "Method", "Payment ID"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	paymentsSheet string
	logger        *log.Logger
}

// Ensure interface conformance
var (
	_ ports.PaymentExporter = (*Client)(nil)
	_ ports.PaymentIndex    = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account taken
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. sheetName is a base name; the current
// year is prefixed unless it already starts with one.
func New(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	creds, err := serviceAccountJSON(ctx, logger)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetName, time.Now().Year(), logger), nil
}

// NewWithService wraps an existing service. Used by tests pointing the
// service at a fake endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, year int, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		paymentsSheet: yearPrefixedName(sheetName, year),
		logger:        logger,
	}
}

// SheetName returns the resolved tab name.
func (c *Client) SheetName() string { return c.paymentsSheet }

func serviceAccountJSON(ctx context.Context, logger *log.Logger) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		logger.DebugContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendPayment writes the row below the last used row of column A. An
// empty sheet gets a header row first.
func (c *Client) AppendPayment(ctx context.Context, row ports.PaymentRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", ports.ErrNotInitialized
	}

	rng := fmt.Sprintf("%s!A:A", c.paymentsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", c.paymentsSheet, err)
	}

	values := [][]any{toValues(row)}
	nextRow := len(resp.Values) + 1
	if nextRow == 1 {
		values = append([][]any{header}, values...)
	}
	lastRow := nextRow + len(values) - 1

	dataRange := fmt.Sprintf("%s!A%d:G%d", c.paymentsSheet, nextRow, lastRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	ref := fmt.Sprintf("%s!A%d:G%d", c.paymentsSheet, lastRow, lastRow)
	c.logger.InfoContext(ctx, "Payment exported",
		log.FieldPaymentID, row.PaymentID, log.FieldCustomerID, row.CustomerID, "row_ref", ref)
	return ref, nil
}

// HasPayment scans the payment ID column.
func (c *Client) HasPayment(ctx context.Context, paymentID string) (bool, error) {
	if c.svc == nil {
		return false, ports.ErrNotInitialized
	}
	ids, err := c.readCol(ctx, "G:G")
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == paymentID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) readCol(ctx context.Context, col string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s", c.paymentsSheet, col)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(fmt.Sprint(row[0])); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func toValues(row ports.PaymentRow) []any {
	name := row.CustomerName
	if name == "" {
		name = "Unknown"
	}
	return []any{
		row.Date.String(),
		row.Month,
		row.CustomerID,
		name,
		row.Amount.Value(),
		string(row.Method),
		row.PaymentID,
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
