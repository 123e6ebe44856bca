package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cablebill/internal/core"
	ports "cablebill/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the two Values endpoints the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	updates []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rng := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	switch r.Method {
	case http.MethodGet:
		col := 0
		if strings.HasSuffix(rng, "!G:G") {
			col = 6
		}
		var values [][]any
		for _, row := range f.rows {
			if col < len(row) {
				values = append(values, []any{row[col]})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": values})
	case http.MethodPut:
		if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
			http.Error(w, "bad valueInputOption "+got, http.StatusBadRequest)
			return
		}
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		f.updates = append(f.updates, rng)
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-id", "", 2024, nil)
}

func testRow(id string) ports.PaymentRow {
	return ports.PaymentRow{
		Date:         core.NewDate(2024, 3, 5),
		Month:        "2024-03",
		CustomerID:   "CUST000001",
		CustomerName: "Ravi",
		Amount:       core.Rupees(250.5),
		Method:       core.MethodGPay,
		PaymentID:    id,
	}
}

func TestClient_AppendPayment(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if c.SheetName() != "2024 Payments" {
		t.Fatalf("SheetName() = %q", c.SheetName())
	}

	ref, err := c.AppendPayment(ctx, testRow("PAY1"))
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	if ref != "2024 Payments!A2:G2" {
		t.Errorf("first ref = %q, want row 2 after header", ref)
	}
	if len(fake.rows) != 2 || fake.rows[0][0] != "Date" {
		t.Fatalf("rows = %v, want header + data", fake.rows)
	}
	data := fake.rows[1]
	if data[0] != "2024-03-05" || data[2] != "CUST000001" || data[4] != 250.5 || data[6] != "PAY1" {
		t.Errorf("data row = %v", data)
	}

	ref, err = c.AppendPayment(ctx, testRow("PAY2"))
	if err != nil {
		t.Fatalf("second AppendPayment: %v", err)
	}
	if ref != "2024 Payments!A3:G3" {
		t.Errorf("second ref = %q", ref)
	}
	if len(fake.updates) != 2 || fake.updates[1] != "2024 Payments!A3:G3" {
		t.Errorf("updates = %v", fake.updates)
	}
}

func TestClient_HasPayment(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if ok, err := c.HasPayment(ctx, "PAY1"); err != nil || ok {
		t.Fatalf("HasPayment on empty sheet = %v, %v", ok, err)
	}
	if _, err := c.AppendPayment(ctx, testRow("PAY1")); err != nil {
		t.Fatal(err)
	}
	if ok, err := c.HasPayment(ctx, "PAY1"); err != nil || !ok {
		t.Errorf("HasPayment(PAY1) = %v, %v", ok, err)
	}
}

func TestClient_AppendPaymentErrors(t *testing.T) {
	c := &Client{spreadsheetID: "test", paymentsSheet: "2024 Payments"}

	bad := testRow("PAY1")
	bad.Amount = core.Money{}
	if _, err := c.AppendPayment(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("invalid row error = %v, want ErrInvalidAmount", err)
	}
	if _, err := c.AppendPayment(context.Background(), testRow("PAY1")); !errors.Is(err, ports.ErrNotInitialized) {
		t.Errorf("nil service error = %v, want ErrNotInitialized", err)
	}

	failing := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	if _, err := failing.AppendPayment(context.Background(), testRow("PAY1")); err == nil {
		t.Error("expected API error")
	}
}

func TestNew_MissingConfig(t *testing.T) {
	if _, err := New(context.Background(), "", "Payments", nil); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("missing id error = %v", err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), "sheet-id", "Payments", nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("missing credentials error = %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Payments", "2024 Payments"},
		{"2023 Payments", "2023 Payments"},
		{"  Payments ", "2024 Payments"},
		{"", ""},
		{"12345", "2024 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, 2024); got != tt.want {
			t.Errorf("yearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
