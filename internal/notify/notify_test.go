package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"cablebill/internal/balance"
	"cablebill/internal/core"
)

func TestCompose(t *testing.T) {
	c := core.Customer{
		ID:        "CUST000001",
		Name:      "Ravi Kumar",
		RenewDate: core.NewDate(2024, 4, 1),
	}
	r := balance.Result{Found: true, Paid: core.Rupees(500), Balance: core.Rupees(100)}

	got := Compose(c, r, "")
	want := `Dear Ravi Kumar,

Your Cable TV Account Summary:
Customer ID: CUST000001
Received Amount: Rs. 500.00
Balance Amount: Rs. 100.00
Renew Date: 01/04/2024

Thank you for your business!
MS Digital Cable TV`
	if got != want {
		t.Errorf("Compose() =\n%s\nwant\n%s", got, want)
	}

	custom := Compose(c, r, "Star Cable")
	if !strings.HasSuffix(custom, "\nStar Cable") {
		t.Errorf("custom signature missing: %q", custom)
	}
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("+91 98765-43210", "Dear Ravi,\nBalance: Rs. 100.00 & more")
	if !strings.HasPrefix(link, "https://wa.me/919876543210?text=") {
		t.Fatalf("link = %q", link)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("text"); got != "Dear Ravi,\nBalance: Rs. 100.00 & more" {
		t.Errorf("decoded text = %q", got)
	}
	if strings.Contains(link, "+") {
		t.Errorf("spaces should be percent-encoded: %q", link)
	}
}

func TestHTTPSender_Send(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSender(ChannelSMS, srv.URL, "secret", 0)
	if err := s.Send(context.Background(), "9876543210", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["to"] != "9876543210" || gotBody["message"] != "hello" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestHTTPSender_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	tests := []struct {
		name   string
		sender *HTTPSender
		to     string
		want   error
	}{
		{"no url", NewHTTPSender(ChannelSMS, "", "key", 0), "1", ErrNotConfigured},
		{"no key", NewHTTPSender(ChannelWhatsApp, "http://x", "", 0), "1", ErrNotConfigured},
		{"nil sender", nil, "1", ErrNotConfigured},
		{"no phone", NewHTTPSender(ChannelSMS, failing.URL, "key", 0), " ", ErrMissingPhone},
		{"gateway error", NewHTTPSender(ChannelSMS, failing.URL, "key", 0), "1", ErrDeliveryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sender.Send(context.Background(), tt.to, "msg")
			if !errors.Is(err, tt.want) {
				t.Errorf("Send() error = %v, want %v", err, tt.want)
			}
		})
	}
}

type recordingSender struct {
	to, message string
	err         error
}

func (r *recordingSender) Send(ctx context.Context, to, message string) error {
	r.to, r.message = to, message
	return r.err
}

func TestNotifier_Routes(t *testing.T) {
	sms := &recordingSender{}
	wa := &recordingSender{err: ErrNotConfigured}
	n := NewNotifier(nil, sms, wa)

	if err := n.Send(context.Background(), ChannelSMS, "123", "hi"); err != nil {
		t.Fatalf("sms: %v", err)
	}
	if sms.to != "123" || sms.message != "hi" {
		t.Errorf("sms sender got %q %q", sms.to, sms.message)
	}
	if err := n.Send(context.Background(), ChannelWhatsApp, "123", "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("whatsapp error = %v", err)
	}
	if err := n.Send(context.Background(), Channel("fax"), "123", "hi"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("unknown channel error = %v", err)
	}
}
