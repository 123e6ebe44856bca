// Package notify composes customer account summaries and delivers them over
// SMS or WhatsApp.
package notify

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"text/template"

	"cablebill/internal/balance"
	"cablebill/internal/core"
)

const DefaultBusinessName = "MS Digital Cable TV"

var summaryTemplate = template.Must(template.New("summary").Parse(`Dear {{.Name}},

Your Cable TV Account Summary:
Customer ID: {{.ID}}
Received Amount: {{.Received}}
Balance Amount: {{.Balance}}
Renew Date: {{.RenewDate}}

Thank you for your business!
{{.Business}}`))

type summaryData struct {
	Name      string
	ID        string
	Received  string
	Balance   string
	RenewDate string
	Business  string
}

// Compose renders the account summary message for a customer. An empty
// business name falls back to DefaultBusinessName.
func Compose(c core.Customer, r balance.Result, businessName string) string {
	if strings.TrimSpace(businessName) == "" {
		businessName = DefaultBusinessName
	}
	var buf bytes.Buffer
	// The template only formats strings; execution cannot fail.
	_ = summaryTemplate.Execute(&buf, summaryData{
		Name:      c.Name,
		ID:        c.ID,
		Received:  core.FormatCurrency(r.Paid),
		Balance:   core.FormatCurrency(r.Balance),
		RenewDate: c.RenewDate.Display(),
		Business:  businessName,
	})
	return buf.String()
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// WhatsAppLink returns a wa.me click-to-chat URL with the message prefilled.
func WhatsAppLink(phone, message string) string {
	return "https://wa.me/" + nonDigits.ReplaceAllString(phone, "") +
		"?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
