package http

import (
	"net/http"
	"regexp"

	"cablebill/internal/report"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type dashboardResponse struct {
	report.Metrics
	Expiring []expiringCustomer `json:"expiring"`
}

type expiringCustomer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	RenewDate string `json:"renewDate"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	book := s.ledger.Book()
	today := s.ledger.Today()
	resp := dashboardResponse{
		Metrics:  report.Dashboard(book, today),
		Expiring: []expiringCustomer{},
	}
	for _, c := range report.ExpiringCustomers(book, today) {
		resp.Expiring = append(resp.Expiring, expiringCustomer{
			ID:        c.ID,
			Name:      c.Name,
			Phone:     c.Phone,
			RenewDate: c.RenewDate.Display(),
		})
	}
	NewJSONResponse(resp).Send(w, r)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(report.MonthlySummary(s.ledger.Book(), s.ledger.Today())).Send(w, r)
}

// handleStatement filters by ?customer= and ?month=; both are optional.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := report.StatementFilter{CustomerID: q.Get("customer"), Month: q.Get("month")}
	if f.Month != "" && !monthPattern.MatchString(f.Month) {
		BadRequestError(msgInvalidMonth).Send(w, r)
		return
	}
	if f.CustomerID != "" {
		if _, ok := s.ledger.Customer(f.CustomerID); !ok {
			NotFoundError(msgCustomerUnknown).Send(w, r)
			return
		}
	}
	st := report.BuildStatement(s.ledger.Book(), f)
	if st.Rows == nil {
		st.Rows = []report.PaymentRow{}
	}
	NewJSONResponse(st).Send(w, r)
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(report.Profit(s.ledger.Book())).Send(w, r)
}
