// Package report derives dashboard figures, monthly summaries and
// statements from a ledger snapshot. Everything is recomputed from the
// full collections on each call; nothing is cached.
package report

import (
	"sort"

	"cablebill/internal/core"
)

// Metrics are the dashboard headline figures.
type Metrics struct {
	TodayCollection  core.Money `json:"todayCollection"`
	MonthCollection  core.Money `json:"monthCollection"`
	MonthDues        core.Money `json:"monthDues"`
	TotalOutstanding core.Money `json:"totalOutstanding"`
	OnlineCollection core.Money `json:"onlineCollection"`
	GPayCollection   core.Money `json:"gpayCollection"`
	PhonePe          core.Money `json:"phonepeCollection"`
	ExpiringCount    int        `json:"expiringCount"`
	ActiveCount      int        `json:"activeCount"`
	InactiveCount    int        `json:"inactiveCount"`
	TotalCustomers   int        `json:"totalCustomers"`
}

// Dashboard computes the headline figures as of today.
//
// Month dues subtract this month's payments from each active customer's
// charge and floor only the final sum, so one customer's overpayment offsets
// another's shortfall. Total outstanding floors per customer against
// lifetime payments.
func Dashboard(book core.Book, today core.Date) Metrics {
	month := today.MonthKey()
	var m Metrics

	paidThisMonth := make(map[string]core.Money)
	paidLifetime := make(map[string]core.Money)
	for _, p := range book.Payments {
		paidLifetime[p.CustomerID] = paidLifetime[p.CustomerID].Add(p.Amount)
		if p.Date.SameDay(today) {
			m.TodayCollection = m.TodayCollection.Add(p.Amount)
		}
		if p.Date.MonthKey() == month {
			m.MonthCollection = m.MonthCollection.Add(p.Amount)
			paidThisMonth[p.CustomerID] = paidThisMonth[p.CustomerID].Add(p.Amount)
		}
		switch p.Method {
		case core.MethodGPay:
			m.GPayCollection = m.GPayCollection.Add(p.Amount)
		case core.MethodPhonePe:
			m.PhonePe = m.PhonePe.Add(p.Amount)
		}
	}
	m.OnlineCollection = m.GPayCollection.Add(m.PhonePe)

	var dues core.Money
	for _, c := range book.Customers {
		m.TotalCustomers++
		if !c.IsActive() {
			m.InactiveCount++
			continue
		}
		m.ActiveCount++
		dues = dues.Add(c.Amount.Sub(paidThisMonth[c.ID]))
		m.TotalOutstanding = m.TotalOutstanding.Add(c.Amount.Sub(paidLifetime[c.ID]).FloorZero())
		if c.IsDueForRenewal(today) {
			m.ExpiringCount++
		}
	}
	m.MonthDues = dues.FloorZero()
	return m
}

// ExpiringCustomers lists active customers due for renewal on or before
// today, earliest renewal first.
func ExpiringCustomers(book core.Book, today core.Date) []core.Customer {
	var out []core.Customer
	for _, c := range book.Customers {
		if c.IsDueForRenewal(today) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RenewDate.IsBefore(out[j].RenewDate)
	})
	return out
}

// ProfitLoss is total income against total expenses. Net may be negative.
type ProfitLoss struct {
	Income   core.Money `json:"totalIncome"`
	Expenses core.Money `json:"totalExpenses"`
	Net      core.Money `json:"netProfit"`
}

func Profit(book core.Book) ProfitLoss {
	var pl ProfitLoss
	for _, p := range book.Payments {
		pl.Income = pl.Income.Add(p.Amount)
	}
	for _, e := range book.Expenses {
		pl.Expenses = pl.Expenses.Add(e.Amount)
	}
	pl.Net = pl.Income.Sub(pl.Expenses)
	return pl
}
