package report

import (
	"time"

	"cablebill/internal/core"
)

// MonthsInSummary is how many calendar months MonthlySummary covers.
const MonthsInSummary = 12

// MonthBucket is one month of collections.
type MonthBucket struct {
	Month  string     `json:"month"` // YYYY-MM
	Label  string     `json:"label"` // "Oct 2026"
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// MonthlySummary buckets payments into the twelve months ending with
// today's month, oldest first. Payments are bucketed by their month field,
// falling back to the month of their date.
func MonthlySummary(book core.Book, today core.Date) []MonthBucket {
	first := time.Date(today.Year(), today.Time.Month(), 1, 0, 0, 0, 0, time.UTC)

	buckets := make([]MonthBucket, MonthsInSummary)
	index := make(map[string]int, MonthsInSummary)
	for i := range buckets {
		m := first.AddDate(0, i-(MonthsInSummary-1), 0)
		key := core.MonthKey(m)
		buckets[i] = MonthBucket{Month: key, Label: m.Format("Jan 2006")}
		index[key] = i
	}

	for _, p := range book.Payments {
		key := p.Month
		if key == "" {
			key = p.Date.MonthKey()
		}
		if i, ok := index[key]; ok {
			buckets[i].Amount = buckets[i].Amount.Add(p.Amount)
			buckets[i].Count++
		}
	}
	return buckets
}
