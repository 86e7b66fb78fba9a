package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthAmount is the total spent in one calendar month.
type MonthAmount struct {
	Month  time.Month
	Amount decimal.Decimal
}

// SpendingSummary holds the twelve monthly totals and the yearly total for
// one year.
type SpendingSummary struct {
	Year    int
	Monthly [12]MonthAmount
	Total   decimal.Decimal
}

// Summarize totals the records dated in the given year, bucketed by month.
func Summarize(records []Expense, year int) SpendingSummary {
	s := SpendingSummary{Year: year, Total: decimal.Zero}
	for i := range s.Monthly {
		s.Monthly[i] = MonthAmount{Month: time.Month(i + 1), Amount: decimal.Zero}
	}
	for _, e := range records {
		if e.Date.Year() != year {
			continue
		}
		i := int(e.Date.Month()) - 1
		s.Monthly[i].Amount = s.Monthly[i].Amount.Add(e.Amount)
		s.Total = s.Total.Add(e.Amount)
	}
	return s
}
