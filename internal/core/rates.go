package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds conversion multipliers from one unit of Base to one unit
// of each listed currency.
type RateTable struct {
	Base      string                     `json:"base" yaml:"base"`
	Rates     map[string]decimal.Decimal `json:"rates" yaml:"rates"`
	FetchedAt time.Time                  `json:"fetchedAt" yaml:"fetchedAt"`
}

// Rate returns the multiplier for code.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.Rates[code]
	return r, ok
}

// Codes returns the currency codes in the table, sorted.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.Rates))
	for c := range t.Rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
