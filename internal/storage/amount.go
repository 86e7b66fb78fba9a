package storage

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as decimal text so nothing is lost to float rounding.
func decimalFromText(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return d, nil
}
