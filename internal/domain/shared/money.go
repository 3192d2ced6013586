package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitDigits is the number of fractional digits kept for every balance and amount
const MinorUnitDigits = 2

var ErrMalformedAmount = errors.New("malformed amount")

// ParseAmount parses decimal text such as "150.00" or "-3.5" into a fixed-point amount.
// A leading "$" is tolerated so that persisted history lines can be read back.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return decimal.Zero, ErrMalformedAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two fractional digits
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MinorUnitDigits)
}

// HasMinorUnitPrecision reports whether d can be represented in minor units without rounding
func HasMinorUnitPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MinorUnitDigits))
}
