package types

import (
	"strings"

	"github.com/shopspring/decimal"

	ierr "github.com/marketpay/marketpay/internal/errors"
)

// ParseAmount parses a fixed-precision decimal amount from its string
// representation. An empty string is reported as missing (ok == false)
// rather than zero so callers can decide how to degrade.
func ParseAmount(s string) (amount decimal.Decimal, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, nil
	}

	amount, parseErr := decimal.NewFromString(s)
	if parseErr != nil {
		return decimal.Zero, false, ierr.WithError(parseErr).
			WithHintf("Amount %q is not a valid decimal number", s).
			Mark(ierr.ErrValidation)
	}
	return amount, true, nil
}

// FormatAmount renders an amount with two decimal places, the precision
// all LKR amounts are stored and displayed with.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
