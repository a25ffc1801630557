package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

var amountCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// maxAmount is the largest value a DECIMAL(12,2) column holds.
var maxAmount = decimal.RequireFromString("9999999999.99")

// ParseAmount reads a user typed money amount such as "$1,250.50".
// ok is false when the text is not a number, not strictly positive, or
// larger than maxAmount.
func ParseAmount(raw string) (amount decimal.Decimal, ok bool) {
	cleaned := amountCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	d = d.Round(2)
	if !d.IsPositive() || d.GreaterThan(maxAmount) {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders an amount the way it appears in messages.
func FormatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
