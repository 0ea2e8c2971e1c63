package pricing

import "github.com/shopspring/decimal"

// Currency is the ISO code of every estimate.
const Currency = "INR"

// FormatRupees renders cost with the rupee sign and two decimals.
func FormatRupees(cost int) string {
	return "₹" + decimal.NewFromInt(int64(cost)).StringFixed(2)
}

// Formatted returns the estimate as FormatRupees does.
func (e Estimate) Formatted() string {
	return FormatRupees(e.Cost)
}
