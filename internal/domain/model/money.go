package model

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount with thousands separators, e.g. "$15,000".
func FormatUSD(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + humanize.Commaf(amount.Neg().Round(2).InexactFloat64())
	}
	return "$" + humanize.Commaf(amount.Round(2).InexactFloat64())
}
