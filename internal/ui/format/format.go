// Package format renders dashboard numbers for people: grouped thousands,
// fixed decimals, and "no data" for undefined averages.
package format

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const NoData = "no data"

// Money formats d as dollars rounded to places decimals, e.g. "$1,234.57".
func Money(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}

	whole := r.Truncate(0)
	s := sign + "$" + humanize.Comma(whole.IntPart())
	if places > 0 {
		frac := r.Sub(whole).StringFixed(places)
		s += frac[1:]
	}
	return s
}

func Count(n int) string {
	return humanize.Comma(int64(n))
}

func OrderValue(v models.OrderValue) string {
	if !v.Valid {
		return NoData
	}
	return Money(v.Value, 2)
}
