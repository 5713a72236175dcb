package reconcile

import "github.com/shopspring/decimal"

var ten = decimal.NewFromInt(10)

// increments returns the number of 6-second billing units in duration d,
// per spec.md §4.3: 0 for d <= 0, else ceil(d/6).
func increments(d int64) int64 {
	if d <= 0 {
		return 0
	}
	return (d + 5) / 6
}

// callCost is the billed cost of a d-second call at per-minute rate r,
// quantized to r/10 per 6-second increment (spec.md §4.3). d = 0 always
// yields zero cost regardless of r.
func callCost(d int64, r decimal.Decimal) decimal.Decimal {
	n := increments(d)
	if n == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(n).Mul(r).Div(ten)
}

// round2 rounds to 2 decimal places, the monetary output precision
// spec.md §4.3 specifies for totals.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// round4 rounds to 4 decimal places, the per-row cost-difference
// precision spec.md §4.3 specifies.
func round4(d decimal.Decimal) decimal.Decimal { return d.Round(4) }
