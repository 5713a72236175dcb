package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Rate returns the per-minute decimal v represents. Null or empty returns
// zero; a value that fails to parse as a decimal, or is NaN, also returns
// zero. A negative value is returned unchanged.
func Rate(v any) decimal.Decimal {
	if isBlank(v) {
		return decimal.Zero
	}

	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		if math.IsNaN(t) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(t)
	case int64:
		return decimal.NewFromInt(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
