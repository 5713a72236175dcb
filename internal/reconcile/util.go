package reconcile

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

func ptrInt64(v int64) *int64 { return &v }

func ptrDecimal(v decimal.Decimal) *decimal.Decimal { return &v }

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
