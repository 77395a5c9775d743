package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sv650s/springboard/internal/contracts"
)

// round2 rounds half away from zero to two decimal places.
// Goes through decimal so that 0.9499999999999957 (35.94-34.99) lands on 0.95.
// Non-finite values are returned as is; decimal cannot represent them.
func round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkFinite fails on the first numeric cell in cols that is NaN or ±Inf
func checkFinite(records []contracts.Record, cols ...int) error {
	for i, r := range records {
		for _, col := range cols {
			if v, ok := r[col].Float(); ok && !finite(v) {
				return &InvalidValueError{Index: col, Row: i, Value: v}
			}
		}
	}
	return nil
}
