package stats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sv650s/springboard/internal/contracts"
)

// =============================================================================
// Order statistics (pure)
// =============================================================================

// SortByColumn returns a copy of records stably sorted ascending by the field at col.
// Nulls sort first, then numbers, then text. The input slice is left untouched.
func SortByColumn(records []contracts.Record, col int) ([]contracts.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("sort by column %d: %w", col, ErrNoData)
	}
	if err := checkWidth(records, col); err != nil {
		return nil, err
	}

	sorted := make([]contracts.Record, len(records))
	copy(sorted, records)

	slices.SortStableFunc(sorted, func(a, b contracts.Record) int {
		return compareFields(a[col], b[col])
	})
	return sorted, nil
}

// MedianOfColumn returns the median of the numeric values at col, rounded to 2 decimals.
//
// n counts numeric cells only: null and text cells are not values and are
// skipped, so a column without any number (all null, say) returns ErrNoData,
// which Compute passes on for the volume median. A NaN or ±Inf cell is an
// InvalidValueError.
func MedianOfColumn(records []contracts.Record, col int) (float64, error) {
	sorted, err := SortByColumn(records, col)
	if err != nil {
		return 0, err
	}
	if err := checkFinite(records, col); err != nil {
		return 0, err
	}

	values := make([]float64, 0, len(sorted))
	for _, r := range sorted {
		if v, ok := r[col].Float(); ok {
			values = append(values, v)
		}
	}

	n := len(values)
	mid := n / 2
	switch {
	case n == 0:
		return 0, fmt.Errorf("median of column %d: %w", col, ErrNoData)
	case n == 1:
		return round2(values[0]), nil
	case n%2 == 1:
		return round2(values[mid]), nil
	}

	median := (values[mid] + values[mid-1]) / 2
	if !finite(median) {
		return 0, fmt.Errorf("median of column %d: %w", col, ErrNonFiniteResult)
	}
	return round2(median), nil
}

// checkWidth fails on the first record too narrow for col
func checkWidth(records []contracts.Record, col int) error {
	if col < 0 {
		return &IndexOutOfRangeError{Index: col, Row: 0, Width: len(records[0])}
	}
	for i, r := range records {
		if col >= len(r) {
			return &IndexOutOfRangeError{Index: col, Row: i, Width: len(r)}
		}
	}
	return nil
}

func compareFields(a, b contracts.Field) int {
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}
	switch a.Kind() {
	case contracts.KindNumber:
		av, _ := a.Float()
		bv, _ := b.Float()
		return cmp.Compare(av, bv)
	case contracts.KindText:
		return cmp.Compare(a.String(), b.String())
	default:
		return 0
	}
}
