package stats

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when there are no rows (or no numeric values) to work on
var ErrNoData = errors.New("no data")

// MissingColumnError reports a required column absent from the column names
type MissingColumnError struct {
	Name string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Name)
}

// IndexOutOfRangeError reports a column index beyond a record's width
type IndexOutOfRangeError struct {
	Index int // column index that was requested
	Row   int // position of the offending record
	Width int // number of fields the record actually has
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("column index %d out of range for record %d (width %d)", e.Index, e.Row, e.Width)
}

// ErrNonFiniteResult is returned when finite inputs overflow to ±Inf in a statistic
var ErrNonFiniteResult = errors.New("statistic is not a finite number")

// InvalidValueError reports a numeric cell holding NaN or ±Inf
type InvalidValueError struct {
	Index int     // column index of the cell
	Row   int     // position of the offending record
	Value float64 // the non-finite value
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v at column %d of record %d", e.Value, e.Index, e.Row)
}
