package quandl

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sv650s/springboard/internal/contracts"
)

// parseCSV decodes a data.csv body: a header line with column names, then one row per day.
// Empty cells become nulls; anything that is not a float stays text.
func parseCSV(body []byte) (*contracts.Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // ragged rows are reported by the stats engine

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty csv", ErrMalformedResponse)
	}

	ds := &contracts.Dataset{
		ColumnNames: rows[0],
		Data:        make([]contracts.Record, 0, len(rows)-1),
	}

	for line, row := range rows[1:] {
		record := make(contracts.Record, len(row))
		for i, cell := range row {
			field, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrMalformedResponse, line+1, i, err)
			}
			record[i] = field
		}
		ds.Data = append(ds.Data, record)
	}

	ds.StartDate, ds.EndDate = dateBounds(ds)
	return ds, nil
}

// parseCell fails on NaN and ±Inf, which ParseFloat accepts but JSON cannot carry
func parseCell(cell string) (contracts.Field, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return contracts.Null(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return contracts.Field{}, fmt.Errorf("number out of range %q", cell)
		}
		return contracts.Text(cell), nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return contracts.Field{}, fmt.Errorf("non-finite number %q", cell)
	}
	return contracts.Number(v), nil
}

// dateBounds returns the smallest and largest Date values (ISO dates sort lexically)
func dateBounds(ds *contracts.Dataset) (string, string) {
	idx := ds.ColumnIndex(contracts.ColumnDate)
	if idx < 0 {
		return "", ""
	}

	var first, last string
	for _, r := range ds.Data {
		if idx >= len(r) || r[idx].Kind() != contracts.KindText {
			continue
		}
		d := r[idx].String()
		if first == "" || d < first {
			first = d
		}
		if last == "" || d > last {
			last = d
		}
	}
	return first, last
}
