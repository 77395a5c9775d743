package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldKind tells which scalar a Field holds
type FieldKind uint8

const (
	KindNull FieldKind = iota
	KindNumber
	KindText
)

// Field is one cell of a dataset row
// ⭐ SSOT: null/number/text cells are modelled only here
type Field struct {
	kind FieldKind
	num  float64
	text string
}

// Null returns an absent field
func Null() Field {
	return Field{kind: KindNull}
}

// Number returns a numeric field
func Number(v float64) Field {
	return Field{kind: KindNumber, num: v}
}

// Text returns a text field (dates, labels)
func Text(s string) Field {
	return Field{kind: KindText, text: s}
}

// Kind returns the field kind
func (f Field) Kind() FieldKind {
	return f.kind
}

// IsNull reports whether the field is absent
func (f Field) IsNull() bool {
	return f.kind == KindNull
}

// Float returns the numeric value and whether the field is a number
func (f Field) Float() (float64, bool) {
	if f.kind != KindNumber {
		return 0, false
	}
	return f.num, true
}

// String renders the field the way it appears in Quandl payloads
func (f Field) String() string {
	switch f.kind {
	case KindNumber:
		return strconv.FormatFloat(f.num, 'f', -1, 64)
	case KindText:
		return f.text
	default:
		return "None"
	}
}

// MarshalJSON encodes the field as null, a number or a string
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindNumber:
		return json.Marshal(f.num)
	case KindText:
		return json.Marshal(f.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, a number or a string
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = Null()
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text field: %w", err)
		}
		*f = Text(s)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode numeric field %s: %w", string(data), err)
	}
	*f = Number(v)
	return nil
}

// Record is one daily row, positionally aligned with the dataset column names
type Record []Field

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}
