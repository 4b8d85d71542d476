package core

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// maxExactFloat is the largest magnitude up to which every integer has an
// exact float64 form.
const maxExactFloat = 1 << 53

// Value is a single table cell: null, a number or text. Integral numbers
// also carry their int64 form so that values beyond 2^53 stay distinct.
type Value struct {
	kind  Kind
	num   float64
	i     int64
	exact bool
	text  string
}

// Null returns the missing value.
func Null() Value {
	return Value{}
}

// Number returns a numeric value.
func Number(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) <= maxExactFloat {
		return Integer(int64(f))
	}
	return Value{kind: KindNumber, num: f}
}

// Integer returns a numeric value that keeps every digit of i.
func Integer(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), i: i, exact: true}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// IsNull reports whether v is missing.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric payload and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Equal reports whether two values are equal. Values of different kinds are
// never equal; two nulls are.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		if v.exact && o.exact {
			return v.i == o.i
		}
		return v.num == o.num
	case KindText:
		return v.text == o.text
	default:
		return true
	}
}

// String returns the display form: "null", the shortest decimal form of a
// number, or the text itself.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if v.exact {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return "null"
	}
}

// MarshalJSON encodes null as JSON null, numbers as numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if v.exact {
			return json.Marshal(v.i)
		}
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}
