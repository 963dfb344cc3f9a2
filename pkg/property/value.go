// Package property defines the alloy data model shared by every stage of the
// pipeline: trait values, ordered trait records and ordered alloy maps.
//
// A Value is either text, a number or Missing. Missing means "no data
// available" and is never confused with a present but unparseable value.
package property

import (
	"encoding/json"
	"math"
	"strconv"
)

// MissingMarker is the textual form of Missing in files and reports.
const MissingMarker = "unset"

// Kind discriminates the three Value variants.
type Kind uint8

// Value kinds.
const (
	KindMissing Kind = iota
	KindText
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single trait value. The zero Value is Missing.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Missing is the sentinel for an absent trait.
var Missing = Value{}

// Text returns a text value. Text may encode a number.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the Missing sentinel.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Text returns the text content when v is a text value.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Number returns the numeric content when v is a number value.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Equal reports exact equality: same kind and same content. Text "250" and
// number 250 are different values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	default:
		return true
	}
}

// String renders v for reports and delimited export.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return MissingMarker
	}
}

// Interface returns v as nil, string or float64.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// MarshalJSON encodes Missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}

// MarshalYAML encodes Missing as null.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}
