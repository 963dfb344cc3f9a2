package property

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissing is returned by ParseNumeric for the Missing sentinel.
var ErrMissing = errors.New("value is missing")

// NumericError describes a present value that is not a finite decimal number.
type NumericError struct {
	Input  string
	Reason string
}

// Error implements the error interface
func (e *NumericError) Error() string {
	return fmt.Sprintf("cannot parse %q as a number: %s", e.Input, e.Reason)
}

// Plain decimal with optional sign and exponent. strconv alone would also
// accept hex floats, underscores, "Inf" and "NaN".
var decimalPattern = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// ParseNumeric coerces a Value to float64. It is the only numeric coercion
// used by validation, ranking and gating.
func ParseNumeric(v Value) (float64, error) {
	switch v.kind {
	case KindMissing:
		return 0, ErrMissing
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return 0, &NumericError{Input: v.String(), Reason: "not finite"}
		}
		return v.num, nil
	default:
		return ParseNumericString(v.text)
	}
}

// ParseNumericString applies the ParseNumeric grammar to a raw string.
// Surrounding whitespace is ignored.
func ParseNumericString(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, &NumericError{Input: s, Reason: "empty"}
	}
	if !decimalPattern.MatchString(trimmed) {
		return 0, &NumericError{Input: s, Reason: "not a decimal number"}
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &NumericError{Input: s, Reason: "out of range"}
	}
	return f, nil
}

// IsNumeric reports whether ParseNumeric succeeds for v.
func IsNumeric(v Value) bool {
	_, err := ParseNumeric(v)
	return err == nil
}
