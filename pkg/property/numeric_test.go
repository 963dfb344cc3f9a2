package property_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/alloymap/pkg/property"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input property.Value
		want  float64
	}{
		{"integer text", property.Text("250"), 250},
		{"decimal text", property.Text("7.9"), 7.9},
		{"signed", property.Text("-12.5"), -12.5},
		{"plus sign", property.Text("+3"), 3},
		{"exponent", property.Text("1e3"), 1000},
		{"negative exponent", property.Text("-2.5E-4"), -0.00025},
		{"leading dot", property.Text(".5"), 0.5},
		{"trailing dot", property.Text("7."), 7},
		{"whitespace", property.Text("  42 \t"), 42},
		{"number", property.Number(198), 198},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := property.ParseNumeric(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseNumericRejects(t *testing.T) {
	inputs := []property.Value{
		property.Text(""),
		property.Text("   "),
		property.Text("NaN"),
		property.Text("Inf"),
		property.Text("-infinity"),
		property.Text("0x1p-2"),
		property.Text("1_000"),
		property.Text("1,000"),
		property.Text("250 MPa"),
		property.Text("invalid_data"),
		property.Text("1e999"),
		property.Text("."),
		property.Number(math.NaN()),
		property.Number(math.Inf(1)),
	}

	for _, in := range inputs {
		t.Run(in.String(), func(t *testing.T) {
			_, err := property.ParseNumeric(in)
			require.Error(t, err)
			var numErr *property.NumericError
			assert.True(t, errors.As(err, &numErr), "want *NumericError, got %T", err)
		})
	}
}

func TestParseNumericMissing(t *testing.T) {
	_, err := property.ParseNumeric(property.Missing)
	assert.ErrorIs(t, err, property.ErrMissing)
	assert.False(t, property.IsNumeric(property.Missing))
	assert.True(t, property.IsNumeric(property.Text("1")))
}
