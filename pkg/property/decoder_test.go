package property_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/property"
)

func TestDecoderValue(t *testing.T) {
	d := property.NewDecoder()

	tests := []struct {
		name string
		raw  any
		want property.Value
	}{
		{"nil", nil, property.Missing},
		{"unset marker", "unset", property.Missing},
		{"N/A marker", "N/A", property.Missing},
		{"padded marker", " N/A ", property.Missing},
		{"text", "250", property.Text("250")},
		{"int", 250, property.Number(250)},
		{"uint64", uint64(7), property.Number(7)},
		{"float", 7.9, property.Number(7.9)},
		{"bool", true, property.Text("true")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Value(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestDecoderCustomMarkers(t *testing.T) {
	d := &property.Decoder{MissingMarkers: []string{"-"}}

	v, err := d.Value("-")
	require.NoError(t, err)
	assert.True(t, v.IsMissing())

	v, err = d.Value("N/A")
	require.NoError(t, err)
	assert.Equal(t, property.Text("N/A"), v)
}

func TestDecoderRejectsNonScalars(t *testing.T) {
	d := property.NewDecoder()

	_, err := d.Map(map[string]any{"SS.1": map[string]any{"strength": []any{1, 2}}})
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
	assert.Contains(t, err.Error(), `alloy "SS.1"`)

	_, err = d.Map(map[string]any{"SS.1": "250"})
	assert.True(t, errors.IsPrecondition(err))

	_, err = d.Map([]any{"SS.1"})
	assert.True(t, errors.IsPrecondition(err))
}

func TestDecodePreservesOrder(t *testing.T) {
	doc := []byte(`
WA.1:
  strength: 320
  density: invalid_data
SS.1:
  strength: "250"
  density: 7.9
  cost: unset
`)
	m, err := property.NewDecoder().Decode(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"WA.1", "SS.1"}, m.Alloys())

	rec, ok := m.Get("SS.1")
	require.True(t, ok)
	assert.Equal(t, []string{"strength", "density", "cost"}, rec.Names())

	strength, _ := rec.Get("strength")
	assert.Equal(t, property.Text("250"), strength)
	density, _ := rec.Get("density")
	assert.Equal(t, property.Number(7.9), density)
	cost, _ := rec.Get("cost")
	assert.True(t, cost.IsMissing())
}

func TestDecodeNumericLiterals(t *testing.T) {
	doc := []byte(`
SS.1:
  hex: 0x10
  octal: 0o17
  grouped: 1_000
  infinite: .inf
  exponent: 2.5e3
  plain: 520
  leading_zero: 017
  quoted_hex: "0x10"
`)
	m, err := property.NewDecoder().Decode(doc)
	require.NoError(t, err)

	rec, ok := m.Get("SS.1")
	require.True(t, ok)
	assert.Equal(t, []string{"hex", "octal", "grouped", "infinite", "exponent", "plain", "leading_zero", "quoted_hex"}, rec.Names())

	for _, tt := range []struct {
		trait string
		want  property.Value
	}{
		{"hex", property.Text("0x10")},
		{"octal", property.Text("0o17")},
		{"grouped", property.Text("1_000")},
		{"infinite", property.Text(".inf")},
		{"exponent", property.Number(2500)},
		{"plain", property.Number(520)},
		{"leading_zero", property.Number(17)},
		{"quoted_hex", property.Text("0x10")},
	} {
		got, _ := rec.Get(tt.trait)
		assert.Equal(t, tt.want, got, tt.trait)

		_, parseErr := property.ParseNumeric(got)
		_, textErr := property.ParseNumeric(property.Text(tt.want.String()))
		assert.Equal(t, textErr == nil, parseErr == nil, "%s numeric agreement", tt.trait)
	}
}

func TestDecodeJSON(t *testing.T) {
	m, err := property.NewDecoder().Decode([]byte(`{"CA.1": {"density": "8.2", "strength": null}}`))
	require.NoError(t, err)

	rec, _ := m.Get("CA.1")
	assert.Equal(t, []string{"density", "strength"}, rec.Names())
	strength, _ := rec.Get("strength")
	assert.True(t, strength.IsMissing())
}

func TestDecodeEmptyDocument(t *testing.T) {
	m, err := property.NewDecoder().Decode([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}
