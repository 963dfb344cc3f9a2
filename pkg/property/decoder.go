package property

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/alloymap/pkg/errors"
)

// DefaultMissingMarkers are the strings read as Missing by NewDecoder.
var DefaultMissingMarkers = []string{MissingMarker, "N/A"}

// Decoder converts untyped data handed over by upstream collaborators into
// typed property maps. Shapes other than mapping-of-mappings-of-scalars are
// precondition failures.
type Decoder struct {
	MissingMarkers []string
}

// NewDecoder returns a decoder using DefaultMissingMarkers.
func NewDecoder() *Decoder {
	markers := make([]string, len(DefaultMissingMarkers))
	copy(markers, DefaultMissingMarkers)
	return &Decoder{MissingMarkers: markers}
}

// Value converts a scalar.
func (d *Decoder) Value(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Missing, nil
	case Value:
		return v, nil
	case string:
		if d.isMarker(v) {
			return Missing, nil
		}
		return Text(v), nil
	case bool:
		return Text(strconv.FormatBool(v)), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	default:
		return Missing, errors.NewPreconditionError("decode", fmt.Sprintf("trait value of type %T is not a scalar", raw))
	}
}

// Traits converts one alloy record. Ordered mappings keep their order; plain
// Go maps are sorted by trait name.
func (d *Decoder) Traits(raw any) (*Traits, error) {
	t := NewTraits()
	switch rec := raw.(type) {
	case nil:
		return t, nil
	case *Traits:
		return rec.Clone(), nil
	case yaml.MapSlice:
		for _, item := range rec {
			v, err := d.Value(item.Value)
			if err != nil {
				return nil, err
			}
			t.Set(keyString(item.Key), v)
		}
	case map[string]any:
		for _, name := range sortedKeys(rec) {
			v, err := d.Value(rec[name])
			if err != nil {
				return nil, err
			}
			t.Set(name, v)
		}
	default:
		return nil, errors.NewPreconditionError("decode", fmt.Sprintf("alloy record of type %T is not a mapping", raw))
	}
	return t, nil
}

// Map converts a whole property map.
func (d *Decoder) Map(raw any) (*Map, error) {
	m := NewMap()
	add := func(alloy string, rec any) error {
		t, err := d.Traits(rec)
		if err != nil {
			return fmt.Errorf("alloy %q: %w", alloy, err)
		}
		m.Set(alloy, t)
		return nil
	}

	switch src := raw.(type) {
	case nil:
	case *Map:
		return src.Clone(), nil
	case yaml.MapSlice:
		for _, item := range src {
			if err := add(keyString(item.Key), item.Value); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for _, alloy := range sortedKeys(src) {
			if err := add(alloy, src[alloy]); err != nil {
				return nil, err
			}
		}
	case map[string]map[string]any:
		alloys := make([]string, 0, len(src))
		for alloy := range src {
			alloys = append(alloys, alloy)
		}
		sort.Strings(alloys)
		for _, alloy := range alloys {
			if err := add(alloy, map[string]any(src[alloy])); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.NewPreconditionError("decode", fmt.Sprintf("property map of type %T is not a mapping", raw))
	}
	return m, nil
}

// Decode parses a YAML or JSON document into a property map, preserving
// the document's alloy and trait order. Numeric scalars are read from their
// source text through ParseNumeric, so a YAML literal such as 0x10 stays
// Text just as the quoted string "0x10" would.
func (d *Decoder) Decode(data []byte) (*Map, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	m, err := d.Map(raw)
	if err != nil {
		return nil, err
	}

	literals, err := numericLiterals(data)
	if err != nil {
		return nil, err
	}
	for alloy, traits := range literals {
		rec, ok := m.Get(alloy)
		if !ok {
			continue
		}
		for trait, lit := range traits {
			if rec.Has(trait) {
				rec.Set(trait, literalValue(lit))
			}
		}
	}
	return m, nil
}

func (d *Decoder) isMarker(s string) bool {
	s = strings.TrimSpace(s)
	for _, marker := range d.MissingMarkers {
		if s == marker {
			return true
		}
	}
	return false
}

// MapOf builds a property map from plain Go maps with the default decoder.
// Alloys and traits are sorted lexicographically.
func MapOf(data map[string]map[string]any) (*Map, error) {
	return NewDecoder().Map(data)
}

// MustMapOf is like MapOf but panics on malformed input. Intended for tests
// and literals.
func MustMapOf(data map[string]map[string]any) *Map {
	m, err := MapOf(data)
	if err != nil {
		panic(err)
	}
	return m
}

func coerce(raw any) Value {
	v, err := NewDecoder().Value(raw)
	if err != nil {
		return Text(fmt.Sprint(raw))
	}
	return v
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
