package property

import (
	"bytes"
	"encoding/json"

	"github.com/goccy/go-yaml"
)

// Traits is an insertion-ordered mapping from trait name to Value.
// A nil *Traits behaves as an empty record for reads.
type Traits struct {
	names  []string
	values map[string]Value
}

// NewTraits returns an empty record.
func NewTraits() *Traits {
	return &Traits{values: make(map[string]Value)}
}

// TraitsOf builds a record from alternating name/value pairs in order.
func TraitsOf(pairs ...any) *Traits {
	t := NewTraits()
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		t.Set(name, coerce(pairs[i+1]))
	}
	return t
}

// Get returns the value stored for name.
func (t *Traits) Get(name string) (Value, bool) {
	if t == nil {
		return Missing, false
	}
	v, ok := t.values[name]
	return v, ok
}

// Has reports whether name is present, including when its value is Missing.
func (t *Traits) Has(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Set stores v under name. A new name is appended; an existing name keeps
// its position.
func (t *Traits) Set(name string, v Value) {
	if t.values == nil {
		t.values = make(map[string]Value)
	}
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = v
}

// Names returns trait names in insertion order.
func (t *Traits) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of traits.
func (t *Traits) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Each calls fn for every trait in order.
func (t *Traits) Each(fn func(name string, v Value)) {
	if t == nil {
		return
	}
	for _, name := range t.names {
		fn(name, t.values[name])
	}
}

// Clone returns a deep copy. Cloning nil yields an empty record.
func (t *Traits) Clone() *Traits {
	out := NewTraits()
	t.Each(out.Set)
	return out
}

// Equal reports whether both records hold the same names, in the same
// order, with equal values.
func (t *Traits) Equal(o *Traits) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i, name := range t.Names() {
		if o.names[i] != name {
			return false
		}
		if !t.values[name].Equal(o.values[name]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as an ordered JSON object.
func (t *Traits) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as an ordered YAML mapping.
func (t *Traits) MarshalYAML() (any, error) {
	out := make(yaml.MapSlice, 0, t.Len())
	t.Each(func(name string, v Value) {
		out = append(out, yaml.MapItem{Key: name, Value: v.Interface()})
	})
	return out, nil
}
