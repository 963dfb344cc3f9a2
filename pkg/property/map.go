package property

import (
	"bytes"
	"encoding/json"

	"github.com/goccy/go-yaml"
)

// Map is an insertion-ordered mapping from alloy identifier to its trait
// record. It models both a single source's property map and the unified
// record. A nil *Map behaves as an empty map for reads.
type Map struct {
	alloys  []string
	records map[string]*Traits
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{records: make(map[string]*Traits)}
}

// Get returns the record for alloy. The record is shared, not copied.
func (m *Map) Get(alloy string) (*Traits, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.records[alloy]
	return t, ok
}

// Has reports whether alloy is present.
func (m *Map) Has(alloy string) bool {
	_, ok := m.Get(alloy)
	return ok
}

// Set stores t under alloy. A nil record is stored as an empty one.
func (m *Map) Set(alloy string, t *Traits) {
	if m.records == nil {
		m.records = make(map[string]*Traits)
	}
	if t == nil {
		t = NewTraits()
	}
	if _, ok := m.records[alloy]; !ok {
		m.alloys = append(m.alloys, alloy)
	}
	m.records[alloy] = t
}

// Alloys returns alloy identifiers in insertion order.
func (m *Map) Alloys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.alloys))
	copy(out, m.alloys)
	return out
}

// Len returns the number of alloys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.alloys)
}

// Each calls fn for every alloy in order.
func (m *Map) Each(fn func(alloy string, t *Traits)) {
	if m == nil {
		return
	}
	for _, alloy := range m.alloys {
		fn(alloy, m.records[alloy])
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	out := NewMap()
	m.Each(func(alloy string, t *Traits) {
		out.Set(alloy, t.Clone())
	})
	return out
}

// TraitUnion returns every trait name used by any alloy, in first-seen order.
func (m *Map) TraitUnion() []string {
	seen := make(map[string]bool)
	var union []string
	m.Each(func(_ string, t *Traits) {
		for _, name := range t.Names() {
			if !seen[name] {
				seen[name] = true
				union = append(union, name)
			}
		}
	})
	return union
}

// Complete returns a copy where every alloy carries every trait of the
// union. Absent traits are set to Missing and appended in union order.
func (m *Map) Complete() *Map {
	out := m.Clone()
	out.Fill(nil)
	return out
}

// Fill sets every absent union trait to Missing in place, in union order,
// calling onFill for each one when it is not nil. It returns the number of
// traits filled.
func (m *Map) Fill(onFill func(alloy, trait string)) int {
	union := m.TraitUnion()
	filled := 0
	m.Each(func(alloy string, t *Traits) {
		for _, name := range union {
			if t.Has(name) {
				continue
			}
			t.Set(name, Missing)
			filled++
			if onFill != nil {
				onFill(alloy, name)
			}
		}
	})
	return filled
}

// IsRectangular reports whether every alloy has every union trait.
func (m *Map) IsRectangular() bool {
	union := m.TraitUnion()
	rect := true
	m.Each(func(_ string, t *Traits) {
		if t.Len() != len(union) {
			rect = false
		}
	})
	return rect
}

// Equal reports whether both maps hold the same alloys in the same order
// with equal records.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, alloy := range m.Alloys() {
		if o.alloys[i] != alloy {
			return false
		}
		if !m.records[alloy].Equal(o.records[alloy]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the map as an ordered JSON object.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, alloy := range m.Alloys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(alloy)
		if err != nil {
			return nil, err
		}
		rec, err := m.records[alloy].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the map as an ordered YAML mapping.
func (m *Map) MarshalYAML() (any, error) {
	out := make(yaml.MapSlice, 0, m.Len())
	var err error
	m.Each(func(alloy string, t *Traits) {
		if err != nil {
			return
		}
		var rec any
		rec, err = t.MarshalYAML()
		out = append(out, yaml.MapItem{Key: alloy, Value: rec})
	})
	return out, err
}
