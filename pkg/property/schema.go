package property

import (
	"fmt"
	"strings"

	"github.com/agentstation/alloymap/pkg/errors"
)

// Schema is an optional closed vocabulary of trait names. Variants that
// differ only in case or separators resolve to the declared name.
// A nil or empty schema accepts every trait.
type Schema struct {
	traits []string
	index  map[string]string
}

// NewSchema declares the given trait names.
func NewSchema(traits ...string) *Schema {
	s := &Schema{index: make(map[string]string, len(traits))}
	for _, name := range traits {
		key := NormalizeName(name)
		if _, dup := s.index[key]; dup || key == "" {
			continue
		}
		s.index[key] = name
		s.traits = append(s.traits, name)
	}
	return s
}

// Traits returns the declared names in declaration order.
func (s *Schema) Traits() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.traits))
	copy(out, s.traits)
	return out
}

// Empty reports whether the schema declares nothing.
func (s *Schema) Empty() bool {
	return s == nil || len(s.traits) == 0
}

// Canonical resolves name to its declared spelling.
func (s *Schema) Canonical(name string) (string, bool) {
	if s.Empty() {
		return name, true
	}
	declared, ok := s.index[NormalizeName(name)]
	return declared, ok
}

// Normalize returns a copy of m with every declared trait renamed to its
// canonical spelling. Undeclared traits keep their names. When two variants
// collapse onto one name the first one wins.
func (s *Schema) Normalize(m *Map) *Map {
	if s.Empty() {
		return m.Clone()
	}
	out := NewMap()
	m.Each(func(alloy string, t *Traits) {
		rec := NewTraits()
		t.Each(func(name string, v Value) {
			if canon, ok := s.Canonical(name); ok {
				name = canon
			}
			if !rec.Has(name) {
				rec.Set(name, v)
			}
		})
		out.Set(alloy, rec)
	})
	return out
}

// Check reports undeclared traits, one ValidationError per offending alloy.
func (s *Schema) Check(m *Map) error {
	if s.Empty() {
		return nil
	}
	var errs errors.FieldErrors
	m.Each(func(alloy string, t *Traits) {
		var unknown []string
		for _, name := range t.Names() {
			if _, ok := s.Canonical(name); !ok {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			errs = append(errs, errors.NewValidationError(alloy, unknown,
				fmt.Sprintf("undeclared traits: %s", strings.Join(unknown, ", "))))
		}
	})
	if len(errs) == 0 {
		return nil
	}
	return errs
}
