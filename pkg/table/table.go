// Package table holds the material table consumed by ranking and gating:
// one row per material, an identifier column and trait columns of raw
// values. Numeric coercion happens in the consumers, not here.
package table

import (
	"github.com/agentstation/alloymap/pkg/property"
)

const (
	// DefaultIDColumn names the identifier column of a material table.
	DefaultIDColumn = "Material"
	// RecordIDColumn names the identifier column of a unified record export.
	RecordIDColumn = "Alloy Name"
)

// Row is one material.
type Row struct {
	ID    string
	Cells map[string]property.Value
}

// Get returns the cell stored under column, or Missing.
func (r Row) Get(column string) (property.Value, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

func (r Row) clone() Row {
	cells := make(map[string]property.Value, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{ID: r.ID, Cells: cells}
}

// Table is an ordered set of material rows.
type Table struct {
	IDColumn string
	Columns  []string
	Rows     []Row
}

// New creates an empty table. An empty idColumn selects DefaultIDColumn.
func New(idColumn string, columns ...string) *Table {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}
	t := &Table{IDColumn: idColumn}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

// FromRecord builds a table with one row per alloy, in record order, and one
// column per trait of the record's union.
func FromRecord(m *property.Map, idColumn string) *Table {
	t := New(idColumn, m.TraitUnion()...)
	m.Each(func(alloy string, traits *property.Traits) {
		cells := make(map[string]property.Value, traits.Len())
		traits.Each(func(name string, v property.Value) {
			cells[name] = v
		})
		t.Rows = append(t.Rows, Row{ID: alloy, Cells: cells})
	})
	return t
}

// AddRow appends a material. Cells naming unknown columns add the column.
func (t *Table) AddRow(id string, cells map[string]property.Value) {
	row := Row{ID: id, Cells: make(map[string]property.Value, len(cells))}
	for _, c := range sortedColumns(cells) {
		t.addColumn(c)
		row.Cells[c] = cells[c]
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IDs returns row identifiers in row order.
func (t *Table) IDs() []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r.ID)
	}
	return out
}

// Column resolves name to a column of t. An exact match wins; otherwise
// names are compared with property.NormalizeName.
func (t *Table) Column(name string) (string, bool) {
	for _, c := range t.Columns {
		if c == name {
			return c, true
		}
	}
	key := property.NormalizeName(name)
	for _, c := range t.Columns {
		if property.NormalizeName(c) == key {
			return c, true
		}
	}
	return "", false
}

// Value returns the cell of row i under column, resolved with Column.
func (t *Table) Value(i int, column string) (property.Value, bool) {
	if i < 0 || i >= t.Len() {
		return property.Missing, false
	}
	c, ok := t.Column(column)
	if !ok {
		return property.Missing, false
	}
	return t.Rows[i].Get(c)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{IDColumn: t.IDColumn}
	out.Columns = append(out.Columns, t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

// WithColumn returns a copy with column set to values, one per row. An
// existing column is overwritten in place; a new one is appended.
func (t *Table) WithColumn(column string, values []property.Value) *Table {
	out := t.Clone()
	out.addColumn(column)
	for i := range out.Rows {
		v := property.Missing
		if i < len(values) {
			v = values[i]
		}
		out.Rows[i].Cells[column] = v
	}
	return out
}

func (t *Table) addColumn(c string) {
	for _, existing := range t.Columns {
		if existing == c {
			return
		}
	}
	t.Columns = append(t.Columns, c)
}
