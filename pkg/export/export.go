// Package export writes unified records and material tables as CSV, JSON
// or YAML.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/table"
)

// MissingText replaces Missing and absent cells in delimited output.
const MissingText = "missing data"

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// WriteCSV writes t with the identifier column first and trait columns in
// table order.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{t.IDColumn}, t.Columns...)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, 0, len(t.Columns)+1)
		record = append(record, row.ID)
		for _, c := range t.Columns {
			record = append(record, cellText(row, c))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecordCSV writes a unified record under an "Alloy Name" column.
// An empty record is a precondition failure.
func WriteRecordCSV(w io.Writer, m *property.Map) error {
	if m.Len() == 0 {
		return errors.NewPreconditionError("export", "unified data is empty; nothing to export")
	}
	return WriteCSV(w, table.FromRecord(m, table.RecordIDColumn))
}

// Record exports a unified record.
func Record(m *property.Map, opts ...Option) error {
	if m.Len() == 0 {
		return errors.NewPreconditionError("export", "unified data is empty; nothing to export")
	}
	return write(m, opts...)
}

// Table exports a material table.
func Table(t *table.Table, opts ...Option) error {
	return write(t, opts...)
}

func write(data any, opts ...Option) error {
	o := Defaults().Apply(opts...)
	if !o.Format().IsValid() {
		return errors.NewValidationError("format", o.Format(), "must be one of: csv, json, yaml")
	}

	if o.Writer() != nil {
		return encode(o.Writer(), o.Format(), data)
	}
	if o.Path() == "" {
		return errors.NewValidationError("path", "", "an export needs a path or a writer")
	}

	if dir := filepath.Dir(o.Path()); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	f, err := os.OpenFile(o.Path(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return errors.WrapIO("create", o.Path(), err)
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw, o.Format(), data); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", o.Path(), err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", o.Path(), err)
	}
	return errors.WrapIO("close", o.Path(), f.Close())
}

func encode(w io.Writer, format Format, data any) error {
	switch format {
	case FormatCSV:
		switch v := data.(type) {
		case *property.Map:
			return WriteRecordCSV(w, v)
		case *table.Table:
			return WriteCSV(w, v)
		default:
			return fmt.Errorf("csv export of %T is not supported", data)
		}
	case FormatYAML:
		out, err := yaml.MarshalWithOptions(encodable(data), yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(encodable(data))
	}
}

// encodable turns a table into a list of ordered row objects, identifier
// first. Other values pass through.
func encodable(data any) any {
	t, ok := data.(*table.Table)
	if !ok {
		return data
	}
	rows := make([]*property.Traits, 0, t.Len())
	for _, row := range t.Rows {
		rec := property.NewTraits()
		rec.Set(t.IDColumn, property.Text(row.ID))
		for _, c := range t.Columns {
			v, _ := row.Get(c)
			rec.Set(c, v)
		}
		rows = append(rows, rec)
	}
	return rows
}

func cellText(row table.Row, column string) string {
	v, ok := row.Get(column)
	if !ok || v.IsMissing() {
		return MissingText
	}
	return v.String()
}
