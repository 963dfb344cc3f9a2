package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is an export file format.
type Format string

// Format constants.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// ParseFormat converts a name to a Format. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = FormatYAML
	}
	if !f.IsValid() {
		return "", fmt.Errorf("invalid export format %q: must be one of: csv, json, yaml", s)
	}
	return f, nil
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Options is the configuration for an export.
type Options struct {
	path   string
	writer io.Writer
	format Format
}

// Path returns the destination file path.
func (o *Options) Path() string {
	return o.path
}

// Writer returns the destination writer.
func (o *Options) Writer() io.Writer {
	return o.writer
}

// Format returns the export format.
func (o *Options) Format() Format {
	return o.format
}

// Defaults returns the default export options.
func Defaults() *Options {
	return &Options{format: ""}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	if o.format == "" {
		o.format = FormatFromPath(o.path)
	}
	return o
}

// Option is a function that configures export options.
type Option func(*Options)

// WithFormat sets the output format. Without it the format follows the
// path's extension.
func WithFormat(f Format) Option {
	return func(o *Options) {
		o.format = f
	}
}

// WithPath writes to a file, creating parent directories.
func WithPath(path string) Option {
	return func(o *Options) {
		o.path = path
	}
}

// WithWriter writes to w instead of a file.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}
