// Package sources loads the text-derived and graph-derived property maps
// from disk. Both files are read and decoded concurrently.
package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/reconcile"
)

// Pair is a loaded text and graph source.
type Pair struct {
	Text  reconcile.Source
	Graph reconcile.Source
}

// Loader reads property map files.
type Loader struct {
	decoder *property.Decoder
	logger  *zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithDecoder sets the decoder, e.g. one with custom missing markers.
func WithDecoder(d *property.Decoder) Option {
	return func(l *Loader) {
		if d != nil {
			l.decoder = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loader with the default decoder.
func New(opts ...Option) *Loader {
	l := &Loader{
		decoder: property.NewDecoder(),
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads both files in parallel. The first failure cancels the other read.
func (l *Loader) Load(ctx context.Context, textPath, graphPath string) (*Pair, error) {
	var text, graph *property.Map

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := l.LoadFile(gctx, textPath)
		text = m
		return err
	})
	g.Go(func() error {
		m, err := l.LoadFile(gctx, graphPath)
		graph = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Pair{
		Text:  reconcile.TextSource(text),
		Graph: reconcile.GraphSource(graph),
	}, nil
}

// LoadFile reads and decodes one YAML or JSON property map file.
func (l *Loader) LoadFile(ctx context.Context, path string) (*property.Map, error) {
	if path == "" {
		return nil, errors.NewPreconditionError("load", "source path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := l.decoder.Decode(data)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			return nil, errors.NewParseError(formatOf(path), path, parseErr.Message, parseErr.Err)
		}
		return nil, err
	}

	l.logger.Debug().
		Str("path", path).
		Int("alloys", m.Len()).
		Msg("Loaded property map")
	return m, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
