// Package alloymap selects alloys for a target application from two
// property sources: values extracted by OCR from datasheet text, and values
// digitized from stress-strain graph images. A run unifies both sources,
// reports incomplete data, ranks materials by weighted traits and gates them
// against thresholds.
//
// The stages live in pkg/; this package wires them behind one handle with
// event hooks.
package alloymap

import (
	"context"
	"fmt"

	"github.com/agentstation/alloymap/internal/sources"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/property"
)

// Alloymap runs the selection pipeline and notifies hooks about results.
type Alloymap interface {
	// Run executes one pipeline run on in-memory sources.
	Run(ctx context.Context, text, graph *property.Map) (*pipeline.Result, error)

	// RunFiles loads both sources from YAML or JSON files, then runs.
	RunFiles(ctx context.Context, textPath, graphPath string) (*pipeline.Result, error)

	// Config returns a copy of the pipeline configuration.
	Config() pipeline.Config

	// OnConflict registers a callback for every text/graph disagreement
	OnConflict(ConflictHook)

	// OnVerdict registers a callback for every gate verdict
	OnVerdict(VerdictHook)

	// OnResult registers a callback for every completed run
	OnResult(ResultHook)
}

// alloymap is the internal implementation of the Alloymap interface
type alloymap struct {
	config *config
	hooks  *hooks
}

// New creates a new Alloymap instance with the given options.
func New(opts ...Option) (Alloymap, error) {
	am := &alloymap{
		config: defaultConfig(),
		hooks:  newHooks(),
	}

	if err := am.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	return am, nil
}

// Run executes one pipeline run. Every run gets its own id and diagnostics.
func (a *alloymap) Run(ctx context.Context, text, graph *property.Map) (*pipeline.Result, error) {
	run := pipeline.NewRun(a.config.pipeline, a.config.logger)
	res, err := run.Execute(ctx, text, graph)
	if err != nil {
		return nil, err
	}
	a.hooks.trigger(res)
	return res, nil
}

// RunFiles loads both sources concurrently, then runs.
func (a *alloymap) RunFiles(ctx context.Context, textPath, graphPath string) (*pipeline.Result, error) {
	loader := sources.New(sources.WithDecoder(a.config.decoder), sources.WithLogger(a.config.logger))
	pair, err := loader.Load(ctx, textPath, graphPath)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, pair.Text.Map, pair.Graph.Map)
}

// Config returns a copy of the pipeline configuration.
func (a *alloymap) Config() pipeline.Config {
	cfg := a.config.pipeline
	cfg.Weights = append(cfg.Weights[:0:0], cfg.Weights...)
	return cfg
}

func (a *alloymap) OnConflict(fn ConflictHook) { a.hooks.OnConflict(fn) }

func (a *alloymap) OnVerdict(fn VerdictHook) { a.hooks.OnVerdict(fn) }

func (a *alloymap) OnResult(fn ResultHook) { a.hooks.OnResult(fn) }
