// Package pipeline runs one end-to-end alloy selection: unify the two
// sources, validate the unified record, rank the materials and gate them
// against the application's thresholds.
//
// All state of a run lives on a Run value. Nothing is shared between runs.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/reconcile"
	"github.com/agentstation/alloymap/pkg/table"
	"github.com/agentstation/alloymap/pkg/validate"
)

const component = "pipeline"

// Config selects what a run evaluates.
type Config struct {
	// Application picks the threshold set, e.g. "pontoons".
	Application string

	// IDColumn names the material table's identifier column.
	IDColumn string

	Weights rank.Weights

	// Thresholds maps applications to their bounds.
	Thresholds gate.Spec

	// Schema, when set, canonicalizes trait names and rejects unknown ones.
	Schema *property.Schema

	// Strategy overrides the default PrimaryFirst precedence.
	Strategy reconcile.Strategy

	TrackProvenance bool
}

// Run is the context object of one pipeline invocation.
type Run struct {
	ID     string
	Config Config
	Sink   *diag.Sink

	logger zerolog.Logger
}

// NewRun creates a run with a fresh id. A nil logger selects the default.
func NewRun(cfg Config, logger *zerolog.Logger) *Run {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.IDColumn == "" {
		cfg.IDColumn = table.DefaultIDColumn
	}
	id := uuid.NewString()
	ctx := logging.WithRun(logging.WithLogger(context.Background(), logger), id)
	runLogger := logging.FromContext(ctx)
	return &Run{
		ID:     id,
		Config: cfg,
		Sink:   diag.NewSink(runLogger),
		logger: *runLogger,
	}
}

// Result holds every artifact of a run.
type Result struct {
	RunID       string                  `json:"run_id" yaml:"run_id"`
	Application string                  `json:"application" yaml:"application"`
	Unified     *property.Map           `json:"unified" yaml:"unified"`
	Conflicts   reconcile.ConflictLog   `json:"conflicts" yaml:"conflicts"`
	Provenance  reconcile.ProvenanceMap `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Stats       reconcile.Statistics    `json:"stats" yaml:"stats"`
	Issues      *validate.Report        `json:"issues" yaml:"issues"`
	Ranked      *table.Table            `json:"-" yaml:"-"`
	Scores      []rank.Score            `json:"scores" yaml:"scores"`
	Best        string                  `json:"best" yaml:"best"`
	Verdicts    []gate.Verdict          `json:"verdicts" yaml:"verdicts"`
	Diagnostics []diag.Entry            `json:"diagnostics" yaml:"diagnostics"`
	Duration    time.Duration           `json:"duration" yaml:"duration"`
}

// Execute runs every stage. Empty sources, schema violations and an empty
// ranking abort the run; everything else is reported on the Result.
func (r *Run) Execute(ctx context.Context, text, graph *property.Map) (*Result, error) {
	start := time.Now()
	ctx = logging.WithApplication(logging.WithLogger(ctx, &r.logger), r.Config.Application)
	log := logging.FromContext(ctx)

	if text.Len() == 0 {
		return nil, errors.NewPreconditionError(component, "text source is empty")
	}
	if graph.Len() == 0 {
		return nil, errors.NewPreconditionError(component, "graph source is empty")
	}

	if !r.Config.Schema.Empty() {
		text = r.Config.Schema.Normalize(text)
		graph = r.Config.Schema.Normalize(graph)
		for _, m := range []*property.Map{text, graph} {
			if err := r.Config.Schema.Check(m); err != nil {
				return nil, err
			}
		}
	}

	opts := []reconcile.Option{
		reconcile.WithSink(r.Sink),
		reconcile.WithLogger(log),
		reconcile.WithProvenance(r.Config.TrackProvenance),
	}
	if r.Config.Strategy != nil {
		opts = append(opts, reconcile.WithStrategy(r.Config.Strategy))
	}
	rec, err := reconcile.New(opts...)
	if err != nil {
		return nil, err
	}

	unified := rec.Unify(reconcile.TextSource(text), reconcile.GraphSource(graph))
	if err := validate.RequireSources(text, graph, unified.Unified); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issues := validate.New().FindIssues(unified.Unified)
	for _, issue := range issues.Issues {
		r.Sink.Info("validate", issue.Alloy, issue.Message())
	}

	materials := table.FromRecord(unified.Unified, r.Config.IDColumn)
	ranker := rank.New(r.Sink, log)
	ranked, err := ranker.Rank(materials, r.Config.Weights)
	if err != nil {
		return nil, err
	}
	if ranked.Len() == 0 {
		return nil, errors.WrapPrecondition("select", errors.ErrEmptyRanking)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	verdicts := gate.New(r.Sink, log).Evaluate(ranked, r.Config.Application, r.Config.Thresholds)

	result := &Result{
		RunID:       r.ID,
		Application: r.Config.Application,
		Unified:     unified.Unified,
		Conflicts:   unified.Conflicts,
		Provenance:  unified.Provenance,
		Stats:       unified.Stats,
		Issues:      issues,
		Ranked:      ranked,
		Scores:      rank.Scores(ranked),
		Best:        ranked.Rows[0].ID,
		Verdicts:    verdicts,
		Diagnostics: r.Sink.Entries(),
		Duration:    time.Since(start),
	}

	log.Info().
		Int("alloys", result.Stats.UnifiedAlloys).
		Int("conflicts", result.Stats.Conflicts).
		Int("issues", len(issues.Issues)).
		Str("best", result.Best).
		Dur("duration", result.Duration).
		Msg("Pipeline run complete")

	return result, nil
}
