package app

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/alloymap/internal/cmd/output"
	"github.com/agentstation/alloymap/internal/config"
	"github.com/agentstation/alloymap/internal/sources"
	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/export"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/reconcile"
	"github.com/agentstation/alloymap/pkg/table"
	"github.com/agentstation/alloymap/pkg/validate"
)

// NewRunCommand creates the run command: the whole pipeline in one go.
func (a *App) NewRunCommand() *cobra.Command {
	var exportPath, exportFormat string

	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Unify, validate, rank and gate materials",
		Long: `Run executes every stage for the selected application: the text and
graph sources are unified, the result is checked for completeness, the
materials are ranked by the configured weights and each one is gated
against the application's thresholds.`,
		Example: `  alloymap run --text text.yaml --graph graph.json -a pontoons
  alloymap run -a frame -o json --export ranked.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := a.RunConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireApplication(); err != nil {
				return err
			}
			pair, err := a.loadSources(ctx, cfg)
			if err != nil {
				return err
			}
			pc, err := cfg.Pipeline()
			if err != nil {
				return err
			}

			run := pipeline.NewRun(pc, a.logger)
			res, err := run.Execute(ctx, pair.Text.Map, pair.Graph.Map)
			if err != nil {
				a.metrics.RecordFailure()
				if flushErr := a.Shutdown(ctx); flushErr != nil {
					a.logger.Warn().Err(flushErr).Msg("Failed to write metrics textfile")
				}
				return err
			}
			a.metrics.Record(res)
			if err := a.Shutdown(ctx); err != nil {
				return err
			}

			if exportPath != "" {
				opts := []export.Option{export.WithPath(exportPath)}
				if exportFormat != "" {
					f, err := export.ParseFormat(exportFormat)
					if err != nil {
						return err
					}
					opts = append(opts, export.WithFormat(f))
				}
				if err := export.Table(res.Ranked, opts...); err != nil {
					return err
				}
			}

			if err := a.print(res, output.ResultToTableData(res)); err != nil {
				return err
			}
			if a.isTable() {
				_, err = fmt.Fprintf(a.out, "\nBest material: %s\n", res.Best)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "also write the ranked table to this file")
	cmd.Flags().StringVar(&exportFormat, "export-format", "", "format of --export: csv, json, yaml (default from extension)")
	cmd.Flags().StringVar(&a.config.MetricsTextfile, "metrics-textfile", a.config.MetricsTextfile, "write Prometheus metrics to this file after the run")
	return cmd
}

// NewMergeCommand creates the merge command.
func (a *App) NewMergeCommand() *cobra.Command {
	var graphFirst bool

	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "stages",
		Short:   "Merge the two sources, primary values winning",
		Long: `Merge combines both sources into one record per alloy. Values of the
primary source (text unless --graph-first) are kept; the secondary source
only contributes traits the primary lacks. Traits neither source has for an
alloy are filled with the missing marker.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, pair, err := a.prepare(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := a.reconciler(cfg, nil)
			if err != nil {
				return err
			}

			primary, secondary := pair.Text, pair.Graph
			if graphFirst {
				primary, secondary = secondary, primary
			}
			merged := rec.Merge(primary, secondary)
			return a.print(merged, output.MapToTableData(merged, table.RecordIDColumn))
		},
	}

	cmd.Flags().BoolVar(&graphFirst, "graph-first", false, "treat the graph source as primary")
	return cmd
}

// reconcileReport is the machine-readable output of the reconcile command.
type reconcileReport struct {
	Reconciled *property.Map         `json:"reconciled" yaml:"reconciled"`
	Conflicts  reconcile.ConflictLog `json:"conflicts" yaml:"conflicts"`
}

// NewReconcileCommand creates the reconcile command.
func (a *App) NewReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reconcile",
		GroupID: "stages",
		Short:   "Align text alloys with the graph and log conflicts",
		Long: `Reconcile walks the alloys of the text source, keeps their values where
both sources disagree and appends traits only the graph knows. Every
disagreement is listed as a conflict. Graph-only alloys are not included.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, pair, err := a.prepare(cmd.Context())
			if err != nil {
				return err
			}
			sink := diag.NewSink(a.logger)
			rec, err := a.reconciler(cfg, sink)
			if err != nil {
				return err
			}

			reconciled, conflicts := rec.Reconcile(pair.Text, pair.Graph)
			report := reconcileReport{Reconciled: reconciled, Conflicts: conflicts}
			return a.print(report, []output.Data{
				output.MapToTableData(reconciled, table.RecordIDColumn),
				output.ConflictsToTableData(conflicts),
			})
		},
	}
}

// NewValidateCommand creates the validate command.
func (a *App) NewValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "stages",
		Short:   "Report missing and non-numeric traits of the unified data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, res, _, err := a.unify(cmd.Context())
			if err != nil {
				return err
			}

			report := validate.New().FindIssues(res.Unified)
			if a.isTable() {
				if _, err := fmt.Fprintln(a.out, report.Summary()); err != nil {
					return err
				}
			} else if err := a.print(report, nil); err != nil {
				return err
			}

			if strict && report.HasIssues() {
				return errors.NewValidationError("unified", len(report.Issues), fmt.Sprintf("%d alloys have issues", len(report.Issues)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when issues are found")
	return cmd
}

// NewRankCommand creates the rank command.
func (a *App) NewRankCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rank",
		GroupID: "stages",
		Short:   "Rank the unified materials by weighted score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, res, sink, err := a.unify(cmd.Context())
			if err != nil {
				return err
			}

			materials := table.FromRecord(res.Unified, cfg.IdentifierColumn)
			ranked, err := rank.New(sink, a.logger).Rank(materials, cfg.Weights)
			if err != nil {
				return err
			}
			if ranked.Len() == 0 {
				return errors.WrapPrecondition("select", errors.ErrEmptyRanking)
			}
			return a.print(rank.Scores(ranked), output.ScoresToTableData(rank.Scores(ranked)))
		},
	}
}

// NewGateCommand creates the gate command.
func (a *App) NewGateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "gate",
		GroupID: "stages",
		Short:   "Check the unified materials against application thresholds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, res, sink, err := a.unify(cmd.Context())
			if err != nil {
				return err
			}
			if err := cfg.RequireApplication(); err != nil {
				return err
			}

			materials := table.FromRecord(res.Unified, cfg.IdentifierColumn)
			verdicts := gate.New(sink, a.logger).Evaluate(materials, cfg.Application, cfg.Thresholds)
			return a.print(verdicts, output.VerdictsToTableData(verdicts))
		},
	}
}

// NewExportCommand creates the export command.
func (a *App) NewExportCommand() *cobra.Command {
	var outPath, format string

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Write the unified data as CSV, JSON or YAML",
		Long: `Export unifies both sources and writes the result with one row per
alloy. In CSV the first column is "Alloy Name" and missing values read
"missing data". Without --out the data goes to standard output.`,
		Example: `  alloymap export --text text.yaml --graph graph.json --out unified.csv
  alloymap export --format yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, res, _, err := a.unify(cmd.Context())
			if err != nil {
				return err
			}

			var opts []export.Option
			if outPath != "" {
				opts = append(opts, export.WithPath(outPath))
			} else {
				opts = append(opts, export.WithWriter(a.out), export.WithFormat(export.FormatCSV))
			}
			if format != "" {
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				opts = append(opts, export.WithFormat(f))
			}
			if err := export.Record(res.Unified, opts...); err != nil {
				return err
			}

			if outPath != "" {
				a.logger.Info().Str("path", outPath).Int("alloys", res.Unified.Len()).Msg("Exported unified data")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "destination file (format from extension unless --format is set)")
	cmd.Flags().StringVar(&format, "format", "", "csv, json or yaml")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("alloymap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}

// loadSources reads the configured text and graph files.
func (a *App) loadSources(ctx context.Context, cfg *config.Config) (*sources.Pair, error) {
	loader := sources.New(sources.WithDecoder(cfg.Decoder()), sources.WithLogger(a.logger))
	return loader.Load(ctx, cfg.TextPath, cfg.GraphPath)
}

// prepare loads both sources and applies the configured schema.
func (a *App) prepare(ctx context.Context) (*config.Config, *sources.Pair, error) {
	cfg, err := a.RunConfig()
	if err != nil {
		return nil, nil, err
	}
	pair, err := a.loadSources(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if pair.Text.Map.Len() == 0 {
		return nil, nil, errors.NewPreconditionError("load", "text source is empty")
	}
	if pair.Graph.Map.Len() == 0 {
		return nil, nil, errors.NewPreconditionError("load", "graph source is empty")
	}

	if len(cfg.Schema) > 0 {
		schema := property.NewSchema(cfg.Schema...)
		for _, src := range []*reconcile.Source{&pair.Text, &pair.Graph} {
			src.Map = schema.Normalize(src.Map)
			if err := schema.Check(src.Map); err != nil {
				return nil, nil, err
			}
		}
	}
	return cfg, pair, nil
}

// unify runs the two-pass unification shared by the stage commands.
func (a *App) unify(ctx context.Context) (*config.Config, *reconcile.Result, *diag.Sink, error) {
	cfg, pair, err := a.prepare(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	sink := diag.NewSink(a.logger)
	rec, err := a.reconciler(cfg, sink)
	if err != nil {
		return nil, nil, nil, err
	}

	res := rec.Unify(pair.Text, pair.Graph)
	if err := validate.RequireSources(pair.Text.Map, pair.Graph.Map, res.Unified); err != nil {
		return nil, nil, nil, err
	}
	return cfg, res, sink, nil
}

func (a *App) reconciler(cfg *config.Config, sink *diag.Sink) (*reconcile.Reconciler, error) {
	pc, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}
	return reconcile.New(
		reconcile.WithStrategy(pc.Strategy),
		reconcile.WithProvenance(cfg.TrackProvenance),
		reconcile.WithSink(sink),
		reconcile.WithLogger(a.logger),
	)
}

func (a *App) isTable() bool {
	return output.DetectFormat(a.config.Output) == output.FormatTable
}

// print writes data in the selected format. Table output uses tableData
// when given.
func (a *App) print(data, tableData any) error {
	format := output.DetectFormat(a.config.Output)
	if format == output.FormatTable && tableData != nil {
		data = tableData
	}
	return output.NewFormatter(format).Format(a.out, data)
}
