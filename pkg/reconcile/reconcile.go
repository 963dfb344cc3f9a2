// Package reconcile folds alloy records from the text and graph sources into
// one unified record.
//
// Merge is the completeness pass: every alloy of either source survives and
// the result is rectangular. Reconcile is the conflict pass: it walks the
// text source, logs every trait on which the sources disagree and keeps the
// text value. Unify runs Reconcile then Merge, which is the composition a
// pipeline wants.
package reconcile

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
)

const component = "reconcile"

// Reconciler merges and reconciles alloy sources. It holds no per-call
// state and may be reused.
type Reconciler struct {
	strategy Strategy
	tracking bool
	sink     *diag.Sink
	logger   zerolog.Logger
}

// New creates a Reconciler. The default strategy is PrimaryFirst.
func New(opts ...Option) (*Reconciler, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		strategy: o.strategy,
		tracking: o.tracking,
		sink:     o.sink,
		logger:   logging.Component(o.logger, component),
	}, nil
}

// Strategy returns the configured strategy.
func (r *Reconciler) Strategy() Strategy {
	return r.strategy
}

// Merge folds secondary into primary. Primary alloys come first in their
// original order followed by secondary-only alloys. For alloys in both, the
// secondary source only contributes traits the primary lacks. The result is
// completed so every alloy carries every trait, absent ones set to Missing.
// Neither input is modified.
func (r *Reconciler) Merge(primary, secondary Source) *property.Map {
	merged, _ := r.merge(primary, secondary, nil)
	return merged
}

// Reconcile walks the text source and resolves each alloy against the graph
// source. Traits present in both with unequal values are returned as
// conflicts, warned to the sink, and resolved by the strategy. Graph-only
// traits are appended. Graph-only alloys are not included; Unify folds them
// in.
func (r *Reconciler) Reconcile(text, graph Source) (*property.Map, ConflictLog) {
	return r.reconcile(text, graph, nil)
}

// Unify reconciles text against graph, then merges the reconciled record with
// the graph source so graph-only alloys are kept.
func (r *Reconciler) Unify(text, graph Source) *Result {
	start := time.Now()
	tr := newTracker(r.tracking)

	reconciled, conflicts := r.reconcile(text, graph, tr)
	unified, filled := r.merge(Source{ID: text.ID, Map: reconciled}, graph, tr)

	result := &Result{
		Unified:    unified,
		Conflicts:  conflicts,
		Provenance: tr.export(),
		Strategy:   r.strategy.Type(),
		Stats: Statistics{
			TextAlloys:      text.Map.Len(),
			GraphAlloys:     graph.Map.Len(),
			UnifiedAlloys:   unified.Len(),
			GraphOnlyAlloys: unified.Len() - reconciled.Len(),
			Conflicts:       len(conflicts),
			FilledMissing:   filled,
		},
		Duration: time.Since(start),
	}

	r.logger.Debug().
		Int("alloys", result.Stats.UnifiedAlloys).
		Int("conflicts", result.Stats.Conflicts).
		Int("filled", result.Stats.FilledMissing).
		Dur("duration", result.Duration).
		Msg("Unified sources")

	return result
}

func (r *Reconciler) merge(primary, secondary Source, tr *tracker) (*property.Map, int) {
	merged := property.NewMap()

	primary.Map.Each(func(alloy string, traits *property.Traits) {
		rec := traits.Clone()
		other, shared := secondary.Map.Get(alloy)
		if shared {
			other.Each(func(trait string, v property.Value) {
				if !rec.Has(trait) {
					rec.Set(trait, v)
					tr.track(Provenance{Source: secondary.ID, Alloy: alloy, Trait: trait, Value: v,
						Reason: "absent from " + primary.ID.String()})
				}
			})
		}
		traits.Each(func(trait string, v property.Value) {
			if tr.has(alloy, trait) {
				return
			}
			if otherV, ok := other.Get(trait); shared && ok && !otherV.IsMissing() && !otherV.Equal(v) {
				chosen, reason := r.strategy.Resolve(trait, []Candidate{
					{Source: primary.ID, Value: v},
					{Source: secondary.ID, Value: otherV},
				})
				rec.Set(trait, chosen.Value)
				tr.track(Provenance{Source: chosen.Source, Alloy: alloy, Trait: trait, Value: chosen.Value, Reason: reason})
				return
			}
			tr.track(Provenance{Source: primary.ID, Alloy: alloy, Trait: trait, Value: v, Reason: "present in " + primary.ID.String()})
		})
		merged.Set(alloy, rec)
	})

	secondary.Map.Each(func(alloy string, traits *property.Traits) {
		if merged.Has(alloy) {
			return
		}
		merged.Set(alloy, traits.Clone())
		traits.Each(func(trait string, v property.Value) {
			tr.track(Provenance{Source: secondary.ID, Alloy: alloy, Trait: trait, Value: v,
				Reason: "alloy only in " + secondary.ID.String()})
		})
	})

	return r.complete(merged, tr)
}

func (r *Reconciler) complete(m *property.Map, tr *tracker) (*property.Map, int) {
	if m.IsRectangular() {
		return m, 0
	}
	filled := m.Fill(func(alloy, trait string) {
		tr.track(Provenance{Source: SourceCompletion, Alloy: alloy, Trait: trait, Value: property.Missing,
			Reason: "absent from every source"})
	})
	return m, filled
}

func (r *Reconciler) reconcile(text, graph Source, tr *tracker) (*property.Map, ConflictLog) {
	out := property.NewMap()
	var conflicts ConflictLog

	text.Map.Each(func(alloy string, textTraits *property.Traits) {
		graphTraits, _ := graph.Map.Get(alloy)
		rec := property.NewTraits()

		textTraits.Each(func(trait string, textV property.Value) {
			graphV, inGraph := graphTraits.Get(trait)
			if !inGraph {
				rec.Set(trait, textV)
				tr.track(Provenance{Source: text.ID, Alloy: alloy, Trait: trait, Value: textV,
					Reason: "absent from " + graph.ID.String()})
				return
			}
			if textV.Equal(graphV) {
				rec.Set(trait, textV)
				tr.track(Provenance{Source: text.ID, Alloy: alloy, Trait: trait, Value: textV,
					Reason: "sources agree"})
				return
			}
			// A Missing graph value carries no data and never contests the text value.
			if graphV.IsMissing() {
				rec.Set(trait, textV)
				tr.track(Provenance{Source: text.ID, Alloy: alloy, Trait: trait, Value: textV,
					Reason: "missing in " + graph.ID.String()})
				return
			}

			chosen, reason := r.strategy.Resolve(trait, []Candidate{
				{Source: text.ID, Value: textV},
				{Source: graph.ID, Value: graphV},
			})
			rec.Set(trait, chosen.Value)
			tr.track(Provenance{Source: chosen.Source, Alloy: alloy, Trait: trait, Value: chosen.Value, Reason: reason})

			conflict := Conflict{Alloy: alloy, Trait: trait, TextValue: textV, GraphValue: graphV, Kept: chosen.Source}
			conflicts = append(conflicts, conflict)
			if r.sink != nil {
				r.sink.Warn(component, alloy, conflict.Message())
			} else {
				log := logging.Alloy(&r.logger, alloy)
				log.Warn().Str("trait", trait).Msg(conflict.Message())
			}
		})

		graphTraits.Each(func(trait string, graphV property.Value) {
			if rec.Has(trait) {
				return
			}
			rec.Set(trait, graphV)
			tr.track(Provenance{Source: graph.ID, Alloy: alloy, Trait: trait, Value: graphV,
				Reason: "absent from " + text.ID.String()})
		})

		out.Set(alloy, rec)
	})

	return out, conflicts
}
