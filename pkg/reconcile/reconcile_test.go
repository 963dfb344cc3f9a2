package reconcile_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/reconcile"
)

func newReconciler(t *testing.T, opts ...reconcile.Option) *reconcile.Reconciler {
	t.Helper()
	opts = append([]reconcile.Option{reconcile.WithLogger(logging.NewNopLogger())}, opts...)
	r, err := reconcile.New(opts...)
	require.NoError(t, err)
	return r
}

func textFixture() *property.Map {
	m := property.NewMap()
	m.Set("SS.1", property.TraitsOf("density", "7.9", "strength", "250"))
	return m
}

func graphFixture() *property.Map {
	m := property.NewMap()
	m.Set("SS.1", property.TraitsOf("strength", "260"))
	m.Set("WA.1", property.TraitsOf("strength", "320"))
	return m
}

func value(t *testing.T, m *property.Map, alloy, trait string) property.Value {
	t.Helper()
	rec, ok := m.Get(alloy)
	require.True(t, ok, "alloy %s missing", alloy)
	v, ok := rec.Get(trait)
	require.True(t, ok, "trait %s missing on %s", trait, alloy)
	return v
}

func TestMergePrimaryWins(t *testing.T) {
	r := newReconciler(t)
	merged := r.Merge(reconcile.TextSource(textFixture()), reconcile.GraphSource(graphFixture()))

	assert.Equal(t, []string{"SS.1", "WA.1"}, merged.Alloys())
	assert.Equal(t, property.Text("250"), value(t, merged, "SS.1", "strength"))
	assert.Equal(t, property.Text("7.9"), value(t, merged, "SS.1", "density"))
	assert.Equal(t, property.Text("320"), value(t, merged, "WA.1", "strength"))
	assert.True(t, value(t, merged, "WA.1", "density").IsMissing())
	assert.True(t, merged.IsRectangular())
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	text, graph := textFixture(), graphFixture()
	textBefore, graphBefore := text.Clone(), graph.Clone()

	newReconciler(t).Merge(reconcile.TextSource(text), reconcile.GraphSource(graph))

	if diff := cmp.Diff(textBefore, text); diff != "" {
		t.Errorf("text source mutated (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(graphBefore, graph); diff != "" {
		t.Errorf("graph source mutated (-before +after):\n%s", diff)
	}
}

func TestMergeSecondaryFillsAbsentTraits(t *testing.T) {
	primary := property.NewMap()
	primary.Set("CA.1", property.TraitsOf("density", "8.2", "strength", nil))
	secondary := property.NewMap()
	secondary.Set("CA.1", property.TraitsOf("strength", "300", "cost", "9"))

	merged := newReconciler(t).Merge(reconcile.TextSource(primary), reconcile.GraphSource(secondary))

	rec, _ := merged.Get("CA.1")
	assert.Equal(t, []string{"density", "strength", "cost"}, rec.Names())
	assert.True(t, value(t, merged, "CA.1", "strength").IsMissing(), "a present Missing in the primary is kept")
	assert.Equal(t, property.Text("9"), value(t, merged, "CA.1", "cost"))
}

func TestMergeNilSources(t *testing.T) {
	r := newReconciler(t)

	merged := r.Merge(reconcile.Source{}, reconcile.Source{})
	assert.Equal(t, 0, merged.Len())

	merged = r.Merge(reconcile.Source{}, reconcile.GraphSource(graphFixture()))
	assert.Equal(t, []string{"SS.1", "WA.1"}, merged.Alloys())
}

func TestMergeKeepsEveryAlloy(t *testing.T) {
	a := property.MustMapOf(map[string]map[string]any{
		"A": {"x": 1}, "B": {"y": 2}, "C": {},
	})
	b := property.MustMapOf(map[string]map[string]any{
		"C": {"x": 3}, "D": {"z": "q"}, "A": {"x": 9},
	})

	merged := newReconciler(t).Merge(reconcile.TextSource(a), reconcile.GraphSource(b))

	for _, alloy := range append(a.Alloys(), b.Alloys()...) {
		assert.True(t, merged.Has(alloy), "alloy %s dropped", alloy)
	}
	assert.Equal(t, property.Number(1), value(t, merged, "A", "x"))
	assert.Equal(t, property.Number(3), value(t, merged, "C", "x"))
	assert.True(t, merged.IsRectangular())
}

func TestReconcileLogsConflicts(t *testing.T) {
	tl := logging.NewTestLogger(t)
	sink := diag.NewSink(tl.Logger)
	r := newReconciler(t, reconcile.WithSink(sink))

	reconciled, conflicts := r.Reconcile(reconcile.TextSource(textFixture()), reconcile.GraphSource(graphFixture()))

	assert.Equal(t, []string{"SS.1"}, reconciled.Alloys(), "graph-only alloys are not discovered")
	assert.Equal(t, property.Text("250"), value(t, reconciled, "SS.1", "strength"))

	want := reconcile.ConflictLog{{
		Alloy:      "SS.1",
		Trait:      "strength",
		TextValue:  property.Text("250"),
		GraphValue: property.Text("260"),
		Kept:       reconcile.SourceText,
	}}
	if diff := cmp.Diff(want, conflicts); diff != "" {
		t.Errorf("conflicts mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t,
		"Conflict in alloy 'SS.1' for trait 'strength'. Text data = 250, Graph data = 260. Prioritizing text data.",
		conflicts.Summary())
	assert.Equal(t, conflicts.Messages(), sink.Messages())
	tl.AssertContains(t, `"alloy":"SS.1"`)
}

func TestReconcileAppendsGraphTraits(t *testing.T) {
	text := property.NewMap()
	text.Set("CA.1", property.TraitsOf("density", "8.2", "strength", "N/A text"))
	graph := property.NewMap()
	graph.Set("CA.1", property.TraitsOf("strength", "N/A text", "hardness", "70"))

	reconciled, conflicts := newReconciler(t).Reconcile(reconcile.TextSource(text), reconcile.GraphSource(graph))

	assert.Empty(t, conflicts, "equal values are not conflicts")
	rec, _ := reconciled.Get("CA.1")
	assert.Equal(t, []string{"density", "strength", "hardness"}, rec.Names())
}

func TestReconcileMissingVersusValueIsConflict(t *testing.T) {
	text := property.NewMap()
	text.Set("SS.1", property.TraitsOf("strength", nil))
	graph := property.NewMap()
	graph.Set("SS.1", property.TraitsOf("strength", "260"))

	reconciled, conflicts := newReconciler(t).Reconcile(reconcile.TextSource(text), reconcile.GraphSource(graph))

	require.Len(t, conflicts, 1)
	assert.True(t, value(t, reconciled, "SS.1", "strength").IsMissing())
	assert.Contains(t, conflicts[0].Message(), "Text data = unset")
}

func TestReconcileMissingGraphValueIsAbsent(t *testing.T) {
	text := property.NewMap()
	text.Set("SS.1", property.TraitsOf("strength", "250"))
	graph := property.NewMap()
	graph.Set("SS.1", property.TraitsOf("strength", nil, "cost", "90"))

	r := newReconciler(t, reconcile.WithStrategy(reconcile.NewSourceOrderStrategy(reconcile.SourceGraph)))
	reconciled, conflicts := r.Reconcile(reconcile.TextSource(text), reconcile.GraphSource(graph))

	assert.Empty(t, conflicts)
	assert.Equal(t, property.Text("250"), value(t, reconciled, "SS.1", "strength"))
	assert.Equal(t, property.Text("90"), value(t, reconciled, "SS.1", "cost"))

	result := r.Unify(reconcile.TextSource(text), reconcile.GraphSource(graph))
	assert.Equal(t, 0, result.Stats.Conflicts)
	assert.Equal(t, property.Text("250"), value(t, result.Unified, "SS.1", "strength"))
}

func TestConflictRecordsKeptSource(t *testing.T) {
	sink := diag.NewSink(logging.NewNopLogger())
	r := newReconciler(t, reconcile.WithSink(sink),
		reconcile.WithStrategy(reconcile.NewSourceOrderStrategy(reconcile.SourceGraph)))

	reconciled, conflicts := r.Reconcile(reconcile.TextSource(textFixture()), reconcile.GraphSource(graphFixture()))

	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, reconcile.SourceGraph, c.Kept)
	assert.Equal(t, property.Text("260"), c.Value())
	assert.Equal(t, c.Value(), value(t, reconciled, "SS.1", "strength"))
	assert.Equal(t,
		"Conflict in alloy 'SS.1' for trait 'strength'. Text data = 250, Graph data = 260. Prioritizing graph data.",
		c.Message())
	assert.Equal(t, []string{c.Message()}, sink.Messages())
}

func TestUnify(t *testing.T) {
	r := newReconciler(t, reconcile.WithProvenance(true))
	result := r.Unify(reconcile.TextSource(textFixture()), reconcile.GraphSource(graphFixture()))

	assert.Equal(t, []string{"SS.1", "WA.1"}, result.Unified.Alloys())
	assert.Equal(t, property.Text("250"), value(t, result.Unified, "SS.1", "strength"))
	assert.True(t, value(t, result.Unified, "WA.1", "density").IsMissing())
	assert.True(t, result.Unified.IsRectangular())
	assert.True(t, result.HasConflicts())

	assert.Equal(t, reconcile.Statistics{
		TextAlloys:      1,
		GraphAlloys:     2,
		UnifiedAlloys:   2,
		GraphOnlyAlloys: 1,
		Conflicts:       1,
		FilledMissing:   1,
	}, result.Stats)
	assert.Equal(t, reconcile.StrategyTypePrimaryFirst, result.Strategy)
	assert.Contains(t, result.Summary(), "Unified 2 alloys")

	history := result.Provenance.Get("SS.1", "strength")
	require.Len(t, history, 1)
	assert.Equal(t, reconcile.SourceText, history[0].Source)

	history = result.Provenance.Get("WA.1", "strength")
	require.Len(t, history, 1)
	assert.Equal(t, reconcile.SourceGraph, history[0].Source)

	history = result.Provenance.Get("WA.1", "density")
	require.Len(t, history, 1)
	assert.Equal(t, reconcile.SourceCompletion, history[0].Source)

	assert.Len(t, result.Provenance.ForAlloy("SS.1"), 2)
}

func TestUnifyMatchesExplicitComposition(t *testing.T) {
	r := newReconciler(t)
	text, graph := reconcile.TextSource(textFixture()), reconcile.GraphSource(graphFixture())

	reconciled, conflicts := r.Reconcile(text, graph)
	explicit := r.Merge(reconcile.TextSource(reconciled), graph)
	result := r.Unify(text, graph)

	if diff := cmp.Diff(explicit, result.Unified); diff != "" {
		t.Errorf("Unify differs from Reconcile then Merge (-want +got):\n%s", diff)
	}
	assert.Equal(t, conflicts, result.Conflicts)
	assert.Nil(t, result.Provenance, "provenance is off by default")
}

func TestSourceOrderStrategy(t *testing.T) {
	r := newReconciler(t, reconcile.WithStrategy(
		reconcile.NewSourceOrderStrategy(reconcile.SourceGraph, reconcile.SourceText)))

	reconciled, conflicts := r.Reconcile(reconcile.TextSource(textFixture()), reconcile.GraphSource(graphFixture()))

	require.Len(t, conflicts, 1)
	assert.Equal(t, property.Text("260"), value(t, reconciled, "SS.1", "strength"))
	assert.Equal(t, reconcile.StrategyTypeSourceOrder, r.Strategy().Type())
}

func TestWithStrategyNil(t *testing.T) {
	_, err := reconcile.New(reconcile.WithStrategy(nil))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
