package alloymap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/alloymap"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/reconcile"
)

func sources() (*property.Map, *property.Map) {
	text := property.NewMap()
	text.Set("SS.1", property.TraitsOf("strength", 500, "buoyancy", 120))
	text.Set("WA.1", property.TraitsOf("strength", 400, "buoyancy", 90))

	graph := property.NewMap()
	graph.Set("SS.1", property.TraitsOf("strength", 520, "cost", 90))
	graph.Set("TI.2", property.TraitsOf("strength", 880, "buoyancy", 110, "cost", 300))
	return text, graph
}

func newAlloymap(t *testing.T, opts ...alloymap.Option) alloymap.Alloymap {
	t.Helper()
	opts = append([]alloymap.Option{
		alloymap.WithLogger(logging.NewNopLogger()),
		alloymap.WithApplication("pontoons"),
		alloymap.WithWeights(rank.Weights{{Trait: "strength", Weight: 0.5}, {Trait: "cost", Weight: -0.1}}),
		alloymap.WithThresholds(gate.Spec{"pontoons": {{Key: "buoyancy_min", Limit: 100}, {Key: "cost_max", Limit: 150}}}),
	}, opts...)
	am, err := alloymap.New(opts...)
	require.NoError(t, err)
	return am
}

func TestRunTriggersHooks(t *testing.T) {
	am := newAlloymap(t)

	var conflicts []reconcile.Conflict
	var verdicts []gate.Verdict
	var results []*pipeline.Result
	am.OnConflict(func(_ string, c reconcile.Conflict) { conflicts = append(conflicts, c) })
	am.OnVerdict(func(_ string, v gate.Verdict) { verdicts = append(verdicts, v) })
	am.OnResult(func(r *pipeline.Result) { results = append(results, r) })

	text, graph := sources()
	res, err := am.Run(context.Background(), text, graph)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Same(t, res, results[0])
	require.Len(t, conflicts, 1)
	assert.Equal(t, "SS.1", conflicts[0].Alloy)
	assert.Equal(t, res.Verdicts, verdicts)

	// TI.2: 440-30 = 410, SS.1: 250-9 = 241, WA.1: 200 (cost missing)
	assert.Equal(t, "TI.2", res.Best)
	assert.Equal(t, []gate.Verdict{
		{Material: "TI.2", Status: gate.Fail, Reason: "Cost above 150"},
		{Material: "SS.1", Status: gate.Pass},
		{Material: "WA.1", Status: gate.Fail, Reason: "Buoyancy below 100"},
	}, res.Verdicts)
}

func TestRunFailureSkipsHooks(t *testing.T) {
	am := newAlloymap(t)
	called := false
	am.OnResult(func(*pipeline.Result) { called = true })

	text, _ := sources()
	_, err := am.Run(context.Background(), text, property.NewMap())
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
	assert.False(t, called)
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "text.yaml")
	graphPath := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(textPath, []byte("SS.1:\n  strength: 500\n  buoyancy: 120\n  cost: \"?\"\n"), 0o600))
	require.NoError(t, os.WriteFile(graphPath, []byte("SS.1:\n  cost: 90\n"), 0o600))

	am := newAlloymap(t, alloymap.WithMissingMarkers("?"))
	res, err := am.RunFiles(context.Background(), textPath, graphPath)
	require.NoError(t, err)

	// A text Missing disagrees with the graph value and is kept.
	require.Len(t, res.Conflicts, 1)
	assert.True(t, res.Conflicts[0].TextValue.IsMissing())
	assert.Equal(t, "SS.1: Fail (Reason: Cost not numeric)", res.Verdicts[0].String())
}

func TestWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alloymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`application: frame
identifier_column: Alloy
weights:
  strength: 1
default_thresholds:
  frame:
    strength_min: 450
`), 0o600))

	am, err := alloymap.New(alloymap.WithLogger(logging.NewNopLogger()), alloymap.WithConfigFile(path))
	require.NoError(t, err)

	cfg := am.Config()
	assert.Equal(t, "frame", cfg.Application)
	assert.Equal(t, "Alloy", cfg.IDColumn)
	assert.Equal(t, rank.Weights{{Trait: "strength", Weight: 1}}, cfg.Weights)

	text, graph := sources()
	res, err := am.Run(context.Background(), text, graph)
	require.NoError(t, err)
	assert.Equal(t, "TI.2", res.Best)
	assert.Equal(t, []string{"TI.2", "SS.1"}, gate.Passed(res.Verdicts))
}

func TestWithStrategyNil(t *testing.T) {
	_, err := alloymap.New(alloymap.WithStrategy(nil))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
