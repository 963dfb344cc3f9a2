package rank_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/table"
)

func newRanker(sink *diag.Sink) *rank.Ranker {
	return rank.New(sink, logging.NewNopLogger())
}

func twoMaterials() *table.Table {
	t := table.New("")
	t.AddRow("A", map[string]property.Value{"Buoyancy": property.Number(100), "Strength": property.Number(300)})
	t.AddRow("B", map[string]property.Value{"Buoyancy": property.Number(120), "Strength": property.Number(500)})
	return t
}

var pontoonWeights = rank.Weights{
	{Trait: "Buoyancy", Weight: 0.4},
	{Trait: "Strength", Weight: 0.3},
}

func TestRank(t *testing.T) {
	ranked, err := newRanker(nil).Rank(twoMaterials(), pontoonWeights)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, ranked.IDs())
	got := rank.Scores(ranked)
	require.Len(t, got, 2)
	assert.InDelta(t, 198.0, got[0].Score, 1e-9)
	assert.InDelta(t, 130.0, got[1].Score, 1e-9)
	assert.Equal(t, []string{"Buoyancy", "Strength", rank.ScoreColumn}, ranked.Columns)
}

func TestRankDoesNotModifyInput(t *testing.T) {
	input := twoMaterials()
	before := input.Clone()

	_, err := newRanker(nil).Rank(input, pontoonWeights)
	require.NoError(t, err)

	if diff := cmp.Diff(before, input); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestSelectBest(t *testing.T) {
	best, err := newRanker(nil).SelectBest(twoMaterials(), pontoonWeights)
	require.NoError(t, err)
	assert.Equal(t, "B", best)
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := newRanker(nil).SelectBest(table.New(""), pontoonWeights)
	require.Error(t, err)
	assert.True(t, errors.IsEmptyRanking(err))
	assert.True(t, errors.IsPrecondition(err))
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	tbl := table.New("")
	for _, id := range []string{"first", "second", "third", "fourth"} {
		tbl.AddRow(id, map[string]property.Value{"Strength": property.Number(10)})
	}
	tbl.Rows[2].Cells["Strength"] = property.Number(20)

	r := newRanker(nil)
	ranked, err := r.Rank(tbl, rank.Weights{{Trait: "Strength", Weight: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second", "fourth"}, ranked.IDs())

	again, err := r.Rank(tbl, rank.Weights{{Trait: "Strength", Weight: 1}})
	require.NoError(t, err)
	assert.Equal(t, ranked.IDs(), again.IDs())
}

func TestRankMissingAndInvalidCountAsZero(t *testing.T) {
	tbl := table.New("")
	tbl.AddRow("full", map[string]property.Value{"Buoyancy": property.Number(100), "Strength": property.Number(300)})
	tbl.AddRow("missing", map[string]property.Value{"Buoyancy": property.Missing, "Strength": property.Number(300)})
	tbl.AddRow("invalid", map[string]property.Value{"Buoyancy": property.Text("invalid_data"), "Strength": property.Text("300")})
	tbl.AddRow("absent", map[string]property.Value{"Strength": property.Number(300)})

	ranked, err := newRanker(nil).Rank(tbl, pontoonWeights)
	require.NoError(t, err)

	want := []rank.Score{
		{Material: "full", Score: 130},
		{Material: "missing", Score: 90},
		{Material: "invalid", Score: 90},
		{Material: "absent", Score: 90},
	}
	got := rank.Scores(ranked)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Material, got[i].Material)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-9)
	}
}

func TestRankSkipsUnknownCriteria(t *testing.T) {
	sink := diag.NewSink(logging.NewNopLogger())
	ranked, err := newRanker(sink).Rank(twoMaterials(), rank.Weights{
		{Trait: "Hardness", Weight: 5},
		{Trait: "strength", Weight: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, ranked.IDs(), "negative weight prefers lower strength")
	require.Equal(t, 1, sink.Len())
	assert.Contains(t, sink.Summary(), "'Hardness'")
}

func TestRankOverwritesScoreColumn(t *testing.T) {
	sink := diag.NewSink(logging.NewNopLogger())
	tbl := twoMaterials().WithColumn(rank.ScoreColumn, []property.Value{property.Number(1000), property.Number(0)})

	ranked, err := newRanker(sink).Rank(tbl, pontoonWeights)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ranked.IDs())
	assert.Equal(t, 1, sink.Count(diag.LevelWarn))
}

func TestWeightsOf(t *testing.T) {
	w := rank.WeightsOf(map[string]float64{"Strength": 0.3, "Buoyancy": 0.4, "Cost": -0.2})
	assert.Equal(t, []string{"Buoyancy", "Cost", "Strength"}, w.Traits())
}
