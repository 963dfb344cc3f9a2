package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/alloymap/internal/metrics"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/reconcile"
	"github.com/agentstation/alloymap/pkg/validate"
)

func result() *pipeline.Result {
	return &pipeline.Result{
		Stats: reconcile.Statistics{
			TextAlloys:    2,
			GraphAlloys:   3,
			UnifiedAlloys: 3,
			Conflicts:     2,
			FilledMissing: 4,
		},
		Issues: &validate.Report{Issues: []validate.Issue{
			{Kind: validate.MissingTraits, Alloy: "TI.2", Traits: []string{"cost"}},
			{Kind: validate.MissingTraits, Alloy: "WA.1", Traits: []string{"density"}},
			{Kind: validate.InvalidTraits, Alloy: "SS.1", Traits: []string{"strength"}},
		}},
		Verdicts: []gate.Verdict{
			{Material: "SS.1", Status: gate.Pass},
			{Material: "TI.2", Status: gate.Pass},
			{Material: "WA.1", Status: gate.Fail, Reason: "Buoyancy below 100"},
		},
		Duration: 3 * time.Millisecond,
	}
}

func TestRecord(t *testing.T) {
	rec := metrics.New()
	rec.Record(result())

	expected := `
# HELP alloymap_gate_verdicts_total Threshold gate verdicts by status
# TYPE alloymap_gate_verdicts_total counter
alloymap_gate_verdicts_total{status="Fail"} 1
alloymap_gate_verdicts_total{status="Pass"} 2
# HELP alloymap_reconcile_conflicts_total Trait values on which the text and graph sources disagreed
# TYPE alloymap_reconcile_conflicts_total counter
alloymap_reconcile_conflicts_total 2
# HELP alloymap_validate_issues_total Completeness issues by kind
# TYPE alloymap_validate_issues_total counter
alloymap_validate_issues_total{kind="invalid"} 1
alloymap_validate_issues_total{kind="missing"} 2
`
	err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"alloymap_gate_verdicts_total",
		"alloymap_reconcile_conflicts_total",
		"alloymap_validate_issues_total",
	)
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(rec.Registry(), "alloymap_alloys")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRecordAccumulates(t *testing.T) {
	rec := metrics.New()
	rec.Record(result())
	rec.Record(result())
	rec.RecordFailure()
	rec.Record(nil)

	expected := `
# HELP alloymap_runs_total Pipeline runs by outcome
# TYPE alloymap_runs_total counter
alloymap_runs_total{outcome="error"} 1
alloymap_runs_total{outcome="ok"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "alloymap_runs_total"))
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.Record(result())

	count, err := testutil.GatherAndCount(b.Registry(), "alloymap_runs_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWriteTextfile(t *testing.T) {
	rec := metrics.New()
	rec.Record(result())

	path := filepath.Join(t.TempDir(), "alloymap.prom")
	require.NoError(t, rec.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `alloymap_runs_total{outcome="ok"} 1`)
	assert.Contains(t, string(data), "alloymap_run_duration_seconds_count 1")
}

func TestWriteTextfileBadPath(t *testing.T) {
	rec := metrics.New()
	err := rec.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "alloymap.prom"))
	assert.Error(t, err)
}
