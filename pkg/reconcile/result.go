package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/alloymap/pkg/property"
)

// Result is the outcome of Unify.
type Result struct {
	// Unified holds one completed record per alloy of either source.
	Unified *property.Map

	// Conflicts found while reconciling text-source alloys.
	Conflicts ConflictLog

	// Provenance is nil unless tracking was enabled.
	Provenance ProvenanceMap

	Strategy StrategyType
	Stats    Statistics
	Duration time.Duration
}

// Statistics counts what a unification did.
type Statistics struct {
	TextAlloys      int `json:"text_alloys" yaml:"text_alloys"`
	GraphAlloys     int `json:"graph_alloys" yaml:"graph_alloys"`
	UnifiedAlloys   int `json:"unified_alloys" yaml:"unified_alloys"`
	GraphOnlyAlloys int `json:"graph_only_alloys" yaml:"graph_only_alloys"`
	Conflicts       int `json:"conflicts" yaml:"conflicts"`
	FilledMissing   int `json:"filled_missing" yaml:"filled_missing"`
}

// HasConflicts returns true if the sources disagreed anywhere.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Summary returns a one-line human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("Unified %d alloys (%d text, %d graph, %d graph-only) with %d conflicts and %d missing fields",
		r.Stats.UnifiedAlloys, r.Stats.TextAlloys, r.Stats.GraphAlloys, r.Stats.GraphOnlyAlloys,
		r.Stats.Conflicts, r.Stats.FilledMissing)
}
