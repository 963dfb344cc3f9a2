package alloymap

import (
	"sync"

	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/reconcile"
)

// Hook function types for run events
type (
	// ConflictHook is called for each conflict of a run, in conflict order
	ConflictHook func(runID string, conflict reconcile.Conflict)

	// VerdictHook is called for each gate verdict, in ranking order
	VerdictHook func(runID string, verdict gate.Verdict)

	// ResultHook is called once per completed run, after the other hooks
	ResultHook func(result *pipeline.Result)
)

// hooks manages event callbacks for runs
type hooks struct {
	mu         sync.RWMutex
	onConflict []ConflictHook
	onVerdict  []VerdictHook
	onResult   []ResultHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnConflict registers a callback for conflicts
func (h *hooks) OnConflict(fn ConflictHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConflict = append(h.onConflict, fn)
}

// OnVerdict registers a callback for verdicts
func (h *hooks) OnVerdict(fn VerdictHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVerdict = append(h.onVerdict, fn)
}

// OnResult registers a callback for completed runs
func (h *hooks) OnResult(fn ResultHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onResult = append(h.onResult, fn)
}

// trigger fires every hook for a completed run
func (h *hooks) trigger(res *pipeline.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range res.Conflicts {
		for _, hook := range h.onConflict {
			hook(res.RunID, c)
		}
	}
	for _, v := range res.Verdicts {
		for _, hook := range h.onVerdict {
			hook(res.RunID, v)
		}
	}
	for _, hook := range h.onResult {
		hook(res)
	}
}
