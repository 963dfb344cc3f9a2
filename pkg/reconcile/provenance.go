package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/agentstation/alloymap/pkg/property"
)

// Provenance records where a unified field value came from.
type Provenance struct {
	Source    SourceID       `json:"source" yaml:"source"`
	Alloy     string         `json:"alloy" yaml:"alloy"`
	Trait     string         `json:"trait" yaml:"trait"`
	Value     property.Value `json:"value" yaml:"value"`
	Reason    string         `json:"reason" yaml:"reason"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// ProvenanceMap holds provenance history keyed by "alloy:trait".
type ProvenanceMap map[string][]Provenance

// Get returns the history for one field.
func (p ProvenanceMap) Get(alloy, trait string) []Provenance {
	return p[provenanceKey(alloy, trait)]
}

// Keys returns the map keys in sorted order.
func (p ProvenanceMap) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ForAlloy returns the history of every field of alloy keyed by trait.
func (p ProvenanceMap) ForAlloy(alloy string) map[string][]Provenance {
	out := make(map[string][]Provenance)
	prefix := alloy + ":"
	for key, history := range p {
		if strings.HasPrefix(key, prefix) {
			out[strings.TrimPrefix(key, prefix)] = history
		}
	}
	return out
}

// tracker accumulates provenance while a reconciler runs.
// A nil tracker records nothing.
type tracker struct {
	entries ProvenanceMap
	now     func() time.Time
}

func newTracker(enabled bool) *tracker {
	if !enabled {
		return nil
	}
	return &tracker{entries: make(ProvenanceMap), now: time.Now}
}

func (t *tracker) track(info Provenance) {
	if t == nil {
		return
	}
	if info.Timestamp.IsZero() {
		info.Timestamp = t.now()
	}
	key := provenanceKey(info.Alloy, info.Trait)
	t.entries[key] = append(t.entries[key], info)
}

func (t *tracker) has(alloy, trait string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[provenanceKey(alloy, trait)]
	return ok
}

func (t *tracker) export() ProvenanceMap {
	if t == nil {
		return nil
	}
	out := make(ProvenanceMap, len(t.entries))
	for k, v := range t.entries {
		out[k] = append([]Provenance(nil), v...)
	}
	return out
}

func provenanceKey(alloy, trait string) string {
	return alloy + ":" + trait
}
