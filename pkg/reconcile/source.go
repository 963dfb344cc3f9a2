package reconcile

import "github.com/agentstation/alloymap/pkg/property"

// SourceID names an upstream source of alloy records.
type SourceID string

// String returns the source name.
func (id SourceID) String() string {
	return string(id)
}

// Known sources.
const (
	// SourceText is the OCR-derived text source. It is the primary source.
	SourceText SourceID = "text"
	// SourceGraph is the digitized-graph source.
	SourceGraph SourceID = "graph"
	// SourceCompletion marks values filled by the completion pass.
	SourceCompletion SourceID = "completion"
)

// Source pairs a property map with the source it came from.
// A nil Map behaves as an empty map.
type Source struct {
	ID  SourceID
	Map *property.Map
}

// TextSource wraps m as the text source.
func TextSource(m *property.Map) Source {
	return Source{ID: SourceText, Map: m}
}

// GraphSource wraps m as the graph source.
func GraphSource(m *property.Map) Source {
	return Source{ID: SourceGraph, Map: m}
}
