package reconcile

import (
	"fmt"
	"strings"

	"github.com/agentstation/alloymap/pkg/property"
)

// Conflict is a trait present in both sources with different values.
// Kept names the source whose value the strategy chose.
type Conflict struct {
	Alloy      string         `json:"alloy" yaml:"alloy"`
	Trait      string         `json:"trait" yaml:"trait"`
	TextValue  property.Value `json:"text_value" yaml:"text_value"`
	GraphValue property.Value `json:"graph_value" yaml:"graph_value"`
	Kept       SourceID       `json:"kept" yaml:"kept"`
}

// Message renders the conflict for logs and reports.
func (c Conflict) Message() string {
	kept := c.Kept
	if kept == "" {
		kept = SourceText
	}
	return fmt.Sprintf("Conflict in alloy '%s' for trait '%s'. Text data = %s, Graph data = %s. Prioritizing %s data.",
		c.Alloy, c.Trait, c.TextValue, c.GraphValue, kept)
}

// Value returns the value the unified record kept.
func (c Conflict) Value() property.Value {
	if c.Kept == SourceGraph {
		return c.GraphValue
	}
	return c.TextValue
}

// ConflictLog is the ordered list of conflicts found by one reconciliation.
type ConflictLog []Conflict

// Messages returns each conflict's message in order.
func (l ConflictLog) Messages() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Message()
	}
	return out
}

// Summary joins the conflict messages with newlines.
func (l ConflictLog) Summary() string {
	return strings.Join(l.Messages(), "\n")
}

// ForAlloy returns the conflicts recorded for alloy.
func (l ConflictLog) ForAlloy(alloy string) ConflictLog {
	var out ConflictLog
	for _, c := range l {
		if c.Alloy == alloy {
			out = append(out, c)
		}
	}
	return out
}
