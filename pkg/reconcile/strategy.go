package reconcile

import (
	"fmt"

	"github.com/agentstation/alloymap/pkg/property"
)

// StrategyType represents the type of reconciliation strategy.
type StrategyType string

const (
	// StrategyTypeSourceOrder uses source ordering to resolve conflicts.
	StrategyTypeSourceOrder StrategyType = "source-order"
	// StrategyTypePrimaryFirst always keeps the primary source's value.
	StrategyTypePrimaryFirst StrategyType = "primary-first"
)

// Candidate is one source's value for a trait.
type Candidate struct {
	Source SourceID
	Value  property.Value
}

// Strategy decides which candidate value a unified record keeps.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Resolve picks one of the candidates, which arrive primary first.
	// It returns the chosen candidate and the reason for the choice.
	Resolve(trait string, candidates []Candidate) (Candidate, string)
}

type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// SourceOrderStrategy resolves conflicts using a fixed source precedence
// order. Sources earlier in the slice have higher precedence. Candidates
// from unlisted sources rank after listed ones, in arrival order.
type SourceOrderStrategy struct {
	baseStrategy
	priority []SourceID
}

// NewSourceOrderStrategy creates a source precedence strategy.
func NewSourceOrderStrategy(priority ...SourceID) Strategy {
	return &SourceOrderStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSourceOrder,
			description: fmt.Sprintf("Resolves conflicts using source priority order: %v", priority),
		},
		priority: priority,
	}
}

// Resolve returns the candidate from the highest-priority source.
func (s *SourceOrderStrategy) Resolve(_ string, candidates []Candidate) (Candidate, string) {
	for _, source := range s.priority {
		for _, c := range candidates {
			if c.Source == source {
				return c, fmt.Sprintf("selected by source priority order (%s)", source)
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0], "no priority source available, using first"
	}
	return Candidate{Source: SourceCompletion, Value: property.Missing}, "no value available"
}

// PrimaryFirst returns the default strategy: the primary source's value is
// always kept and other sources only fill traits the primary lacks.
func PrimaryFirst() Strategy {
	return &primaryFirstStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypePrimaryFirst,
			description: "Keeps the primary source's value on every conflict",
		},
	}
}

type primaryFirstStrategy struct {
	baseStrategy
}

func (s *primaryFirstStrategy) Resolve(_ string, candidates []Candidate) (Candidate, string) {
	if len(candidates) == 0 {
		return Candidate{Source: SourceCompletion, Value: property.Missing}, "no value available"
	}
	return candidates[0], fmt.Sprintf("primary source (%s) takes precedence", candidates[0].Source)
}
