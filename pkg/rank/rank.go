// Package rank scores materials with a signed linear combination of their
// numeric traits and orders them best first.
package rank

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/table"
)

// ScoreColumn is the column added by Rank.
const ScoreColumn = "Weighted Score"

const component = "rank"

// Ranker computes weighted scores.
type Ranker struct {
	sink   *diag.Sink
	logger zerolog.Logger
}

// New creates a Ranker reporting warnings to sink. Both arguments may be nil.
func New(sink *diag.Sink, logger *zerolog.Logger) *Ranker {
	return &Ranker{sink: sink, logger: logging.Component(logger, component)}
}

// Score pairs a material with its weighted score.
type Score struct {
	Material string  `json:"material" yaml:"material"`
	Score    float64 `json:"score" yaml:"score"`
}

// Rank returns a copy of t with a ScoreColumn, sorted by score descending.
// Ties keep input order. Weights naming no column are skipped with a
// warning; cells that fail numeric coercion contribute zero.
func (r *Ranker) Rank(t *table.Table, weights Weights) (*table.Table, error) {
	if t == nil {
		return nil, errors.NewPreconditionError(component, "material table is nil")
	}

	type term struct {
		column string
		weight float64
	}
	terms := make([]term, 0, len(weights))
	for _, w := range weights {
		column, ok := t.Column(w.Trait)
		if !ok {
			r.warnf("Criterion '%s' is missing from the material table; skipping", w.Trait)
			continue
		}
		terms = append(terms, term{column: column, weight: w.Weight})
	}

	if _, exists := t.Column(ScoreColumn); exists {
		r.warnf("Column '%s' already exists and will be overwritten", ScoreColumn)
	}

	scores := make([]property.Value, t.Len())
	for i, row := range t.Rows {
		total := 0.0
		for _, tm := range terms {
			cell, _ := row.Get(tm.column)
			v, err := property.ParseNumeric(cell)
			if err != nil {
				continue
			}
			total += tm.weight * v
		}
		scores[i] = property.Number(total)
	}

	ranked := t.WithColumn(ScoreColumn, scores)
	sort.SliceStable(ranked.Rows, func(i, j int) bool {
		return score(ranked.Rows[i]) > score(ranked.Rows[j])
	})

	r.logger.Debug().Int("materials", ranked.Len()).Int("criteria", len(terms)).Msg("Ranked materials")
	return ranked, nil
}

// SelectBest returns the identifier of the top-ranked material. An empty
// table is a precondition failure wrapping errors.ErrEmptyRanking.
func (r *Ranker) SelectBest(t *table.Table, weights Weights) (string, error) {
	if t.Len() == 0 {
		return "", errors.WrapPrecondition("select", errors.ErrEmptyRanking)
	}
	ranked, err := r.Rank(t, weights)
	if err != nil {
		return "", err
	}
	return ranked.Rows[0].ID, nil
}

// Scores lists the scores of a ranked table in row order.
func Scores(ranked *table.Table) []Score {
	out := make([]Score, 0, ranked.Len())
	for _, row := range ranked.Rows {
		out = append(out, Score{Material: row.ID, Score: score(row)})
	}
	return out
}

func score(row table.Row) float64 {
	v, ok := row.Get(ScoreColumn)
	if !ok {
		return 0
	}
	f, _ := v.Number()
	return f
}

func (r *Ranker) warnf(format string, args ...any) {
	if r.sink != nil {
		r.sink.Warnf(component, "", format, args...)
		return
	}
	r.logger.Warn().Msgf(format, args...)
}
