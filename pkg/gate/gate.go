// Package gate checks materials against per-application minimum and maximum
// trait bounds.
package gate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/table"
)

const component = "gate"

// Status is the outcome for one material.
type Status string

// Statuses.
const (
	Pass Status = "Pass"
	Fail Status = "Fail"
)

// Verdict is the gate result for one material. Reason is empty on Pass.
type Verdict struct {
	Material string `json:"material" yaml:"material"`
	Status   Status `json:"status" yaml:"status"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// String renders "name: Pass" or "name: Fail (Reason: r)".
func (v Verdict) String() string {
	if v.Status == Fail {
		return fmt.Sprintf("%s: %s (Reason: %s)", v.Material, v.Status, v.Reason)
	}
	return fmt.Sprintf("%s: %s", v.Material, v.Status)
}

// Spec maps an application (pontoons, frame, ...) to its thresholds in
// declaration order.
type Spec map[string][]Threshold

// Lookup finds the thresholds of application, exactly or by normalized name.
// Among several normalized matches the lexicographically first name wins.
func (s Spec) Lookup(application string) ([]Threshold, bool) {
	if th, ok := s[application]; ok {
		return th, true
	}
	key := property.NormalizeName(application)
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if property.NormalizeName(name) == key {
			return s[name], true
		}
	}
	return nil, false
}

// Gate evaluates verdicts.
type Gate struct {
	sink   *diag.Sink
	logger zerolog.Logger
}

// New creates a Gate reporting warnings to sink. Both arguments may be nil.
func New(sink *diag.Sink, logger *zerolog.Logger) *Gate {
	return &Gate{sink: sink, logger: logging.Component(logger, component)}
}

// Evaluate returns one verdict per row in table order. An unknown
// application is a warning and every material passes. The first violated
// bound decides a failure.
func (g *Gate) Evaluate(t *table.Table, application string, spec Spec) []Verdict {
	thresholds, ok := spec.Lookup(application)
	if !ok {
		g.warnf("No thresholds configured for application '%s'; all materials pass", application)
	}

	bounds, skipped := ParseBounds(thresholds)
	for _, key := range skipped {
		g.warnf("Threshold '%s' for application '%s' is neither a _min nor a _max bound; skipping", key, application)
	}

	active := make([]resolvedBound, 0, len(bounds))
	for _, b := range bounds {
		column, found := t.Column(b.Trait)
		if !found {
			g.logger.Debug().Str("trait", b.Trait).Str("application", application).Msg("Bound has no matching column; skipping")
			continue
		}
		active = append(active, resolvedBound{Bound: b, column: column})
	}

	verdicts := make([]Verdict, 0, t.Len())
	for _, row := range t.Rows {
		verdicts = append(verdicts, check(row, active))
	}
	return verdicts
}

type resolvedBound struct {
	Bound
	column string
}

func check(row table.Row, bounds []resolvedBound) Verdict {
	for _, b := range bounds {
		cell, _ := row.Get(b.column)
		v, err := property.ParseNumeric(cell)
		if err != nil {
			return Verdict{Material: row.ID, Status: Fail, Reason: b.column + " not numeric"}
		}
		if b.Violated(v) {
			return Verdict{Material: row.ID, Status: Fail, Reason: b.Reason(b.column)}
		}
	}
	return Verdict{Material: row.ID, Status: Pass}
}

func (g *Gate) warnf(format string, args ...any) {
	if g.sink != nil {
		g.sink.Warnf(component, "", format, args...)
		return
	}
	g.logger.Warn().Msgf(format, args...)
}

// Summary renders one line per verdict.
func Summary(verdicts []Verdict) string {
	lines := make([]string, len(verdicts))
	for i, v := range verdicts {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// Passed returns the materials that passed, in order.
func Passed(verdicts []Verdict) []string {
	var out []string
	for _, v := range verdicts {
		if v.Status == Pass {
			out = append(out, v.Material)
		}
	}
	return out
}
