// Package validate checks a unified record for completeness and numeric
// sanity. Findings are reported as issues; they never abort a run.
package validate

import (
	"fmt"
	"strings"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/property"
)

// NoIssuesMessage is the summary of a report without issues.
const NoIssuesMessage = "No issues found. All alloy data is complete and valid."

// IssueKind classifies an issue.
type IssueKind string

// Issue kinds.
const (
	MissingTraits IssueKind = "missing"
	InvalidTraits IssueKind = "invalid"
)

// Issue aggregates every offending trait of one alloy for one kind.
type Issue struct {
	Kind   IssueKind `json:"kind" yaml:"kind"`
	Alloy  string    `json:"alloy" yaml:"alloy"`
	Traits []string  `json:"traits" yaml:"traits"`
}

// Message renders the issue.
func (i Issue) Message() string {
	traits := strings.Join(i.Traits, ", ")
	if i.Kind == InvalidTraits {
		return fmt.Sprintf("Alloy '%s' has invalid numeric values for traits: %s.", i.Alloy, traits)
	}
	return fmt.Sprintf("Alloy '%s' is missing traits: %s.", i.Alloy, traits)
}

// Report is the ordered result of FindIssues.
type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
}

// HasIssues reports whether anything was found.
func (r *Report) HasIssues() bool {
	return r != nil && len(r.Issues) > 0
}

// Messages returns the issue messages in report order.
func (r *Report) Messages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Message()
	}
	return out
}

// Summary joins the messages with newlines, or returns NoIssuesMessage.
func (r *Report) Summary() string {
	if !r.HasIssues() {
		return NoIssuesMessage
	}
	return strings.Join(r.Messages(), "\n")
}

// ByKind returns the issues of one kind.
func (r *Report) ByKind(kind IssueKind) []Issue {
	if r == nil {
		return nil
	}
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// Validator finds completeness and numeric issues.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// FindIssues scans m in alloy order. Each alloy yields at most one missing
// issue followed by at most one invalid issue, traits in record order.
// Missing values are only ever counted as missing.
func (v *Validator) FindIssues(m *property.Map) *Report {
	report := &Report{}
	m.Each(func(alloy string, traits *property.Traits) {
		var missing, invalid []string
		traits.Each(func(trait string, val property.Value) {
			if val.IsMissing() {
				missing = append(missing, trait)
				return
			}
			if !property.IsNumeric(val) {
				invalid = append(invalid, trait)
			}
		})
		if len(missing) > 0 {
			report.Issues = append(report.Issues, Issue{Kind: MissingTraits, Alloy: alloy, Traits: missing})
		}
		if len(invalid) > 0 {
			report.Issues = append(report.Issues, Issue{Kind: InvalidTraits, Alloy: alloy, Traits: invalid})
		}
	})
	return report
}

// RequireSources fails when any pipeline input is empty.
func RequireSources(text, graph, unified *property.Map) error {
	switch {
	case text.Len() == 0:
		return errors.NewPreconditionError("validate", "text data is empty")
	case graph.Len() == 0:
		return errors.NewPreconditionError("validate", "graph data is empty")
	case unified.Len() == 0:
		return errors.NewPreconditionError("validate", "unified data is empty")
	}
	return nil
}
