package output

import (
	"strconv"
	"strings"

	"github.com/agentstation/alloymap/pkg/diag"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/reconcile"
	"github.com/agentstation/alloymap/pkg/table"
	"github.com/agentstation/alloymap/pkg/validate"
)

// absent marks a cell the row has no value for.
const absent = "-"

// MapToTableData renders a property map with one row per alloy.
func MapToTableData(m *property.Map, idColumn string) Data {
	return TableToTableData(table.FromRecord(m, idColumn))
}

// TableToTableData renders a material table, identifier column first.
func TableToTableData(t *table.Table) Data {
	headers := append([]string{t.IDColumn}, t.Columns...)
	align := make([]Align, len(headers))
	align[0] = AlignLeft
	for i := 1; i < len(align); i++ {
		align[i] = AlignRight
	}

	rows := make([][]string, 0, t.Len())
	for _, r := range t.Rows {
		row := make([]string, 0, len(headers))
		row = append(row, r.ID)
		for _, c := range t.Columns {
			v, ok := r.Get(c)
			if !ok {
				row = append(row, absent)
				continue
			}
			row = append(row, v.String())
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// ConflictsToTableData renders a conflict log.
func ConflictsToTableData(log reconcile.ConflictLog) Data {
	rows := make([][]string, 0, len(log))
	for _, c := range log {
		kept := c.Kept
		if kept == "" {
			kept = reconcile.SourceText
		}
		rows = append(rows, []string{c.Alloy, c.Trait, c.TextValue.String(), c.GraphValue.String(), kept.String()})
	}
	return Data{
		Title:   "Conflicts",
		Headers: []string{"Alloy", "Trait", "Text", "Graph", "Kept"},
		Rows:    rows,
	}
}

// IssuesToTableData renders a completeness report.
func IssuesToTableData(report *validate.Report) Data {
	var rows [][]string
	if report != nil {
		for _, issue := range report.Issues {
			rows = append(rows, []string{issue.Alloy, string(issue.Kind), strings.Join(issue.Traits, ", ")})
		}
	}
	return Data{
		Title:   "Issues",
		Headers: []string{"Alloy", "Kind", "Traits"},
		Rows:    rows,
	}
}

// ScoresToTableData renders ranked scores with their position.
func ScoresToTableData(scores []rank.Score) Data {
	rows := make([][]string, 0, len(scores))
	for i, s := range scores {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Material,
			strconv.FormatFloat(s.Score, 'f', -1, 64),
		})
	}
	return Data{
		Title:           "Ranking",
		Headers:         []string{"#", "Material", rank.ScoreColumn},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignRight},
	}
}

// VerdictsToTableData renders gate verdicts.
func VerdictsToTableData(verdicts []gate.Verdict) Data {
	rows := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		rows = append(rows, []string{v.Material, string(v.Status), v.Reason})
	}
	return Data{
		Title:   "Verdicts",
		Headers: []string{"Material", "Status", "Reason"},
		Rows:    rows,
	}
}

// DiagnosticsToTableData renders diagnostics entries.
func DiagnosticsToTableData(entries []diag.Entry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{string(e.Level), e.Component, e.Alloy, e.Message})
	}
	return Data{
		Title:   "Diagnostics",
		Headers: []string{"Level", "Component", "Alloy", "Message"},
		Rows:    rows,
	}
}

// ResultToTableData renders every section of a pipeline result.
func ResultToTableData(res *pipeline.Result) []Data {
	out := []Data{ScoresToTableData(res.Scores), VerdictsToTableData(res.Verdicts)}
	if len(res.Conflicts) > 0 {
		out = append(out, ConflictsToTableData(res.Conflicts))
	}
	if res.Issues.HasIssues() {
		out = append(out, IssuesToTableData(res.Issues))
	}
	if len(res.Diagnostics) > 0 {
		out = append(out, DiagnosticsToTableData(res.Diagnostics))
	}
	return out
}
