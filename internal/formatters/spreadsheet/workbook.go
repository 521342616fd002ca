// Package spreadsheet renders export bundles as workbooks. The
// Requirements sheet uses the importer's column order so an exported
// workbook can be imported again.
package spreadsheet

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	parser "github.com/custodia-labs/reqtrace/internal/parsers/spreadsheet"
)

// Sheet names, in workbook order.
const (
	SheetRequirements = parser.PreferredSheet
	SheetStories      = "Stories"
	SheetUAT          = "UAT"
	SheetTraceability = "Traceability"
	SheetFindings     = "Findings"
)

// Sheet is one tab of a workbook.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Workbook is the destination-neutral table model shared by the .xlsx
// writer and the Google Sheets publisher.
type Workbook struct {
	Sheets []Sheet
}

// Sheet returns the named sheet.
func (w Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// Values returns the header and rows as one grid.
func (s Sheet) Values() [][]string {
	out := make([][]string, 0, len(s.Rows)+1)
	out = append(out, s.Columns)
	return append(out, s.Rows...)
}

// BuildWorkbook lays out the bundle. Empty record kinds still get a sheet
// with headers so the layout is stable.
func BuildWorkbook(b *domain.ExportBundle) Workbook {
	return Workbook{Sheets: []Sheet{
		requirementsSheet(b.Requirements),
		storiesSheet(b.Stories),
		uatSheet(b.Cases),
		traceabilitySheet(b.Matrix),
		findingsSheet(b.Findings),
	}}
}

func requirementsSheet(reqs []domain.Requirement) Sheet {
	s := Sheet{Name: SheetRequirements}
	for _, c := range parser.Columns {
		s.Columns = append(s.Columns, c.Header)
	}
	for _, r := range reqs {
		row := make([]string, 0, len(parser.Columns))
		for _, c := range parser.Columns {
			row = append(row, requirementField(r, c.Field))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func requirementField(r domain.Requirement, f parser.Field) string {
	switch f {
	case parser.FieldID:
		return r.ID
	case parser.FieldDescription:
		return r.Description
	case parser.FieldPriority:
		return string(r.Priority)
	case parser.FieldCategory:
		return r.Category
	case parser.FieldFeature:
		return r.FeatureTag
	case parser.FieldCriteria:
		return domain.JoinCriteria(r.AcceptanceCriteria)
	case parser.FieldRationale:
		return r.Rationale
	case parser.FieldStatus:
		return string(r.Status)
	default:
		return ""
	}
}

func storiesSheet(stories []domain.UserStory) Sheet {
	s := Sheet{
		Name:    SheetStories,
		Columns: []string{"Story ID", "Requirements", "Feature", "Role", "Action", "Benefit", "Story", "Acceptance Criteria"},
	}
	for _, st := range stories {
		ids := st.RequirementIDs
		if len(ids) == 0 {
			ids = []string{st.RequirementID}
		}
		s.Rows = append(s.Rows, []string{
			st.ID, strings.Join(ids, ", "), st.FeatureTag, st.Role, st.Action, st.Benefit, st.Text(),
			domain.JoinCriteria(st.AcceptanceCriteria),
		})
	}
	return s
}

func uatSheet(cases []domain.UATCase) Sheet {
	s := Sheet{
		Name:    SheetUAT,
		Columns: []string{"Case ID", "Story ID", "Sequence", "Steps", "Expected Result", "Status"},
	}
	for _, c := range cases {
		s.Rows = append(s.Rows, []string{
			c.ID, c.StoryID, strconv.Itoa(c.Sequence), strings.Join(c.Steps, "\n"), c.ExpectedResult, string(c.Status),
		})
	}
	return s
}

func traceabilitySheet(m domain.TraceabilityMatrix) Sheet {
	s := Sheet{
		Name:    SheetTraceability,
		Columns: []string{"Requirement ID", "Story ID", "Case ID", "Case Status"},
	}
	for _, l := range m.Links {
		s.Rows = append(s.Rows, []string{l.RequirementID, l.StoryID, l.UATCaseID, string(l.CaseStatus)})
	}
	return s
}

func findingsSheet(findings []domain.ComplianceFinding) Sheet {
	s := Sheet{
		Name:    SheetFindings,
		Columns: []string{"Framework", "Rule", "Target", "Status", "Evidence", "Reason", "Run ID", "Evaluated At"},
	}
	for _, f := range findings {
		at := ""
		if !f.EvaluatedAt.IsZero() {
			at = f.EvaluatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		s.Rows = append(s.Rows, []string{
			f.Framework, f.RuleID, f.TargetID, string(f.Status), f.Evidence, f.Reason, f.RunID, at,
		})
	}
	return s
}
