package spreadsheet

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// Field is a requirement attribute a column can map to.
type Field string

// Recognised fields.
const (
	FieldID          Field = "id"
	FieldDescription Field = "description"
	FieldPriority    Field = "priority"
	FieldCategory    Field = "category"
	FieldFeature     Field = "feature"
	FieldCriteria    Field = "acceptance_criteria"
	FieldRationale   Field = "rationale"
	FieldStatus      Field = "status"
)

// RequiredFields must each be bound to a header column.
var RequiredFields = []Field{FieldID, FieldDescription, FieldPriority}

// Columns is the canonical header order written by the spreadsheet
// formatter. Re-importing a workbook with these headers binds every field.
var Columns = []struct {
	Field  Field
	Header string
}{
	{FieldID, "ID"},
	{FieldDescription, "Description"},
	{FieldPriority, "Priority"},
	{FieldCategory, "Category"},
	{FieldFeature, "Feature"},
	{FieldCriteria, "Acceptance Criteria"},
	{FieldRationale, "Rationale"},
	{FieldStatus, "Status"},
}

// headerAliases maps normalised header text to fields.
var headerAliases = map[string]Field{
	"id":                 FieldID,
	"reqid":              FieldID,
	"requirementid":      FieldID,
	"description":        FieldDescription,
	"requirement":        FieldDescription,
	"text":               FieldDescription,
	"priority":           FieldPriority,
	"category":           FieldCategory,
	"feature":            FieldFeature,
	"featuretag":         FieldFeature,
	"epic":               FieldFeature,
	"acceptancecriteria": FieldCriteria,
	"ac":                 FieldCriteria,
	"rationale":          FieldRationale,
	"benefit":            FieldRationale,
	"status":             FieldStatus,
}

// normaliseHeader lower-cases and drops everything but letters and digits.
func normaliseHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// schema is a validated header row: field -> column index.
type schema map[Field]int

// bindHeader validates a header row against the field aliases. Unknown
// columns are ignored.
func bindHeader(header []string) (schema, error) {
	s := make(schema)
	names := make(map[Field]string)
	for i, h := range header {
		field, ok := headerAliases[normaliseHeader(h)]
		if !ok {
			continue
		}
		if prev, dup := names[field]; dup {
			return nil, fmt.Errorf("columns %q and %q both map to %s", prev, strings.TrimSpace(h), field)
		}
		s[field] = i
		names[field] = strings.TrimSpace(h)
	}

	var missing []string
	for _, f := range RequiredFields {
		if _, ok := s[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return s, nil
}

// cell returns the trimmed value of a field, or "" when unbound or absent.
func (s schema) cell(row []string, f Field) string {
	i, ok := s[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rawCell returns the cell untrimmed, keeping line breaks that carry meaning.
func (s schema) rawCell(row []string, f Field) string {
	i, ok := s[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// numberedRow is a raw row with its 1-based position in the sheet.
type numberedRow struct {
	Line  int
	Cells []string
	// Err is set when the record could not be read; Cells is then empty.
	Err error
}

func (r numberedRow) blank() bool {
	return r.Err == nil && isBlank(r.Cells)
}

// decodeRows binds the first non-blank row as the header and converts the
// remaining rows into requirements.
func decodeRows(doc *domain.SourceDocument, format domain.DocumentFormat, rows []numberedRow) (*domain.ParseResult, error) {
	start := -1
	for i, r := range rows {
		if !r.blank() {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, &domain.FormatError{Document: doc.Name, Format: format, Reason: "no header row"}
	}

	if err := rows[start].Err; err != nil {
		return nil, &domain.FormatError{Document: doc.Name, Format: format, Reason: "malformed header row", Err: err}
	}

	sch, err := bindHeader(rows[start].Cells)
	if err != nil {
		return nil, &domain.FormatError{Document: doc.Name, Format: format, Reason: "invalid header", Err: err}
	}

	result := &domain.ParseResult{}
	seen := make(map[string]int)
	for _, r := range rows[start+1:] {
		if r.blank() {
			continue
		}
		if r.Err != nil {
			result.Warnings = append(result.Warnings, &domain.RowError{
				Document: doc.Name, Row: r.Line, Reason: "malformed record: " + r.Err.Error(),
			})
			continue
		}
		req, rowErr := decodeRow(doc.Name, sch, r)
		if rowErr != nil {
			result.Warnings = append(result.Warnings, rowErr)
			continue
		}
		if first, dup := seen[req.ID]; dup {
			result.Warnings = append(result.Warnings, &domain.RowError{
				Document: doc.Name, Row: r.Line, RecordID: req.ID,
				Reason: fmt.Sprintf("duplicate id, first seen on row %d", first),
			})
			continue
		}
		seen[req.ID] = r.Line
		result.AddRequirement(req, r.Line)
	}
	return result, nil
}

func decodeRow(docName string, sch schema, r numberedRow) (domain.Requirement, *domain.RowError) {
	id := sch.cell(r.Cells, FieldID)
	rowErr := func(reason string) *domain.RowError {
		return &domain.RowError{Document: docName, Row: r.Line, RecordID: id, Reason: reason}
	}

	if id == "" {
		return domain.Requirement{}, rowErr("missing id")
	}
	desc := sch.cell(r.Cells, FieldDescription)
	if desc == "" {
		return domain.Requirement{}, rowErr("missing description")
	}

	rawPriority := sch.cell(r.Cells, FieldPriority)
	priority, ok := domain.ParsePriority(rawPriority)
	if !ok {
		return domain.Requirement{}, rowErr(fmt.Sprintf("unknown priority %q", rawPriority))
	}

	status := domain.RequirementStatusImported
	if raw := sch.cell(r.Cells, FieldStatus); raw != "" {
		status = domain.RequirementStatus(strings.ToLower(raw))
		if !status.IsValid() {
			return domain.Requirement{}, rowErr(fmt.Sprintf("unknown status %q", raw))
		}
	}

	return domain.Requirement{
		ID:                 id,
		SourceRef:          docName,
		Description:        desc,
		Category:           sch.cell(r.Cells, FieldCategory),
		Priority:           priority,
		FeatureTag:         sch.cell(r.Cells, FieldFeature),
		AcceptanceCriteria: domain.SplitCriteria(sch.rawCell(r.Cells, FieldCriteria)),
		Rationale:          sch.cell(r.Cells, FieldRationale),
		Status:             status,
	}, nil
}
