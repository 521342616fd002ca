package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat identifies an input document layout.
type DocumentFormat string

// Supported input formats.
const (
	FormatSpreadsheet DocumentFormat = "spreadsheet"
	FormatCSV         DocumentFormat = "csv"
	FormatDocx        DocumentFormat = "docx"
	FormatDiagram     DocumentFormat = "diagram"
)

// FormatFromPath guesses the format from a file extension.
// Returns "" for unknown extensions.
func FormatFromPath(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatSpreadsheet
	case ".csv":
		return FormatCSV
	case ".docx":
		return FormatDocx
	case ".drawio", ".xml":
		return FormatDiagram
	default:
		return ""
	}
}

// SourceDocument is the raw input handed to a parser.
type SourceDocument struct {
	// Name is the document reference recorded on imported records.
	Name string

	// Format selects the parser. Empty means infer from Name.
	Format DocumentFormat

	Content []byte
}

// ParseResult is a parser's output: records in document order plus the
// row-level warnings for records that were skipped.
type ParseResult struct {
	Requirements []Requirement
	Nodes        []DiagramNode
	Edges        []DiagramEdge
	Warnings     []*RowError

	// Positions maps a requirement id to its 1-based row or section number.
	Positions map[string]int
}

// AddRequirement appends req and records where it was found.
func (r *ParseResult) AddRequirement(req Requirement, position int) {
	r.Requirements = append(r.Requirements, req)
	if r.Positions == nil {
		r.Positions = make(map[string]int)
	}
	r.Positions[req.ID] = position
}

// DocumentResult is the import outcome for one document.
type DocumentResult struct {
	Document string
	Format   DocumentFormat

	Imported  int
	Unchanged int
	Skipped   int
	Nodes     int
	Edges     int

	Warnings []*RowError

	// Err is set when the document failed as a whole.
	Err error
}

// Failed reports whether the document aborted.
func (r DocumentResult) Failed() bool {
	return r.Err != nil
}

// ImportResult aggregates a batch of documents.
type ImportResult struct {
	Documents []DocumentResult
}

// Imported returns the total records imported across documents.
func (r ImportResult) Imported() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Imported
	}
	return n
}

// Skipped returns the total records skipped across documents.
func (r ImportResult) Skipped() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Skipped
	}
	return n
}

// Failed returns the number of documents that aborted.
func (r ImportResult) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Failed() {
			n++
		}
	}
	return n
}

// AllFailed reports whether every document in a non-empty batch aborted.
func (r ImportResult) AllFailed() bool {
	return len(r.Documents) > 0 && r.Failed() == len(r.Documents)
}

// GenerationResult reports derived records produced and mapping errors.
type GenerationResult struct {
	Generated int
	Preserved int
	Errors    []*MappingError
}

// ComplianceTarget is the read-only view a rule evaluates: one requirement
// with the stories and cases that trace back to it.
type ComplianceTarget struct {
	Requirement Requirement
	Stories     []UserStory
	Cases       []UATCase
}

// ExportBundle is the record set handed to formatters and publishers.
type ExportBundle struct {
	Requirements []Requirement
	Stories      []UserStory
	Cases        []UATCase
	Matrix       TraceabilityMatrix
	Findings     []ComplianceFinding
}

// StoriesFor returns the stories linked to a requirement, in bundle order.
func (b ExportBundle) StoriesFor(requirementID string) []UserStory {
	var out []UserStory
	for _, s := range b.Stories {
		if s.Links(requirementID) {
			out = append(out, s)
		}
	}
	return out
}

// CasesFor returns the cases of a story, in bundle order.
func (b ExportBundle) CasesFor(storyID string) []UATCase {
	var out []UATCase
	for _, c := range b.Cases {
		if c.StoryID == storyID {
			out = append(out, c)
		}
	}
	return out
}
