// Package spreadsheet parses requirement workbooks (.xlsx) and CSV exports.
//
// The first non-blank row is the header and must bind the id, description
// and priority fields. Every following non-blank row is one requirement.
package spreadsheet

import (
	"bytes"
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// PreferredSheet is read when present; otherwise the first sheet is used.
const PreferredSheet = "Requirements"

// Parser reads .xlsx workbooks.
type Parser struct{}

// New creates a new workbook parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the document format this parser reads.
func (p *Parser) Format() domain.DocumentFormat {
	return domain.FormatSpreadsheet
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Parse reads the requirements sheet of a workbook.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, &domain.FormatError{
			Document: doc.Name, Format: domain.FormatSpreadsheet, Reason: "cannot open workbook", Err: err,
		}
	}
	defer f.Close()

	sheet := pickSheet(f.GetSheetList())
	if sheet == "" {
		return nil, &domain.FormatError{Document: doc.Name, Format: domain.FormatSpreadsheet, Reason: "workbook has no sheets"}
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, &domain.FormatError{
			Document: doc.Name, Format: domain.FormatSpreadsheet, Reason: "cannot read sheet " + sheet, Err: err,
		}
	}

	rows := make([]numberedRow, len(raw))
	for i, cells := range raw {
		rows[i] = numberedRow{Line: i + 1, Cells: cells}
	}
	return decodeRows(doc, domain.FormatSpreadsheet, rows)
}

// pickSheet prefers the requirements sheet, matched case-insensitively.
func pickSheet(sheets []string) string {
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), PreferredSheet) {
			return s
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}
