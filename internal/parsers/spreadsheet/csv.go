package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure CSVParser implements the interface.
var _ driven.Parser = (*CSVParser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVParser reads comma-separated requirement exports with the same
// header schema as workbooks.
type CSVParser struct{}

// NewCSV creates a new CSV parser.
func NewCSV() *CSVParser {
	return &CSVParser{}
}

// Format returns the document format this parser reads.
func (p *CSVParser) Format() domain.DocumentFormat {
	return domain.FormatCSV
}

// Extensions returns the file extensions this parser handles.
func (p *CSVParser) Extensions() []string {
	return []string{".csv"}
}

// Parse reads every record of the CSV document. A record the reader rejects
// is kept as a malformed row so later rows still import.
func (p *CSVParser) Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(doc.Content, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows []numberedRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, numberedRow{Line: parseErr.StartLine, Err: parseErr.Err})
			continue
		}
		if err != nil {
			return nil, &domain.FormatError{Document: doc.Name, Format: domain.FormatCSV, Reason: "malformed csv", Err: err}
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, numberedRow{Line: line, Cells: record})
	}
	return decodeRows(doc, domain.FormatCSV, rows)
}
