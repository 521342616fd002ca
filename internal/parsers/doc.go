// Package parsers provides the parser registry and its default set.
//
// Each sub-package reads one document format into domain records:
//
//   - spreadsheet: .xlsx workbooks and .csv exports (one row per requirement)
//   - docx: Word documents (one heading-delimited section per requirement)
//   - drawio: draw.io diagrams (labelled shapes and connecting edges)
//
// Parsers are stateless. The same bytes always give the same result.
package parsers
