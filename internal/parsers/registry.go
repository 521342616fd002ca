package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/parsers/docx"
	"github.com/custodia-labs/reqtrace/internal/parsers/drawio"
	"github.com/custodia-labs/reqtrace/internal/parsers/spreadsheet"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps document formats and file extensions to parsers.
type Registry struct {
	byFormat    map[domain.DocumentFormat]driven.Parser
	byExtension map[string]domain.DocumentFormat
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		byFormat:    make(map[domain.DocumentFormat]driven.Parser),
		byExtension: make(map[string]domain.DocumentFormat),
	}
}

// NewDefaultRegistry creates a registry with all built-in parsers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers all built-in parsers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(spreadsheet.New())
	r.Register(spreadsheet.NewCSV())
	r.Register(docx.New())
	r.Register(drawio.New())
}

// Register adds a parser. A later registration for the same format wins.
func (r *Registry) Register(parser driven.Parser) {
	r.byFormat[parser.Format()] = parser
	for _, ext := range parser.Extensions() {
		r.byExtension[strings.ToLower(ext)] = parser.Format()
	}
}

// Resolve returns the parser for a document, inferring the format from the
// document name when unset.
func (r *Registry) Resolve(doc *domain.SourceDocument) (driven.Parser, error) {
	format := doc.Format
	if format == "" {
		ext := strings.ToLower(filepath.Ext(doc.Name))
		format = r.byExtension[ext]
	}
	parser, ok := r.byFormat[format]
	if !ok {
		return nil, fmt.Errorf("%s: %w", doc.Name, domain.ErrUnsupportedFormat)
	}
	return parser, nil
}

// Parse dispatches the document to its parser.
func (r *Registry) Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	parser, err := r.Resolve(doc)
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, doc)
}

// SupportedFormats returns all registered formats in sorted order.
func (r *Registry) SupportedFormats() []domain.DocumentFormat {
	formats := make([]domain.DocumentFormat, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Extensions returns all registered file extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
