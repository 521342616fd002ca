package driven

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// Parser turns one document of a known format into records.
// Parsers are pure and stateless: the same bytes give the same result.
type Parser interface {
	// Format returns the document format this parser reads.
	Format() domain.DocumentFormat

	// Extensions returns the file extensions (with dot) mapped to Format.
	Extensions() []string

	// Parse reads the document. A *domain.FormatError is returned when the
	// document cannot be opened or lacks required structure; malformed
	// rows are reported in ParseResult.Warnings instead.
	Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error)
}

// ParserRegistry selects the parser for a document.
type ParserRegistry interface {
	// Parse dispatches on the document's format, inferring it from the
	// name when unset. Unknown formats yield domain.ErrUnsupportedFormat.
	Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error)

	// Register adds a parser to the registry.
	Register(parser Parser)

	// SupportedFormats returns all formats that can be parsed.
	SupportedFormats() []domain.DocumentFormat
}
