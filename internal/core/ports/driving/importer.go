package driving

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// ImportService parses documents and persists their records.
type ImportService interface {
	// Import parses and persists each document in order. A document that
	// fails as a whole is reported in its DocumentResult and the batch
	// continues with the next document.
	Import(ctx context.Context, docs []domain.SourceDocument) (*domain.ImportResult, error)

	// ImportFiles reads the files at paths and imports them.
	// Unreadable files are reported as failed documents.
	ImportFiles(ctx context.Context, paths []string) (*domain.ImportResult, error)
}
