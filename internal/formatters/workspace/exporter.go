package workspace

import (
	"context"
	"encoding/json"
	"io"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure Exporter implements the interface.
var _ driven.Exporter = (*Exporter)(nil)

// DefaultTitle is the page title used when none is configured.
const DefaultTitle = "Requirements traceability"

// Exporter writes workspace pages as JSON, the shape the Notion publisher
// sends.
type Exporter struct {
	title string
}

// New creates a workspace exporter. An empty title uses DefaultTitle.
func New(title string) *Exporter {
	if title == "" {
		title = DefaultTitle
	}
	return &Exporter{title: title}
}

// Format returns "workspace".
func (e *Exporter) Format() string {
	return "workspace"
}

// Extension returns ".json".
func (e *Exporter) Extension() string {
	return ".json"
}

// Export writes the pages as indented JSON.
func (e *Exporter) Export(ctx context.Context, bundle *domain.ExportBundle, w io.Writer) error {
	if bundle == nil {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildPages(bundle, e.title))
}
