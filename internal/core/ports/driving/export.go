package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// ExportService renders and publishes the current record set.
type ExportService interface {
	// Bundle loads the current record set.
	Bundle(ctx context.Context) (*domain.ExportBundle, error)

	// Formats lists the registered export formats.
	Formats() []string

	// Export renders the record set in format to w.
	Export(ctx context.Context, format string, w io.Writer) error

	// ExportFile renders the record set in format to path.
	ExportFile(ctx context.Context, format, path string) error

	// Destinations lists the registered publishers.
	Destinations() []string

	// Publish pushes the record set to a destination.
	Publish(ctx context.Context, destination string) (*driven.PublishReport, error)
}
