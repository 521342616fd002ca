package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// Exporter renders a bundle into a file format. Output is a pure function
// of the bundle and the exporter's style configuration.
type Exporter interface {
	// Format returns the export format name (e.g. "markdown").
	Format() string

	// Extension returns the default file extension with dot.
	Extension() string

	// Export writes the rendered bundle to w.
	Export(ctx context.Context, bundle *domain.ExportBundle, w io.Writer) error
}

// PublishReport summarises a publish to a remote destination.
type PublishReport struct {
	Destination string
	Created     int
	Updated     int
	// URLs are destination-assigned locations, in publish order.
	URLs []string
}

// Publisher pushes a bundle to a remote destination.
type Publisher interface {
	// Name returns the destination name (e.g. "github").
	Name() string

	// Publish sends the bundle. Returns domain.ErrPublisherNotConfigured
	// when required settings are missing.
	Publish(ctx context.Context, bundle *domain.ExportBundle) (*PublishReport, error)
}
