package cli

import (
	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/services"
)

// SessionDeps are the adapters a session is assembled from.
type SessionDeps struct {
	Stores     services.Stores
	Settings   domain.AppSettings
	Parsers    driven.ParserRegistry
	Catalog    driven.FrameworkCatalog
	Exporters  []driven.Exporter
	Publishers []driven.Publisher

	// Close releases the stores. May be nil.
	Close func() error
}

// NewSession wires the core services over one set of stores.
func NewSession(d SessionDeps) *Session {
	importer := services.NewImportService(d.Parsers, d.Stores.Requirements, d.Stores.Diagrams)
	generation := services.NewGenerationService(d.Stores, d.Settings.Stories)
	compliance := services.NewComplianceService(d.Catalog, d.Stores)
	export := services.NewExportService(d.Stores, d.Exporters, d.Publishers)

	return &Session{
		Import:     importer,
		Generation: generation,
		Compliance: compliance,
		Export:     export,
		Records:    services.NewRecordService(d.Stores),
		Workflows:  services.NewWorkflowRunner(importer, generation, compliance, export, d.Settings.Compliance.Frameworks),
		Close:      d.Close,
	}
}
