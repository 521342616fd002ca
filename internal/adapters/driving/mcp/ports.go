package mcp

import (
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	Import     driving.ImportService
	Generation driving.GenerationService
	Compliance driving.ComplianceService
	Export     driving.ExportService

	// Records backs the requirement resources. Optional.
	Records driving.RecordService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Import == nil:
		return ErrMissingImportService
	case p.Generation == nil:
		return ErrMissingGenerationService
	case p.Compliance == nil:
		return ErrMissingComplianceService
	case p.Export == nil:
		return ErrMissingExportService
	}
	return nil
}
