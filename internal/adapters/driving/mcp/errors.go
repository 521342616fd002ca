// Package mcp provides an MCP (Model Context Protocol) server adapter for reqtrace.
// It lets AI assistants import documents, run the pipeline and read findings.
package mcp

import "errors"

var (
	// ErrMissingImportService is returned when the import service is not provided.
	ErrMissingImportService = errors.New("mcp: import service is required")

	// ErrMissingGenerationService is returned when the generation service is not provided.
	ErrMissingGenerationService = errors.New("mcp: generation service is required")

	// ErrMissingComplianceService is returned when the compliance service is not provided.
	ErrMissingComplianceService = errors.New("mcp: compliance service is required")

	// ErrMissingExportService is returned when the export service is not provided.
	ErrMissingExportService = errors.New("mcp: export service is required")
)
