package driving

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// WorkflowRequest carries the inputs of a named workflow.
type WorkflowRequest struct {
	// Inputs are document paths for workflows that import.
	Inputs []string

	// Output is the destination path for workflows that export.
	Output string

	// Frameworks overrides the configured frameworks for validation.
	Frameworks []string
}

// WorkflowReport collects the outcome of every step that ran.
type WorkflowReport struct {
	Workflow string
	Steps    []string

	Import     *domain.ImportResult
	Stories    *domain.GenerationResult
	UAT        *domain.GenerationResult
	Matrix     *domain.TraceabilityMatrix
	Runs       []domain.ComplianceRun
	Outputs    []string
	Publishing *driven.PublishReport
}

// WorkflowRunner runs end-to-end pipelines by name.
type WorkflowRunner interface {
	// Workflows lists the workflow names.
	Workflows() []string

	// Run executes a workflow. Unknown names yield domain.ErrUnknownWorkflow.
	Run(ctx context.Context, name string, req WorkflowRequest) (*WorkflowReport, error)
}
