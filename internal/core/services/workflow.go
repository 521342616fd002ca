package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Workflow names.
const (
	WorkflowImport         = "import"
	WorkflowStories        = "stories"
	WorkflowUAT            = "uat"
	WorkflowTrace          = "trace"
	WorkflowValidate       = "validate"
	WorkflowExportMarkdown = "export-markdown"
	WorkflowExportXLSX     = "export-xlsx"
	WorkflowPublishGitHub  = "publish-github"
	WorkflowPublishNotion  = "publish-notion"
	WorkflowPublishSheets  = "publish-sheets"
	WorkflowFull           = "full"
)

// Export formats and destinations the workflows refer to.
const (
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"

	DestinationGitHub = "github"
	DestinationNotion = "notion"
	DestinationSheets = "sheets"
)

// Default file names written by the full workflow into its output directory.
const (
	MarkdownFile = "requirements.md"
	WorkbookFile = "requirements.xlsx"
)

// ErrImportFailed is returned when every document of an import failed.
var ErrImportFailed = errors.New("every document failed to import")

var workflowOrder = []string{
	WorkflowImport,
	WorkflowStories,
	WorkflowUAT,
	WorkflowTrace,
	WorkflowValidate,
	WorkflowExportMarkdown,
	WorkflowExportXLSX,
	WorkflowPublishGitHub,
	WorkflowPublishNotion,
	WorkflowPublishSheets,
	WorkflowFull,
}

// Ensure WorkflowRunner implements the interface.
var _ driving.WorkflowRunner = (*WorkflowRunner)(nil)

// WorkflowRunner runs the named pipelines. Steps run one after another and
// the first failing step stops the workflow.
type WorkflowRunner struct {
	importer   driving.ImportService
	generator  driving.GenerationService
	compliance driving.ComplianceService
	exporter   driving.ExportService
	frameworks []string
}

// NewWorkflowRunner creates a workflow runner. frameworks are validated
// when a request names none.
func NewWorkflowRunner(
	importer driving.ImportService,
	generator driving.GenerationService,
	compliance driving.ComplianceService,
	exporter driving.ExportService,
	frameworks []string,
) *WorkflowRunner {
	return &WorkflowRunner{
		importer:   importer,
		generator:  generator,
		compliance: compliance,
		exporter:   exporter,
		frameworks: frameworks,
	}
}

// Workflows lists the workflow names.
func (r *WorkflowRunner) Workflows() []string {
	return append([]string(nil), workflowOrder...)
}

// Run executes a workflow.
func (r *WorkflowRunner) Run(ctx context.Context, name string, req driving.WorkflowRequest) (*driving.WorkflowReport, error) {
	report := &driving.WorkflowReport{Workflow: name}

	var steps []func(context.Context, *driving.WorkflowReport) error
	switch name {
	case WorkflowImport:
		if len(req.Inputs) == 0 {
			return nil, fmt.Errorf("%w: import needs at least one input", domain.ErrInvalidInput)
		}
		steps = append(steps, r.importStep(req.Inputs))
	case WorkflowStories:
		steps = append(steps, r.storiesStep)
	case WorkflowUAT:
		steps = append(steps, r.uatStep)
	case WorkflowTrace:
		steps = append(steps, r.traceStep)
	case WorkflowValidate:
		steps = append(steps, r.validateStep(req.Frameworks))
	case WorkflowExportMarkdown, WorkflowExportXLSX:
		if req.Output == "" {
			return nil, fmt.Errorf("%w: %s needs an output path", domain.ErrInvalidInput, name)
		}
		format := FormatMarkdown
		if name == WorkflowExportXLSX {
			format = FormatXLSX
		}
		steps = append(steps, r.exportStep(format, req.Output))
	case WorkflowPublishGitHub:
		steps = append(steps, r.publishStep(DestinationGitHub))
	case WorkflowPublishNotion:
		steps = append(steps, r.publishStep(DestinationNotion))
	case WorkflowPublishSheets:
		steps = append(steps, r.publishStep(DestinationSheets))
	case WorkflowFull:
		if len(req.Inputs) > 0 {
			steps = append(steps, r.importStep(req.Inputs))
		}
		steps = append(steps, r.storiesStep, r.uatStep, r.traceStep, r.validateStep(req.Frameworks))
		if req.Output != "" {
			steps = append(steps,
				r.exportStep(FormatMarkdown, filepath.Join(req.Output, MarkdownFile)),
				r.exportStep(FormatXLSX, filepath.Join(req.Output, WorkbookFile)),
			)
		}
	default:
		return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownWorkflow)
	}

	logger.Section("workflow " + name)
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := step(ctx, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *WorkflowRunner) importStep(inputs []string) func(context.Context, *driving.WorkflowReport) error {
	return func(ctx context.Context, report *driving.WorkflowReport) error {
		report.Steps = append(report.Steps, WorkflowImport)
		paths, err := ExpandInputs(inputs)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("%w: no input matched %v", domain.ErrInvalidInput, inputs)
		}
		result, err := r.importer.ImportFiles(ctx, paths)
		report.Import = result
		if err != nil {
			return err
		}
		if result.AllFailed() {
			return ErrImportFailed
		}
		return nil
	}
}

func (r *WorkflowRunner) storiesStep(ctx context.Context, report *driving.WorkflowReport) error {
	report.Steps = append(report.Steps, WorkflowStories)
	result, err := r.generator.GenerateStories(ctx)
	report.Stories = result
	return err
}

func (r *WorkflowRunner) uatStep(ctx context.Context, report *driving.WorkflowReport) error {
	report.Steps = append(report.Steps, WorkflowUAT)
	result, err := r.generator.GenerateUAT(ctx)
	report.UAT = result
	return err
}

func (r *WorkflowRunner) traceStep(ctx context.Context, report *driving.WorkflowReport) error {
	report.Steps = append(report.Steps, WorkflowTrace)
	matrix, err := r.generator.Traceability(ctx)
	report.Matrix = matrix
	return err
}

func (r *WorkflowRunner) validateStep(frameworks []string) func(context.Context, *driving.WorkflowReport) error {
	if len(frameworks) == 0 {
		frameworks = r.frameworks
	}
	return func(ctx context.Context, report *driving.WorkflowReport) error {
		report.Steps = append(report.Steps, WorkflowValidate)
		runs, err := r.compliance.ValidateAll(ctx, frameworks)
		report.Runs = runs
		return err
	}
}

func (r *WorkflowRunner) exportStep(format, path string) func(context.Context, *driving.WorkflowReport) error {
	return func(ctx context.Context, report *driving.WorkflowReport) error {
		report.Steps = append(report.Steps, "export-"+format)
		if err := r.exporter.ExportFile(ctx, format, path); err != nil {
			return err
		}
		report.Outputs = append(report.Outputs, path)
		return nil
	}
}

func (r *WorkflowRunner) publishStep(destination string) func(context.Context, *driving.WorkflowReport) error {
	return func(ctx context.Context, report *driving.WorkflowReport) error {
		report.Steps = append(report.Steps, "publish-"+destination)
		result, err := r.exporter.Publish(ctx, destination)
		report.Publishing = result
		return err
	}
}
