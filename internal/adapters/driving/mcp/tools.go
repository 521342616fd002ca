package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// markdownFormat is the export format rendered by render_markdown.
const markdownFormat = "markdown"

// ImportInput is the input schema for the import_documents tool.
type ImportInput struct {
	Paths []string `json:"paths" jsonschema:"paths of .xlsx, .csv, .docx, .drawio or .xml documents to import"`
}

// DocumentOutput summarises one imported document.
type DocumentOutput struct {
	Document  string   `json:"document"`
	Imported  int      `json:"imported"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Nodes     int      `json:"nodes,omitempty"`
	Edges     int      `json:"edges,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ImportOutput is the output schema for the import_documents tool.
type ImportOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Imported  int              `json:"imported"`
	Failed    int              `json:"failed"`
}

// GenerateInput is the input schema for the generate tool.
type GenerateInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"what to generate: stories, uat or all (default all)"`
}

// GenerateOutput is the output schema for the generate tool.
type GenerateOutput struct {
	Stories   int      `json:"stories"`
	Cases     int      `json:"cases"`
	Preserved int      `json:"preserved"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateInput is the input schema for the validate tool.
type ValidateInput struct {
	Frameworks []string `json:"frameworks,omitempty" jsonschema:"frameworks to run (default all registered)"`
}

// RunOutput summarises one compliance run.
type RunOutput struct {
	Framework     string `json:"framework"`
	RunID         string `json:"run_id"`
	Rules         int    `json:"rules"`
	Targets       int    `json:"targets"`
	Pass          int    `json:"pass"`
	Fail          int    `json:"fail"`
	NotApplicable int    `json:"not_applicable"`
}

// ValidateOutput is the output schema for the validate tool.
type ValidateOutput struct {
	Runs []RunOutput `json:"runs"`
}

// RenderInput is the input schema for the render_markdown tool.
type RenderInput struct{}

// RenderOutput is the output schema for the render_markdown tool.
type RenderOutput struct {
	Markdown string `json:"markdown"`
}

// FindingsInput is the input schema for the list_findings tool.
type FindingsInput struct {
	Framework string `json:"framework,omitempty" jsonschema:"only this framework"`
	Status    string `json:"status,omitempty" jsonschema:"only this status: pass, fail or not_applicable"`
}

// FindingOutput is one compliance finding.
type FindingOutput struct {
	Framework string `json:"framework"`
	Rule      string `json:"rule"`
	Target    string `json:"target"`
	Status    string `json:"status"`
	Evidence  string `json:"evidence,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// FindingsOutput is the output schema for the list_findings tool.
type FindingsOutput struct {
	Findings []FindingOutput `json:"findings"`
	Count    int             `json:"count"`
}

// TraceInput is the input schema for the traceability tool.
type TraceInput struct{}

// LinkOutput is one traceability row.
type LinkOutput struct {
	Requirement string `json:"requirement"`
	Story       string `json:"story,omitempty"`
	Case        string `json:"case,omitempty"`
	CaseStatus  string `json:"case_status,omitempty"`
}

// TraceOutput is the output schema for the traceability tool.
type TraceOutput struct {
	Links        []LinkOutput `json:"links"`
	Requirements int          `json:"requirements"`
	WithStories  int          `json:"with_stories"`
	WithCases    int          `json:"with_cases"`
	Verified     int          `json:"verified"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "import_documents",
		Description: "Import requirements from spreadsheet, Word and draw.io documents",
	}, s.handleImport)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate",
		Description: "Regenerate user stories and UAT cases from the imported requirements",
	}, s.handleGenerate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate",
		Description: "Run compliance frameworks over every requirement and record the findings",
	}, s.handleValidate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_markdown",
		Description: "Render requirements, stories, UAT cases and findings as markdown",
	}, s.handleRenderMarkdown)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_findings",
		Description: "List the newest compliance findings",
	}, s.handleListFindings)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "traceability",
		Description: "Recompute the requirement to story to UAT case traceability matrix",
	}, s.handleTraceability)
}

func (s *Server) handleImport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportInput,
) (*mcp.CallToolResult, ImportOutput, error) {
	if len(input.Paths) == 0 {
		return nil, ImportOutput{}, fmt.Errorf("%w: paths is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.Import.ImportFiles(ctx, input.Paths)
	if err != nil {
		return nil, ImportOutput{}, err
	}

	output := ImportOutput{
		Documents: make([]DocumentOutput, len(result.Documents)),
		Imported:  result.Imported(),
		Failed:    result.Failed(),
	}
	for i, d := range result.Documents {
		doc := DocumentOutput{
			Document:  d.Document,
			Imported:  d.Imported,
			Unchanged: d.Unchanged,
			Skipped:   d.Skipped,
			Nodes:     d.Nodes,
			Edges:     d.Edges,
		}
		for _, w := range d.Warnings {
			doc.Warnings = append(doc.Warnings, w.Error())
		}
		if d.Err != nil {
			doc.Error = d.Err.Error()
		}
		output.Documents[i] = doc
	}
	return nil, output, nil
}

func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	var output GenerateOutput
	kind := input.Kind
	if kind == "" {
		kind = "all"
	}
	if kind != "all" && kind != "stories" && kind != "uat" {
		return nil, output, fmt.Errorf("%w: kind must be stories, uat or all", domain.ErrInvalidInput)
	}

	if kind != "uat" {
		res, err := s.ports.Generation.GenerateStories(ctx)
		if err != nil {
			return nil, output, err
		}
		output.Stories = res.Generated
		output.Errors = appendMappingErrors(output.Errors, res)
	}
	if kind != "stories" {
		res, err := s.ports.Generation.GenerateUAT(ctx)
		if err != nil {
			return nil, output, err
		}
		output.Cases = res.Generated
		output.Preserved = res.Preserved
		output.Errors = appendMappingErrors(output.Errors, res)
	}
	return nil, output, nil
}

func appendMappingErrors(out []string, res *domain.GenerationResult) []string {
	for _, e := range res.Errors {
		out = append(out, e.Error())
	}
	return out
}

func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	frameworks := input.Frameworks
	if len(frameworks) == 0 {
		for _, f := range s.ports.Compliance.Frameworks() {
			frameworks = append(frameworks, f.Name)
		}
	}

	runs, err := s.ports.Compliance.ValidateAll(ctx, frameworks)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	output := ValidateOutput{Runs: make([]RunOutput, len(runs))}
	for i, run := range runs {
		output.Runs[i] = RunOutput{
			Framework:     run.Framework,
			RunID:         run.ID,
			Rules:         run.RuleCount,
			Targets:       run.Targets,
			Pass:          run.Summary.Pass,
			Fail:          run.Summary.Fail,
			NotApplicable: run.Summary.NotApplicable,
		}
	}
	return nil, output, nil
}

func (s *Server) handleRenderMarkdown(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RenderInput,
) (*mcp.CallToolResult, RenderOutput, error) {
	var buf bytes.Buffer
	if err := s.ports.Export.Export(ctx, markdownFormat, &buf); err != nil {
		return nil, RenderOutput{}, err
	}
	return nil, RenderOutput{Markdown: buf.String()}, nil
}

func (s *Server) handleListFindings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindingsInput,
) (*mcp.CallToolResult, FindingsOutput, error) {
	status := domain.FindingStatus(input.Status)
	if status != "" && !status.IsValid() {
		return nil, FindingsOutput{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, input.Status)
	}

	findings, err := s.ports.Compliance.Findings(ctx, input.Framework)
	if err != nil {
		return nil, FindingsOutput{}, err
	}

	output := FindingsOutput{Findings: []FindingOutput{}}
	for _, f := range findings {
		if status != "" && f.Status != status {
			continue
		}
		output.Findings = append(output.Findings, FindingOutput{
			Framework: f.Framework,
			Rule:      f.RuleID,
			Target:    f.TargetID,
			Status:    string(f.Status),
			Evidence:  f.Evidence,
			Reason:    f.Reason,
		})
	}
	output.Count = len(output.Findings)
	return nil, output, nil
}

func (s *Server) handleTraceability(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ TraceInput,
) (*mcp.CallToolResult, TraceOutput, error) {
	matrix, err := s.ports.Generation.Traceability(ctx)
	if err != nil {
		return nil, TraceOutput{}, err
	}

	output := TraceOutput{
		Links:        make([]LinkOutput, len(matrix.Links)),
		Requirements: matrix.Coverage.Requirements,
		WithStories:  matrix.Coverage.WithStories,
		WithCases:    matrix.Coverage.WithCases,
		Verified:     matrix.Coverage.Verified,
	}
	for i, l := range matrix.Links {
		output.Links[i] = LinkOutput{
			Requirement: l.RequirementID,
			Story:       l.StoryID,
			Case:        l.UATCaseID,
			CaseStatus:  string(l.CaseStatus),
		}
	}
	return nil, output, nil
}
