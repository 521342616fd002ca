package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
)

// mockImportService is a mock implementation of driving.ImportService.
type mockImportService struct {
	result *domain.ImportResult
	err    error
	paths  []string
}

func (m *mockImportService) Import(_ context.Context, _ []domain.SourceDocument) (*domain.ImportResult, error) {
	return m.result, m.err
}

func (m *mockImportService) ImportFiles(_ context.Context, paths []string) (*domain.ImportResult, error) {
	m.paths = paths
	return m.result, m.err
}

// mockGenerationService is a mock implementation of driving.GenerationService.
type mockGenerationService struct {
	stories *domain.GenerationResult
	cases   *domain.GenerationResult
	matrix  *domain.TraceabilityMatrix
	err     error
	calls   []string
}

func (m *mockGenerationService) GenerateStories(_ context.Context) (*domain.GenerationResult, error) {
	m.calls = append(m.calls, "stories")
	if m.stories == nil {
		return &domain.GenerationResult{}, m.err
	}
	return m.stories, m.err
}

func (m *mockGenerationService) GenerateUAT(_ context.Context) (*domain.GenerationResult, error) {
	m.calls = append(m.calls, "uat")
	if m.cases == nil {
		return &domain.GenerationResult{}, m.err
	}
	return m.cases, m.err
}

func (m *mockGenerationService) Traceability(_ context.Context) (*domain.TraceabilityMatrix, error) {
	if m.matrix == nil {
		return &domain.TraceabilityMatrix{}, m.err
	}
	return m.matrix, m.err
}

// mockComplianceService is a mock implementation of driving.ComplianceService.
type mockComplianceService struct {
	frameworks []driving.FrameworkInfo
	runs       []domain.ComplianceRun
	findings   []domain.ComplianceFinding
	err        error
	ran        []string
}

func (m *mockComplianceService) Frameworks() []driving.FrameworkInfo {
	return m.frameworks
}

func (m *mockComplianceService) Validate(_ context.Context, framework string) (*domain.ComplianceRun, error) {
	m.ran = append(m.ran, framework)
	return &domain.ComplianceRun{Framework: framework}, m.err
}

func (m *mockComplianceService) ValidateAll(_ context.Context, frameworks []string) ([]domain.ComplianceRun, error) {
	m.ran = append(m.ran, frameworks...)
	return m.runs, m.err
}

func (m *mockComplianceService) Findings(_ context.Context, _ string) ([]domain.ComplianceFinding, error) {
	return m.findings, m.err
}

func (m *mockComplianceService) TestPlan(_ string) (string, error) {
	return "", m.err
}

// mockExportService is a mock implementation of driving.ExportService.
type mockExportService struct {
	rendered string
	err      error
	format   string
}

func (m *mockExportService) Bundle(_ context.Context) (*domain.ExportBundle, error) {
	return &domain.ExportBundle{}, m.err
}

func (m *mockExportService) Formats() []string { return []string{"markdown"} }

func (m *mockExportService) Export(_ context.Context, format string, w io.Writer) error {
	m.format = format
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.rendered)
	return err
}

func (m *mockExportService) ExportFile(_ context.Context, _, _ string) error { return m.err }

func (m *mockExportService) Destinations() []string { return nil }

func (m *mockExportService) Publish(_ context.Context, _ string) (*driven.PublishReport, error) {
	return nil, m.err
}

// mockRecordService is a mock implementation of driving.RecordService.
type mockRecordService struct {
	requirements []domain.Requirement
	target       *domain.ComplianceTarget
	err          error
}

func (m *mockRecordService) Requirements(_ context.Context) ([]domain.Requirement, error) {
	return m.requirements, m.err
}

func (m *mockRecordService) Requirement(_ context.Context, _ string) (*domain.ComplianceTarget, error) {
	return m.target, m.err
}

func (m *mockRecordService) Stories(_ context.Context) ([]domain.UserStory, error) { return nil, m.err }

func (m *mockRecordService) Cases(_ context.Context) ([]domain.UATCase, error) { return nil, m.err }

func (m *mockRecordService) SetRequirementStatus(_ context.Context, _ string, _ domain.RequirementStatus) error {
	return m.err
}

func (m *mockRecordService) SetCaseStatus(_ context.Context, _ string, _ domain.UATStatus) error {
	return m.err
}

// newTestPorts returns ports backed by empty mocks.
func newTestPorts() *Ports {
	return &Ports{
		Import:     &mockImportService{result: &domain.ImportResult{}},
		Generation: &mockGenerationService{},
		Compliance: &mockComplianceService{},
		Export:     &mockExportService{},
	}
}
