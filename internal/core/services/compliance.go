package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Ensure ComplianceService implements the interface.
var _ driving.ComplianceService = (*ComplianceService)(nil)

// ComplianceService runs framework validators over the stored records and
// appends their findings to the history.
type ComplianceService struct {
	catalog driven.FrameworkCatalog
	stores  Stores
	now     func() time.Time
}

// NewComplianceService creates a compliance service.
func NewComplianceService(catalog driven.FrameworkCatalog, stores Stores) *ComplianceService {
	return &ComplianceService{
		catalog: catalog,
		stores:  stores,
		now:     time.Now,
	}
}

// Frameworks lists the registered frameworks.
func (s *ComplianceService) Frameworks() []driving.FrameworkInfo {
	names := s.catalog.Frameworks()
	infos := make([]driving.FrameworkInfo, 0, len(names))
	for _, name := range names {
		v, err := s.catalog.Validator(name)
		if err != nil {
			continue
		}
		infos = append(infos, driving.FrameworkInfo{Name: name, Rules: len(v.Rules())})
	}
	return infos
}

// Validate runs one framework over every requirement and records a run.
func (s *ComplianceService) Validate(ctx context.Context, framework string) (*domain.ComplianceRun, error) {
	v, err := s.catalog.Validator(framework)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, v)
}

// ValidateAll runs each framework in order.
func (s *ComplianceService) ValidateAll(ctx context.Context, frameworks []string) ([]domain.ComplianceRun, error) {
	validators := make([]driven.Validator, 0, len(frameworks))
	for _, name := range frameworks {
		v, err := s.catalog.Validator(name)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}

	runs := make([]domain.ComplianceRun, 0, len(validators))
	for _, v := range validators {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		run, err := s.run(ctx, v)
		if err != nil {
			return runs, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func (s *ComplianceService) run(ctx context.Context, v driven.Validator) (*domain.ComplianceRun, error) {
	targets, err := loadTargets(ctx, s.stores)
	if err != nil {
		return nil, err
	}

	started := s.now().UTC()
	findings := v.Validate(targets)

	run := domain.ComplianceRun{
		ID:        uuid.NewString(),
		Framework: v.Framework(),
		StartedAt: started,
		RuleCount: len(v.Rules()),
		Targets:   len(targets),
		Summary:   domain.Summarise(findings),
	}
	for i := range findings {
		findings[i].ID = uuid.NewString()
		findings[i].RunID = run.ID
		findings[i].EvaluatedAt = started
	}

	if err := s.stores.Findings.SaveRun(ctx, run, findings); err != nil {
		return nil, fmt.Errorf("record %s run: %w", run.Framework, err)
	}

	logger.Info("%s: %d pass, %d fail, %d not applicable across %d requirements",
		run.Framework, run.Summary.Pass, run.Summary.Fail, run.Summary.NotApplicable, run.Targets)
	return &run, nil
}

// Findings returns the newest run's findings for a framework, or for every
// framework when framework is empty.
func (s *ComplianceService) Findings(ctx context.Context, framework string) ([]domain.ComplianceFinding, error) {
	frameworks := []string{framework}
	if framework == "" {
		frameworks = s.catalog.Frameworks()
	} else if _, err := s.catalog.Validator(framework); err != nil {
		return nil, err
	}

	var out []domain.ComplianceFinding
	for _, name := range frameworks {
		findings, err := s.stores.Findings.LatestByFramework(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("findings for %s: %w", name, err)
		}
		out = append(out, findings...)
	}
	return out, nil
}

// TestPlan renders the literal test scenarios for a framework.
func (s *ComplianceService) TestPlan(framework string) (string, error) {
	v, err := s.catalog.Validator(framework)
	if err != nil {
		return "", err
	}
	return v.TestPlan(), nil
}
