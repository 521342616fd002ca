package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
)

// Stores groups the connection-scoped record accessors of one open store.
type Stores struct {
	Requirements driven.RequirementStore
	Stories      driven.StoryStore
	Cases        driven.UATStore
	Traceability driven.TraceabilityStore
	Findings     driven.FindingStore
	Diagrams     driven.DiagramStore
}

// Ensure RecordService implements the interface.
var _ driving.RecordService = (*RecordService)(nil)

// RecordService reads records and updates their status fields.
type RecordService struct {
	stores Stores
}

// NewRecordService creates a record service.
func NewRecordService(stores Stores) *RecordService {
	return &RecordService{stores: stores}
}

// Requirements lists all requirements.
func (s *RecordService) Requirements(ctx context.Context) ([]domain.Requirement, error) {
	return s.stores.Requirements.List(ctx)
}

// Requirement returns one requirement with its stories and cases.
func (s *RecordService) Requirement(ctx context.Context, id string) (*domain.ComplianceTarget, error) {
	req, err := s.stores.Requirements.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stories, err := s.stores.Stories.ListByRequirement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	target := &domain.ComplianceTarget{Requirement: *req, Stories: stories}
	for _, story := range stories {
		cases, err := s.stores.Cases.ListByStory(ctx, story.ID)
		if err != nil {
			return nil, fmt.Errorf("list cases: %w", err)
		}
		target.Cases = append(target.Cases, cases...)
	}
	return target, nil
}

// Stories lists all stories.
func (s *RecordService) Stories(ctx context.Context) ([]domain.UserStory, error) {
	return s.stores.Stories.List(ctx)
}

// Cases lists all UAT cases.
func (s *RecordService) Cases(ctx context.Context) ([]domain.UATCase, error) {
	return s.stores.Cases.List(ctx)
}

// SetRequirementStatus changes a requirement's status.
func (s *RecordService) SetRequirementStatus(ctx context.Context, id string, status domain.RequirementStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: requirement status %q", domain.ErrInvalidInput, status)
	}
	return s.stores.Requirements.UpdateStatus(ctx, id, status)
}

// SetCaseStatus records a UAT execution result.
func (s *RecordService) SetCaseStatus(ctx context.Context, id string, status domain.UATStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: UAT status %q", domain.ErrInvalidInput, status)
	}
	return s.stores.Cases.UpdateStatus(ctx, id, status)
}

// loadTargets builds one compliance target per requirement, in
// requirement order, from a single read of each store.
func loadTargets(ctx context.Context, stores Stores) ([]domain.ComplianceTarget, error) {
	reqs, err := stores.Requirements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	stories, err := stores.Stories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	cases, err := stores.Cases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	casesByStory := make(map[string][]domain.UATCase)
	for _, c := range cases {
		casesByStory[c.StoryID] = append(casesByStory[c.StoryID], c)
	}

	targets := make([]domain.ComplianceTarget, 0, len(reqs))
	for _, req := range reqs {
		target := domain.ComplianceTarget{Requirement: req}
		for _, story := range stories {
			if !story.Links(req.ID) {
				continue
			}
			target.Stories = append(target.Stories, story)
			target.Cases = append(target.Cases, casesByStory[story.ID]...)
		}
		targets = append(targets, target)
	}
	return targets, nil
}
