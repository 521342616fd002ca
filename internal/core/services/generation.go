package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/generators"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driving.GenerationService = (*GenerationService)(nil)

// GenerationService derives stories, UAT cases and traceability links from
// the stored requirements. Each step fully replaces its derived records.
type GenerationService struct {
	stores  Stores
	stories *generators.StoryGenerator
}

// NewGenerationService creates a generation service.
func NewGenerationService(stores Stores, opts domain.StorySettings) *GenerationService {
	return &GenerationService{
		stores: stores,
		stories: generators.NewStoryGenerator(generators.StoryOptions{
			GroupByFeature: opts.GroupByFeature,
			DefaultRole:    opts.DefaultRole,
		}),
	}
}

// GenerateStories regenerates user stories from all requirements.
func (s *GenerationService) GenerateStories(ctx context.Context) (*domain.GenerationResult, error) {
	reqs, err := s.stores.Requirements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}

	stories, mappingErrs := s.stories.Generate(reqs)
	logMappingErrors(mappingErrs)

	if err := s.stores.Stories.Replace(ctx, stories); err != nil {
		return nil, fmt.Errorf("store stories: %w", err)
	}

	logger.Info("generated %d stories from %d requirements", len(stories), len(reqs))
	return &domain.GenerationResult{Generated: len(stories), Errors: mappingErrs}, nil
}

// GenerateUAT regenerates UAT cases from all stories.
func (s *GenerationService) GenerateUAT(ctx context.Context) (*domain.GenerationResult, error) {
	stories, err := s.stores.Stories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	existing, err := s.stores.Cases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	result := generators.GenerateCases(stories, existing)
	logMappingErrors(result.Errors)

	if err := s.stores.Cases.Replace(ctx, result.Cases); err != nil {
		return nil, fmt.Errorf("store cases: %w", err)
	}

	logger.Info("generated %d UAT cases (%d kept their status)", len(result.Cases), result.Preserved)
	return &domain.GenerationResult{
		Generated: len(result.Cases),
		Preserved: result.Preserved,
		Errors:    result.Errors,
	}, nil
}

// Traceability recomputes and persists the traceability matrix.
func (s *GenerationService) Traceability(ctx context.Context) (*domain.TraceabilityMatrix, error) {
	matrix, err := buildMatrix(ctx, s.stores)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Traceability.Replace(ctx, matrix.Links); err != nil {
		return nil, fmt.Errorf("store traceability: %w", err)
	}

	c := matrix.Coverage
	logger.Info("traceability: %d requirements, %d with stories, %d with cases, %d verified",
		c.Requirements, c.WithStories, c.WithCases, c.Verified)
	return &matrix, nil
}

func buildMatrix(ctx context.Context, stores Stores) (domain.TraceabilityMatrix, error) {
	reqs, err := stores.Requirements.List(ctx)
	if err != nil {
		return domain.TraceabilityMatrix{}, fmt.Errorf("list requirements: %w", err)
	}
	stories, err := stores.Stories.List(ctx)
	if err != nil {
		return domain.TraceabilityMatrix{}, fmt.Errorf("list stories: %w", err)
	}
	cases, err := stores.Cases.List(ctx)
	if err != nil {
		return domain.TraceabilityMatrix{}, fmt.Errorf("list cases: %w", err)
	}
	return generators.BuildMatrix(reqs, stories, cases)
}

func logMappingErrors(errs []*domain.MappingError) {
	for _, e := range errs {
		logger.Warn("%v", e)
	}
}
