package driving

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// GenerationService derives stories, UAT cases and traceability links.
type GenerationService interface {
	// GenerateStories regenerates user stories from all requirements.
	GenerateStories(ctx context.Context) (*domain.GenerationResult, error)

	// GenerateUAT regenerates UAT cases from all stories, keeping the
	// recorded status of unchanged cases.
	GenerateUAT(ctx context.Context) (*domain.GenerationResult, error)

	// Traceability recomputes and persists the traceability matrix.
	Traceability(ctx context.Context) (*domain.TraceabilityMatrix, error)
}
