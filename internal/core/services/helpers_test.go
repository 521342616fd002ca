package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

func newTestStores() Stores {
	store := memory.NewStore()
	return Stores{
		Requirements: store.RequirementStore(),
		Stories:      store.StoryStore(),
		Cases:        store.UATStore(),
		Traceability: store.TraceabilityStore(),
		Findings:     store.FindingStore(),
		Diagrams:     store.DiagramStore(),
	}
}

func seedRequirements(t *testing.T, stores Stores, reqs ...domain.Requirement) {
	t.Helper()
	for _, r := range reqs {
		require.NoError(t, stores.Requirements.Insert(context.Background(), r))
	}
}

func sampleRequirements() []domain.Requirement {
	return []domain.Requirement{
		{ID: "REQ-1", SourceRef: "reqs.csv", Description: "User can reset password", Priority: domain.PriorityHigh},
		{
			ID: "REQ-2", SourceRef: "reqs.csv", Description: "Admin can export audit logs",
			Priority: domain.PriorityMedium, AcceptanceCriteria: []string{"CSV download", "Includes timestamps"},
		},
	}
}

// fakePublisher records the bundles it was handed.
type fakePublisher struct {
	name    string
	err     error
	bundles []*domain.ExportBundle
}

func (p *fakePublisher) Name() string { return p.name }

func (p *fakePublisher) Publish(_ context.Context, b *domain.ExportBundle) (*driven.PublishReport, error) {
	p.bundles = append(p.bundles, b)
	if p.err != nil {
		return nil, p.err
	}
	return &driven.PublishReport{Destination: p.name, Created: len(b.Requirements)}, nil
}
