package driven

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// RequirementStore persists imported requirements.
// Requirements are insert-only apart from their status.
type RequirementStore interface {
	// Insert stores a new requirement. Returns domain.ErrImmutable when a
	// requirement with the same ID already exists.
	Insert(ctx context.Context, req domain.Requirement) error

	// Get retrieves a requirement by ID.
	Get(ctx context.Context, id string) (*domain.Requirement, error)

	// List returns all requirements in natural ID order.
	List(ctx context.Context) ([]domain.Requirement, error)

	// ListBySource returns the requirements imported from one document.
	ListBySource(ctx context.Context, sourceRef string) ([]domain.Requirement, error)

	// UpdateStatus changes the status field only.
	UpdateStatus(ctx context.Context, id string, status domain.RequirementStatus) error
}

// StoryStore persists generated user stories.
type StoryStore interface {
	// Replace makes the stored stories equal to stories in one transaction.
	// Stories absent from the set are removed with their UAT cases.
	// Returns domain.ErrOrphanReference if a story links an unknown requirement.
	Replace(ctx context.Context, stories []domain.UserStory) error

	// Get retrieves a story by ID.
	Get(ctx context.Context, id string) (*domain.UserStory, error)

	// List returns all stories in natural ID order.
	List(ctx context.Context) ([]domain.UserStory, error)

	// ListByRequirement returns the stories linking a requirement.
	ListByRequirement(ctx context.Context, requirementID string) ([]domain.UserStory, error)
}

// UATStore persists generated UAT cases.
type UATStore interface {
	// Replace makes the stored cases equal to cases in one transaction.
	// Returns domain.ErrOrphanReference if a case links an unknown story.
	Replace(ctx context.Context, cases []domain.UATCase) error

	// Get retrieves a case by ID.
	Get(ctx context.Context, id string) (*domain.UATCase, error)

	// List returns all cases ordered by story then sequence.
	List(ctx context.Context) ([]domain.UATCase, error)

	// ListByStory returns a story's cases in sequence order.
	ListByStory(ctx context.Context, storyID string) ([]domain.UATCase, error)

	// UpdateStatus records an execution result.
	UpdateStatus(ctx context.Context, id string, status domain.UATStatus) error
}

// TraceabilityStore persists the recomputed traceability join.
type TraceabilityStore interface {
	// Replace swaps the stored links for links in one transaction.
	Replace(ctx context.Context, links []domain.TraceabilityLink) error

	// List returns all links in stored order.
	List(ctx context.Context) ([]domain.TraceabilityLink, error)

	// ListByRequirement returns the links of one requirement.
	ListByRequirement(ctx context.Context, requirementID string) ([]domain.TraceabilityLink, error)
}

// FindingStore persists compliance runs. History is append-only.
type FindingStore interface {
	// SaveRun records a run and its findings in one transaction.
	// Returns domain.ErrOrphanReference if a finding targets an unknown requirement.
	SaveRun(ctx context.Context, run domain.ComplianceRun, findings []domain.ComplianceFinding) error

	// ListRuns returns runs for a framework, newest first.
	// An empty framework lists every run.
	ListRuns(ctx context.Context, framework string) ([]domain.ComplianceRun, error)

	// ListByRun returns the findings of one run in evaluation order.
	ListByRun(ctx context.Context, runID string) ([]domain.ComplianceFinding, error)

	// LatestByFramework returns the findings of the newest run of a framework.
	LatestByFramework(ctx context.Context, framework string) ([]domain.ComplianceFinding, error)

	// ListByTarget returns every finding recorded against a requirement,
	// newest first.
	ListByTarget(ctx context.Context, targetID string) ([]domain.ComplianceFinding, error)
}

// DiagramStore persists imported diagram graphs.
type DiagramStore interface {
	// ReplaceGraph swaps the nodes and edges stored for one document.
	ReplaceGraph(ctx context.Context, documentRef string, nodes []domain.DiagramNode, edges []domain.DiagramEdge) error

	// ListNodes returns the nodes of a document.
	ListNodes(ctx context.Context, documentRef string) ([]domain.DiagramNode, error)

	// ListEdges returns the edges of a document.
	ListEdges(ctx context.Context, documentRef string) ([]domain.DiagramEdge, error)
}
