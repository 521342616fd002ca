package memory

import (
	"sort"
	"sync"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// Store is an in-memory record store for testing. All record stores share
// one lock so derived records can be checked against their sources.
type Store struct {
	mu sync.RWMutex

	requirements map[string]domain.Requirement
	stories      map[string]domain.UserStory
	cases        map[string]domain.UATCase
	links        []domain.TraceabilityLink
	runs         []domain.ComplianceRun
	findings     map[string][]domain.ComplianceFinding
	nodes        map[string][]domain.DiagramNode
	edges        map[string][]domain.DiagramEdge
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		requirements: make(map[string]domain.Requirement),
		stories:      make(map[string]domain.UserStory),
		cases:        make(map[string]domain.UATCase),
		findings:     make(map[string][]domain.ComplianceFinding),
		nodes:        make(map[string][]domain.DiagramNode),
		edges:        make(map[string][]domain.DiagramEdge),
	}
}

// RequirementStore returns the requirement store view.
func (s *Store) RequirementStore() *RequirementStore {
	return &RequirementStore{store: s}
}

// StoryStore returns the story store view.
func (s *Store) StoryStore() *StoryStore {
	return &StoryStore{store: s}
}

// UATStore returns the UAT case store view.
func (s *Store) UATStore() *UATStore {
	return &UATStore{store: s}
}

// TraceabilityStore returns the traceability store view.
func (s *Store) TraceabilityStore() *TraceabilityStore {
	return &TraceabilityStore{store: s}
}

// FindingStore returns the finding store view.
func (s *Store) FindingStore() *FindingStore {
	return &FindingStore{store: s}
}

// DiagramStore returns the diagram store view.
func (s *Store) DiagramStore() *DiagramStore {
	return &DiagramStore{store: s}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRequirement(r domain.Requirement) domain.Requirement {
	r.AcceptanceCriteria = cloneStrings(r.AcceptanceCriteria)
	return r
}

func cloneStory(s domain.UserStory) domain.UserStory {
	s.RequirementIDs = cloneStrings(s.RequirementIDs)
	s.AcceptanceCriteria = cloneStrings(s.AcceptanceCriteria)
	return s
}

func cloneCase(c domain.UATCase) domain.UATCase {
	c.Steps = cloneStrings(c.Steps)
	return c
}

func sortByID[T any](items []T, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return domain.CompareIDs(id(items[i]), id(items[j])) < 0
	})
}
