package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure the record stores implement their interfaces.
var (
	_ driven.RequirementStore  = (*RequirementStore)(nil)
	_ driven.StoryStore        = (*StoryStore)(nil)
	_ driven.UATStore          = (*UATStore)(nil)
	_ driven.TraceabilityStore = (*TraceabilityStore)(nil)
	_ driven.FindingStore      = (*FindingStore)(nil)
	_ driven.DiagramStore      = (*DiagramStore)(nil)
)

// RequirementStore is an in-memory implementation of driven.RequirementStore.
type RequirementStore struct {
	store *Store
}

// Insert stores a new requirement.
func (r *RequirementStore) Insert(_ context.Context, req domain.Requirement) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[req.ID]; ok {
		return fmt.Errorf("requirement %s: %w", req.ID, domain.ErrImmutable)
	}
	if req.Status == "" {
		req.Status = domain.RequirementStatusImported
	}
	if req.ImportedAt.IsZero() {
		req.ImportedAt = time.Now().UTC()
	}
	s.requirements[req.ID] = cloneRequirement(req)
	return nil
}

// Get retrieves a requirement by ID.
func (r *RequirementStore) Get(_ context.Context, id string) (*domain.Requirement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requirements[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	req = cloneRequirement(req)
	return &req, nil
}

// List returns all requirements in natural ID order.
func (r *RequirementStore) List(_ context.Context) ([]domain.Requirement, error) {
	return r.filter(func(domain.Requirement) bool { return true }), nil
}

// ListBySource returns the requirements imported from one document.
func (r *RequirementStore) ListBySource(_ context.Context, sourceRef string) ([]domain.Requirement, error) {
	return r.filter(func(req domain.Requirement) bool { return req.SourceRef == sourceRef }), nil
}

// UpdateStatus changes the status field only.
func (r *RequirementStore) UpdateStatus(_ context.Context, id string, status domain.RequirementStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("requirement status %q: %w", status, domain.ErrInvalidInput)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requirements[id]
	if !ok {
		return domain.ErrNotFound
	}
	req.Status = status
	s.requirements[id] = req
	return nil
}

func (r *RequirementStore) filter(keep func(domain.Requirement) bool) []domain.Requirement {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Requirement
	for _, req := range s.requirements {
		if keep(req) {
			result = append(result, cloneRequirement(req))
		}
	}
	sortByID(result, func(req domain.Requirement) string { return req.ID })
	return result
}

// StoryStore is an in-memory implementation of driven.StoryStore.
type StoryStore struct {
	store *Store
}

// Replace makes the stored stories equal to stories.
func (r *StoryStore) Replace(_ context.Context, stories []domain.UserStory) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]domain.UserStory, len(stories))
	for _, story := range stories {
		links := story.RequirementIDs
		if len(links) == 0 && story.RequirementID != "" {
			links = []string{story.RequirementID}
		}
		if len(links) == 0 {
			return fmt.Errorf("story %s links no requirement: %w", story.ID, domain.ErrOrphanReference)
		}
		for _, id := range links {
			if _, ok := s.requirements[id]; !ok {
				return fmt.Errorf("story %s links requirement %s: %w", story.ID, id, domain.ErrOrphanReference)
			}
		}
		story.RequirementIDs = links
		if old, ok := s.stories[story.ID]; ok && story.CreatedAt.IsZero() {
			story.CreatedAt = old.CreatedAt
		}
		if story.CreatedAt.IsZero() {
			story.CreatedAt = time.Now().UTC()
		}
		next[story.ID] = cloneStory(story)
	}

	// Cases of removed stories go with them
	for id, c := range s.cases {
		if _, ok := next[c.StoryID]; !ok {
			delete(s.cases, id)
		}
	}
	s.stories = next
	return nil
}

// Get retrieves a story by ID.
func (r *StoryStore) Get(_ context.Context, id string) (*domain.UserStory, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	story, ok := s.stories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	story = cloneStory(story)
	return &story, nil
}

// List returns all stories in natural ID order.
func (r *StoryStore) List(_ context.Context) ([]domain.UserStory, error) {
	return r.filter(func(domain.UserStory) bool { return true }), nil
}

// ListByRequirement returns the stories linking a requirement.
func (r *StoryStore) ListByRequirement(_ context.Context, requirementID string) ([]domain.UserStory, error) {
	return r.filter(func(story domain.UserStory) bool { return story.Links(requirementID) }), nil
}

func (r *StoryStore) filter(keep func(domain.UserStory) bool) []domain.UserStory {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.UserStory
	for _, story := range s.stories {
		if keep(story) {
			result = append(result, cloneStory(story))
		}
	}
	sortByID(result, func(story domain.UserStory) string { return story.ID })
	return result
}

// UATStore is an in-memory implementation of driven.UATStore.
type UATStore struct {
	store *Store
}

// Replace makes the stored cases equal to cases.
func (r *UATStore) Replace(_ context.Context, cases []domain.UATCase) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]domain.UATCase, len(cases))
	for _, c := range cases {
		if _, ok := s.stories[c.StoryID]; !ok {
			return fmt.Errorf("case %s links story %s: %w", c.ID, c.StoryID, domain.ErrOrphanReference)
		}
		if c.Status == "" {
			c.Status = domain.UATStatusPending
		}
		if !c.Status.IsValid() {
			return fmt.Errorf("case %s status %q: %w", c.ID, c.Status, domain.ErrInvalidInput)
		}
		next[c.ID] = cloneCase(c)
	}
	s.cases = next
	return nil
}

// Get retrieves a case by ID.
func (r *UATStore) Get(_ context.Context, id string) (*domain.UATCase, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = cloneCase(c)
	return &c, nil
}

// List returns all cases ordered by story then sequence.
func (r *UATStore) List(_ context.Context) ([]domain.UATCase, error) {
	return r.filter(func(domain.UATCase) bool { return true }), nil
}

// ListByStory returns a story's cases in sequence order.
func (r *UATStore) ListByStory(_ context.Context, storyID string) ([]domain.UATCase, error) {
	return r.filter(func(c domain.UATCase) bool { return c.StoryID == storyID }), nil
}

// UpdateStatus records an execution result.
func (r *UATStore) UpdateStatus(_ context.Context, id string, status domain.UATStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("case status %q: %w", status, domain.ErrInvalidInput)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = status
	s.cases[id] = c
	return nil
}

func (r *UATStore) filter(keep func(domain.UATCase) bool) []domain.UATCase {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.UATCase
	for _, c := range s.cases {
		if keep(c) {
			result = append(result, cloneCase(c))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].StoryID != result[j].StoryID {
			return domain.CompareIDs(result[i].StoryID, result[j].StoryID) < 0
		}
		return result[i].Sequence < result[j].Sequence
	})
	return result
}

// TraceabilityStore is an in-memory implementation of driven.TraceabilityStore.
type TraceabilityStore struct {
	store *Store
}

// Replace swaps the stored links for links.
func (r *TraceabilityStore) Replace(_ context.Context, links []domain.TraceabilityLink) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range links {
		if _, ok := s.requirements[link.RequirementID]; !ok {
			return fmt.Errorf("link targets requirement %s: %w", link.RequirementID, domain.ErrOrphanReference)
		}
	}
	s.links = append([]domain.TraceabilityLink(nil), links...)
	return nil
}

// List returns all links in stored order.
func (r *TraceabilityStore) List(_ context.Context) ([]domain.TraceabilityLink, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TraceabilityLink(nil), s.links...), nil
}

// ListByRequirement returns the links of one requirement.
func (r *TraceabilityStore) ListByRequirement(_ context.Context, requirementID string) ([]domain.TraceabilityLink, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.TraceabilityLink
	for _, link := range s.links {
		if link.RequirementID == requirementID {
			result = append(result, link)
		}
	}
	return result, nil
}

// FindingStore is an in-memory implementation of driven.FindingStore.
type FindingStore struct {
	store *Store
}

// SaveRun records a run and its findings.
func (r *FindingStore) SaveRun(_ context.Context, run domain.ComplianceRun, findings []domain.ComplianceFinding) error {
	if run.ID == "" || run.Framework == "" {
		return fmt.Errorf("run needs an id and a framework: %w", domain.ErrInvalidInput)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findings[run.ID]; ok {
		return fmt.Errorf("run %s already recorded: %w", run.ID, domain.ErrInvalidInput)
	}
	for _, f := range findings {
		if _, ok := s.requirements[f.TargetID]; !ok {
			return fmt.Errorf("finding %s targets %s: %w", f.RuleID, f.TargetID, domain.ErrOrphanReference)
		}
	}
	s.runs = append(s.runs, run)
	s.findings[run.ID] = append([]domain.ComplianceFinding{}, findings...)
	return nil
}

// ListRuns returns runs for a framework, newest first.
func (r *FindingStore) ListRuns(_ context.Context, framework string) ([]domain.ComplianceRun, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runsNewestFirst(framework), nil
}

// ListByRun returns the findings of one run in evaluation order.
func (r *FindingStore) ListByRun(_ context.Context, runID string) ([]domain.ComplianceFinding, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ComplianceFinding(nil), s.findings[runID]...), nil
}

// LatestByFramework returns the findings of the newest run of a framework.
func (r *FindingStore) LatestByFramework(_ context.Context, framework string) ([]domain.ComplianceFinding, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runsNewestFirst(framework)
	if len(runs) == 0 {
		return nil, nil
	}
	return append([]domain.ComplianceFinding(nil), s.findings[runs[0].ID]...), nil
}

// ListByTarget returns every finding recorded against a requirement, newest first.
func (r *FindingStore) ListByTarget(_ context.Context, targetID string) ([]domain.ComplianceFinding, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ComplianceFinding
	for _, run := range s.runsNewestFirst("") {
		for _, f := range s.findings[run.ID] {
			if f.TargetID == targetID {
				result = append(result, f)
			}
		}
	}
	return result, nil
}

// runsNewestFirst must be called with the lock held.
func (s *Store) runsNewestFirst(framework string) []domain.ComplianceRun {
	var runs []domain.ComplianceRun
	for i := len(s.runs) - 1; i >= 0; i-- {
		if framework == "" || s.runs[i].Framework == framework {
			runs = append(runs, s.runs[i])
		}
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs
}

// DiagramStore is an in-memory implementation of driven.DiagramStore.
type DiagramStore struct {
	store *Store
}

// ReplaceGraph swaps the nodes and edges stored for one document.
func (r *DiagramStore) ReplaceGraph(
	_ context.Context,
	documentRef string,
	nodes []domain.DiagramNode,
	edges []domain.DiagramEdge,
) error {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.Page+"\x00"+n.ID] = true
	}
	for _, e := range edges {
		if !known[e.Page+"\x00"+e.SourceID] || !known[e.Page+"\x00"+e.TargetID] {
			return fmt.Errorf("edge %s: %w", e.ID, domain.ErrOrphanReference)
		}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[documentRef] = append([]domain.DiagramNode(nil), nodes...)
	s.edges[documentRef] = append([]domain.DiagramEdge(nil), edges...)
	return nil
}

// ListNodes returns the nodes of a document.
func (r *DiagramStore) ListNodes(_ context.Context, documentRef string) ([]domain.DiagramNode, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DiagramNode(nil), s.nodes[documentRef]...), nil
}

// ListEdges returns the edges of a document.
func (r *DiagramStore) ListEdges(_ context.Context, documentRef string) ([]domain.DiagramEdge, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DiagramEdge(nil), s.edges[documentRef]...), nil
}
