package generators

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// BuildMatrix joins requirements, stories and cases by foreign reference.
// The matrix is fully recomputed from its inputs; ordering is natural by
// requirement id, then story id, then case sequence. A story or case that
// references a missing record fails the join with domain.ErrOrphanReference.
func BuildMatrix(reqs []domain.Requirement, stories []domain.UserStory, cases []domain.UATCase) (domain.TraceabilityMatrix, error) {
	known := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		known[r.ID] = true
	}

	storiesByReq := make(map[string][]domain.UserStory)
	storyIDs := make(map[string]bool, len(stories))
	for _, s := range stories {
		storyIDs[s.ID] = true
		linked := s.RequirementIDs
		if len(linked) == 0 {
			linked = []string{s.RequirementID}
		}
		for _, id := range linked {
			if !known[id] {
				return domain.TraceabilityMatrix{}, fmt.Errorf("%w: story %s links requirement %q", domain.ErrOrphanReference, s.ID, id)
			}
			storiesByReq[id] = append(storiesByReq[id], s)
		}
	}

	casesByStory := make(map[string][]domain.UATCase)
	for _, c := range cases {
		if !storyIDs[c.StoryID] {
			return domain.TraceabilityMatrix{}, fmt.Errorf("%w: case %s links story %q", domain.ErrOrphanReference, c.ID, c.StoryID)
		}
		casesByStory[c.StoryID] = append(casesByStory[c.StoryID], c)
	}

	ordered := make([]domain.Requirement, len(reqs))
	copy(ordered, reqs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return domain.CompareIDs(ordered[i].ID, ordered[j].ID) < 0
	})

	var m domain.TraceabilityMatrix
	m.Coverage.Requirements = len(ordered)
	for _, r := range ordered {
		linked := storiesByReq[r.ID]
		sort.SliceStable(linked, func(i, j int) bool {
			return domain.CompareIDs(linked[i].ID, linked[j].ID) < 0
		})

		if len(linked) == 0 {
			m.Links = append(m.Links, domain.TraceabilityLink{RequirementID: r.ID})
			continue
		}
		m.Coverage.WithStories++

		total, passed := 0, 0
		for _, s := range linked {
			sc := casesByStory[s.ID]
			sort.SliceStable(sc, func(i, j int) bool { return sc[i].Sequence < sc[j].Sequence })
			if len(sc) == 0 {
				m.Links = append(m.Links, domain.TraceabilityLink{RequirementID: r.ID, StoryID: s.ID})
				continue
			}
			for _, c := range sc {
				total++
				if c.Status == domain.UATStatusPassed {
					passed++
				}
				m.Links = append(m.Links, domain.TraceabilityLink{
					RequirementID: r.ID,
					StoryID:       s.ID,
					UATCaseID:     c.ID,
					CaseStatus:    c.Status,
				})
			}
		}
		if total > 0 {
			m.Coverage.WithCases++
			if passed == total {
				m.Coverage.Verified++
			}
		}
	}
	return m, nil
}
