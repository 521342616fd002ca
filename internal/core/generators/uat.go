package generators

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// UATGeneratorName identifies the UAT generator in mapping errors.
const UATGeneratorName = "uat"

// CaseID returns the id of the n-th (1-based) case of a story.
func CaseID(storyID string, n int) string {
	return fmt.Sprintf("%s-TC-%02d", storyID, n)
}

// UATResult is the output of GenerateCases.
type UATResult struct {
	Cases []domain.UATCase

	// Preserved counts cases whose recorded non-pending status was carried over.
	Preserved int

	Errors []*domain.MappingError
}

// GenerateCases expands every story's acceptance criteria into one case per
// criterion, in criterion order. A previous case with the same id and
// criterion keeps its recorded status.
func GenerateCases(stories []domain.UserStory, existing []domain.UATCase) UATResult {
	prior := make(map[string]domain.UATCase, len(existing))
	for _, c := range existing {
		prior[c.ID] = c
	}

	var res UATResult
	for _, story := range stories {
		if len(story.AcceptanceCriteria) == 0 {
			res.Errors = append(res.Errors, &domain.MappingError{
				Generator: UATGeneratorName,
				SourceID:  story.ID,
				Field:     "acceptance_criteria",
				Reason:    "story has no acceptance criteria",
			})
			continue
		}

		for i, criterion := range story.AcceptanceCriteria {
			c := domain.UATCase{
				ID:        CaseID(story.ID, i+1),
				StoryID:   story.ID,
				Sequence:  i + 1,
				Criterion: criterion,
				Steps: []string{
					"Sign in as " + article(story.Role) + " " + story.Role,
					"Perform: " + story.Action,
					"Verify: " + criterion,
				},
				ExpectedResult: criterion,
				Status:         domain.UATStatusPending,
			}
			if old, ok := prior[c.ID]; ok && old.Criterion == criterion && old.Status.IsValid() {
				c.Status = old.Status
				if old.Status != domain.UATStatusPending {
					res.Preserved++
				}
			}
			res.Cases = append(res.Cases, c)
		}
	}
	return res
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeioAEIO", rune(word[0])) {
		return "an"
	}
	return "a"
}
