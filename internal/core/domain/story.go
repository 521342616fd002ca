package domain

import (
	"strings"
	"time"
)

// UserStory is a role/action/benefit artifact derived from one requirement
// or from a group of requirements sharing a feature tag.
type UserStory struct {
	// ID is derived from the source: US-<requirement id> or US-<FEATURE>.
	ID string

	// RequirementID is the primary linked requirement.
	RequirementID string

	// RequirementIDs lists every linked requirement in source order.
	// It always contains RequirementID first.
	RequirementIDs []string

	// FeatureTag is set for stories generated from a feature group.
	FeatureTag string

	Role    string
	Action  string
	Benefit string

	// AcceptanceCriteria are ordered; UAT cases follow this order.
	AcceptanceCriteria []string

	CreatedAt time.Time
}

// Text renders the canonical story sentence.
func (s UserStory) Text() string {
	action := s.Action
	lower := strings.ToLower(action)
	if !strings.HasPrefix(lower, "to ") && !strings.HasPrefix(lower, "the ") {
		action = "to " + action
	}
	return "As " + article(s.Role) + " " + s.Role + ", I want " + action +
		", so that " + strings.TrimSuffix(s.Benefit, ".") + "."
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeioAEIO", rune(word[0])) {
		return "an"
	}
	return "a"
}

// Links reports whether the story references requirementID.
func (s UserStory) Links(requirementID string) bool {
	for _, id := range s.RequirementIDs {
		if id == requirementID {
			return true
		}
	}
	return s.RequirementID == requirementID
}

// UATStatus is the execution state of a UAT case.
type UATStatus string

// UAT statuses.
const (
	UATStatusPending UATStatus = "pending"
	UATStatusPassed  UATStatus = "passed"
	UATStatusFailed  UATStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s UATStatus) IsValid() bool {
	switch s {
	case UATStatusPending, UATStatusPassed, UATStatusFailed:
		return true
	default:
		return false
	}
}

// UATCase is one user-acceptance test case derived from a single
// acceptance criterion of a story.
type UATCase struct {
	// ID is <story id>-TC-<nn>.
	ID string

	// StoryID links to the parent UserStory.
	StoryID string

	// Sequence is the 1-based position of the criterion in the story.
	Sequence int

	// Criterion is the acceptance criterion this case demonstrates.
	Criterion string

	Steps          []string
	ExpectedResult string
	Status         UATStatus
}
