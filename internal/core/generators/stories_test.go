package generators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func TestStoryGenerator_ModalDescription(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{})
	stories, errs := g.Generate([]domain.Requirement{
		{ID: "REQ-1", Description: "User can reset password", Priority: domain.PriorityHigh},
	})

	require.Empty(t, errs)
	require.Len(t, stories, 1)
	s := stories[0]
	assert.Equal(t, "US-REQ-1", s.ID)
	assert.Equal(t, "REQ-1", s.RequirementID)
	assert.Equal(t, []string{"REQ-1"}, s.RequirementIDs)
	assert.Equal(t, "user", s.Role)
	assert.Equal(t, "reset password", s.Action)
	assert.Equal(t, "requirement REQ-1 is satisfied", s.Benefit)
	assert.Equal(t, []string{"User can reset password"}, s.AcceptanceCriteria)
	assert.Equal(t, "As a user, I want to reset password, so that requirement REQ-1 is satisfied.", s.Text())
}

func TestStoryGenerator_StoryFormDescription(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{})
	stories, errs := g.Generate([]domain.Requirement{{
		ID:          "REQ-2",
		Description: "As an auditor, I want to export the access log so that I can review access.",
	}})

	require.Empty(t, errs)
	require.Len(t, stories, 1)
	assert.Equal(t, "auditor", stories[0].Role)
	assert.Equal(t, "export the access log", stories[0].Action)
	assert.Equal(t, "I can review access", stories[0].Benefit)
	assert.Equal(t,
		"As an auditor, I want to export the access log, so that I can review access.",
		stories[0].Text())
}

func TestStoryGenerator_SystemSubjectUsesDefaultRole(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{DefaultRole: "operator"})
	stories, errs := g.Generate([]domain.Requirement{{
		ID:          "REQ-3",
		Description: "The system shall log all access attempts.",
		Category:    "Security",
	}})

	require.Empty(t, errs)
	require.Len(t, stories, 1)
	assert.Equal(t, "operator", stories[0].Role)
	assert.Equal(t, "the system to log all access attempts", stories[0].Action)
	assert.Equal(t, "the security requirement REQ-3 is met", stories[0].Benefit)
	assert.Equal(t,
		"As an operator, I want the system to log all access attempts, so that the security requirement REQ-3 is met.",
		stories[0].Text())
}

func TestStoryGenerator_RationaleBecomesBenefit(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{})
	stories, _ := g.Generate([]domain.Requirement{{
		ID:          "REQ-4",
		Description: "Admins can disable accounts",
		Rationale:   "Compromised accounts are contained.",
	}})

	require.Len(t, stories, 1)
	assert.Equal(t, "compromised accounts are contained", stories[0].Benefit)
}

func TestStoryGenerator_AcronymRoleKeepsCase(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{})
	stories, _ := g.Generate([]domain.Requirement{{ID: "REQ-5", Description: "HR staff can view salaries"}})

	require.Len(t, stories, 1)
	assert.Equal(t, "HR staff", stories[0].Role)
}

func TestStoryGenerator_MissingFieldsAreMappingErrors(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{})
	stories, errs := g.Generate([]domain.Requirement{
		{ID: "REQ-1", Description: "User can log in"},
		{ID: "REQ-2", Description: "  "},
		{ID: "", Description: "Orphan text"},
		{ID: "REQ-3", Description: "User can log out"},
	})

	require.Len(t, stories, 2)
	assert.Equal(t, "US-REQ-1", stories[0].ID)
	assert.Equal(t, "US-REQ-3", stories[1].ID)

	require.Len(t, errs, 2)
	assert.Equal(t, "REQ-2", errs[0].SourceID)
	assert.Equal(t, "description", errs[0].Field)
	assert.Equal(t, "id", errs[1].Field)
}

func TestStoryGenerator_ExactlyOneStoryPerCompleteRequirement(t *testing.T) {
	reqs := []domain.Requirement{
		{ID: "A-1", Description: "User can search"},
		{ID: "A-2", Description: "Reports are exported nightly"},
		{ID: "A-3", Description: "As a clerk I want to file claims"},
	}
	stories, errs := NewStoryGenerator(StoryOptions{}).Generate(reqs)

	require.Empty(t, errs)
	require.Len(t, stories, len(reqs))
	for i, r := range reqs {
		assert.Equal(t, r.ID, stories[i].RequirementID)
	}
}

func TestStoryGenerator_GroupByFeature(t *testing.T) {
	g := NewStoryGenerator(StoryOptions{GroupByFeature: true})
	stories, errs := g.Generate([]domain.Requirement{
		{ID: "REQ-1", Description: "User can reset password", FeatureTag: "Self service",
			AcceptanceCriteria: []string{"Reset link is emailed"}},
		{ID: "REQ-2", Description: "User can export reports"},
		{ID: "REQ-3", Description: "User can change email", FeatureTag: "Self service",
			AcceptanceCriteria: []string{"Confirmation is required", "Old address is notified"}},
	})

	require.Empty(t, errs)
	require.Len(t, stories, 2)

	feature := stories[0]
	assert.Equal(t, "US-SELF-SERVICE", feature.ID)
	assert.Equal(t, "REQ-1", feature.RequirementID)
	assert.Equal(t, []string{"REQ-1", "REQ-3"}, feature.RequirementIDs)
	assert.Equal(t, "reset password; change email", feature.Action)
	assert.Equal(t,
		[]string{"Reset link is emailed", "Confirmation is required", "Old address is notified"},
		feature.AcceptanceCriteria)
	assert.Equal(t, "the Self service feature is delivered", feature.Benefit)

	assert.Equal(t, "US-REQ-2", stories[1].ID)
}

func TestStoryGenerator_Deterministic(t *testing.T) {
	reqs := []domain.Requirement{
		{ID: "REQ-1", Description: "User can reset password", FeatureTag: "auth"},
		{ID: "REQ-2", Description: "User can sign in", FeatureTag: "auth"},
	}
	g := NewStoryGenerator(StoryOptions{GroupByFeature: true})
	first, _ := g.Generate(reqs)
	second, _ := g.Generate(reqs)
	assert.Equal(t, first, second)
}

func TestFeatureSlug(t *testing.T) {
	assert.Equal(t, "SELF-SERVICE", FeatureSlug("Self service"))
	assert.Equal(t, "AUDIT-LOG-V2", FeatureSlug("  audit/log v2 "))
}
