package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func sampleBundle() *domain.ExportBundle {
	return &domain.ExportBundle{
		Requirements: []domain.Requirement{
			{ID: "REQ-1", Description: "User can reset password"},
			{ID: "REQ-2", Description: "Export audit log"},
		},
		Stories: []domain.UserStory{{
			ID: "US-REQ-1", RequirementID: "REQ-1", Role: "user", Action: "reset password", Benefit: "access is restored",
			AcceptanceCriteria: []string{"Email sent", "Link expires"},
		}},
		Cases: []domain.UATCase{
			{ID: "US-REQ-1-TC-01", StoryID: "US-REQ-1", Sequence: 1, Status: domain.UATStatusPassed},
			{ID: "US-REQ-1-TC-02", StoryID: "US-REQ-1", Sequence: 2, Status: domain.UATStatusFailed},
		},
		Findings: []domain.ComplianceFinding{
			{Framework: "audit", RuleID: "AUD-04", TargetID: "REQ-2", Status: domain.FindingFail, Evidence: "no user story links to the requirement"},
		},
	}
}

func TestBuildPages_Blocks(t *testing.T) {
	pages := BuildPages(sampleBundle(), "Portal")
	require.Len(t, pages, 1)

	p := pages[0]
	assert.Equal(t, "Portal", p.Title)
	assert.Equal(t, map[string]string{"Part": "1 of 1", "Requirements": "2"}, p.Properties)
	assert.Equal(t, []Block{
		{Type: BlockHeading, Text: "REQ-1: User can reset password"},
		{Type: BlockParagraph, Text: "As a user, I want to reset password, so that access is restored."},
		{Type: BlockToDo, Text: "Email sent", Checked: true},
		{Type: BlockToDo, Text: "Link expires"},
		{Type: BlockHeading, Text: "REQ-2: Export audit log"},
		{Type: BlockParagraph, Text: "No user story generated."},
		{Type: BlockBulletItem, Text: "audit AUD-04: fail (no user story links to the requirement)"},
	}, p.Blocks)
}

func TestBuildPages_Overflow(t *testing.T) {
	b := &domain.ExportBundle{}
	// Each requirement renders as heading + paragraph = 2 blocks.
	for i := 1; i <= 60; i++ {
		b.Requirements = append(b.Requirements, domain.Requirement{ID: fmt.Sprintf("REQ-%d", i), Description: "x"})
	}

	pages := BuildPages(b, "Reqs")

	require.Len(t, pages, 2)
	assert.Equal(t, "Reqs", pages[0].Title)
	assert.Equal(t, "Reqs (2)", pages[1].Title)
	assert.Len(t, pages[0].Blocks, 100)
	assert.Len(t, pages[1].Blocks, 20)
	assert.Equal(t, "2 of 2", pages[1].Properties["Part"])
	assert.Equal(t, BlockHeading, pages[1].Blocks[0].Type)
}

func TestBuildPages_SplitsOversizedSection(t *testing.T) {
	criteria := make([]string, 150)
	for i := range criteria {
		criteria[i] = fmt.Sprintf("criterion %d", i+1)
	}
	b := &domain.ExportBundle{
		Requirements: []domain.Requirement{{ID: "REQ-1", Description: "big"}},
		Stories:      []domain.UserStory{{ID: "US-REQ-1", RequirementID: "REQ-1", AcceptanceCriteria: criteria}},
	}

	pages := BuildPages(b, "Big")

	require.Len(t, pages, 2)
	for _, p := range pages {
		assert.LessOrEqual(t, len(p.Blocks), MaxBlocksPerPage)
	}
	assert.Len(t, pages[1].Blocks, 152-100)
}

func TestBuildPages_EmptyBundle(t *testing.T) {
	pages := BuildPages(&domain.ExportBundle{}, "Empty")
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Blocks)
}

func TestExporter_JSON(t *testing.T) {
	e := New("")
	assert.Equal(t, "workspace", e.Format())
	assert.Equal(t, ".json", e.Extension())

	var first, second bytes.Buffer
	require.NoError(t, e.Export(context.Background(), sampleBundle(), &first))
	require.NoError(t, e.Export(context.Background(), sampleBundle(), &second))
	assert.Equal(t, first.String(), second.String())

	var pages []Page
	require.NoError(t, json.Unmarshal(first.Bytes(), &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, DefaultTitle, pages[0].Title)
	assert.Equal(t, BlockToDo, pages[0].Blocks[2].Type)
}
