package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func sampleBundle() *domain.ExportBundle {
	return &domain.ExportBundle{
		Requirements: []domain.Requirement{
			{ID: "REQ-1", SourceRef: "reqs.xlsx", Description: "User can reset password", Priority: domain.PriorityHigh},
			{ID: "REQ-2", SourceRef: "reqs.xlsx", Description: "Export audit log", Priority: domain.PriorityLow, Category: "audit"},
		},
		Stories: []domain.UserStory{{
			ID: "US-REQ-1", RequirementID: "REQ-1", RequirementIDs: []string{"REQ-1"},
			Role: "user", Action: "reset password", Benefit: "requirement REQ-1 is satisfied",
			AcceptanceCriteria: []string{"Reset email is sent", "Link expires"},
		}},
		Cases: []domain.UATCase{
			{ID: "US-REQ-1-TC-01", StoryID: "US-REQ-1", Sequence: 1, ExpectedResult: "Reset email is sent", Status: domain.UATStatusPassed},
			{ID: "US-REQ-1-TC-02", StoryID: "US-REQ-1", Sequence: 2, ExpectedResult: "Link expires", Status: domain.UATStatusPending},
		},
		Matrix: domain.TraceabilityMatrix{
			Links: []domain.TraceabilityLink{
				{RequirementID: "REQ-1", StoryID: "US-REQ-1", UATCaseID: "US-REQ-1-TC-01", CaseStatus: domain.UATStatusPassed},
				{RequirementID: "REQ-1", StoryID: "US-REQ-1", UATCaseID: "US-REQ-1-TC-02", CaseStatus: domain.UATStatusPending},
				{RequirementID: "REQ-2"},
			},
			Coverage: domain.Coverage{Requirements: 2, WithStories: 1, WithCases: 1},
		},
		Findings: []domain.ComplianceFinding{
			{Framework: "privacy", RuleID: "PRIV-01", TargetID: "REQ-1", Status: domain.FindingNotApplicable, Reason: "no trigger terms found"},
			{Framework: "audit", RuleID: "AUD-01", TargetID: "REQ-1", Status: domain.FindingPass, Evidence: `id "REQ-1" | ok`},
		},
	}
}

func TestRenderRequirement_HeadingThenStory(t *testing.T) {
	b := sampleBundle()

	got := RenderRequirement(b, b.Requirements[0], DefaultStyle())

	want := "### REQ-1\n\n" +
		"As a user, I want to reset password, so that requirement REQ-1 is satisfied.\n\n" +
		"_Priority: high · Source: reqs.xlsx_\n\n" +
		"**Acceptance criteria**\n\n" +
		"- [x] Reset email is sent\n" +
		"- [ ] Link expires\n\n" +
		"**UAT cases**\n\n" +
		"- `US-REQ-1-TC-01` (passed): Reset email is sent\n" +
		"- `US-REQ-1-TC-02` (pending): Link expires\n"
	assert.Equal(t, want, got)
}

func TestRenderRequirement_NoStory(t *testing.T) {
	b := sampleBundle()

	got := RenderRequirement(b, b.Requirements[1], Style{HeadingLevel: 2})

	assert.Equal(t, "## REQ-2\n\nExport audit log\n\n_No user story generated._\n\n"+
		"_Priority: low · Category: audit · Source: reqs.xlsx_\n", got)
}

func TestRenderRequirement_PlainLists(t *testing.T) {
	b := sampleBundle()

	got := RenderRequirement(b, b.Requirements[0], Style{HeadingLevel: 3, TaskLists: false})

	assert.Contains(t, got, "\n- Reset email is sent\n- Link expires\n")
	assert.NotContains(t, got, "[x]")
}

func TestRender_Sections(t *testing.T) {
	out := Render(sampleBundle(), DefaultStyle())

	assert.True(t, strings.HasPrefix(out, "## Requirements\n\n### REQ-1\n\nAs a user"))
	assert.Contains(t, out, "## Traceability\n\n| Requirement | Story | UAT case | Status |\n|---|---|---|---|\n")
	assert.Contains(t, out, "| REQ-2 | — | — | — |\n")
	assert.Contains(t, out, "Coverage: 1 of 2 requirements have stories, 1 have UAT cases, 0 verified.\n")
	assert.Contains(t, out, "## Compliance findings\n\n### audit\n\n1 pass, 0 fail, 0 not applicable.\n")
	assert.Less(t, strings.Index(out, "### audit"), strings.Index(out, "### privacy"))
	assert.Contains(t, out, `| AUD-01 | REQ-1 | pass | id "REQ-1" \| ok |`)
	assert.Contains(t, out, "| PRIV-01 | REQ-1 | not_applicable | no trigger terms found |")
	assert.True(t, strings.HasSuffix(out, "|\n"))
}

func TestExporter_Deterministic(t *testing.T) {
	e := New(DefaultStyle())
	assert.Equal(t, "markdown", e.Format())
	assert.Equal(t, ".md", e.Extension())

	var first, second bytes.Buffer
	require.NoError(t, e.Export(context.Background(), sampleBundle(), &first))
	require.NoError(t, e.Export(context.Background(), sampleBundle(), &second))

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestExporter_NilBundle(t *testing.T) {
	err := New(DefaultStyle()).Export(context.Background(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStyle_LevelClamped(t *testing.T) {
	assert.Equal(t, 2, Style{HeadingLevel: 0}.level())
	assert.Equal(t, 2, Style{HeadingLevel: 1}.level())
	assert.Equal(t, 6, Style{HeadingLevel: 9}.level())

	out := Render(&domain.ExportBundle{Requirements: []domain.Requirement{{ID: "REQ-1", Description: "x"}}}, Style{HeadingLevel: 1})
	assert.True(t, strings.HasPrefix(out, "# Requirements\n\n## REQ-1\n"))
}

func TestCell_Escapes(t *testing.T) {
	assert.Equal(t, `a \| b<br>c \\ d`, cell("a | b\nc \\ d"))
}
