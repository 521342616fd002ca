package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFromPath(t *testing.T) {
	tests := map[string]DocumentFormat{
		"reqs.xlsx":        FormatSpreadsheet,
		"REQS.XLSX":        FormatSpreadsheet,
		"export.csv":       FormatCSV,
		"spec.docx":        FormatDocx,
		"flow.drawio":      FormatDiagram,
		"flow.xml":         FormatDiagram,
		"notes.txt":        "",
		"no-extension":     "",
		"dir/sub/file.CSV": FormatCSV,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestImportResult_Counts(t *testing.T) {
	res := ImportResult{Documents: []DocumentResult{
		{Document: "a.xlsx", Imported: 3, Skipped: 1},
		{Document: "b.docx", Err: errors.New("boom")},
		{Document: "c.csv", Imported: 2},
	}}

	assert.Equal(t, 5, res.Imported())
	assert.Equal(t, 1, res.Skipped())
	assert.Equal(t, 1, res.Failed())
	assert.False(t, res.AllFailed())

	allBad := ImportResult{Documents: []DocumentResult{{Err: errors.New("x")}}}
	assert.True(t, allBad.AllFailed())
	assert.False(t, ImportResult{}.AllFailed())
}

func TestExportBundle_Lookups(t *testing.T) {
	b := ExportBundle{
		Stories: []UserStory{
			{ID: "US-REQ-1", RequirementID: "REQ-1", RequirementIDs: []string{"REQ-1"}},
			{ID: "US-AUTH", RequirementID: "REQ-2", RequirementIDs: []string{"REQ-2", "REQ-1"}},
		},
		Cases: []UATCase{{ID: "c1", StoryID: "US-AUTH"}, {ID: "c2", StoryID: "US-REQ-1"}},
	}

	stories := b.StoriesFor("REQ-1")
	if assert.Len(t, stories, 2) {
		assert.Equal(t, "US-REQ-1", stories[0].ID)
	}
	assert.Len(t, b.CasesFor("US-AUTH"), 1)
	assert.Empty(t, b.StoriesFor("REQ-9"))
}
