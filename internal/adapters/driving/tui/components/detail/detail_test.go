package detail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func TestPane_Empty(t *testing.T) {
	p := NewPane(nil)
	assert.Contains(t, p.View(), "Select a finding")
}

func TestPane_ShowsFinding(t *testing.T) {
	p := NewPane(nil)
	p.SetDimensions(60, 20)
	p.SetFinding(&domain.ComplianceFinding{
		Framework:   "audit",
		RuleID:      "AUD-03",
		TargetID:    "REQ-7",
		RunID:       "run-1",
		Status:      domain.FindingFail,
		Reason:      "acceptance criteria missing",
		EvaluatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	view := p.View()
	assert.Contains(t, view, "AUD-03")
	assert.Contains(t, view, "REQ-7")
	assert.Contains(t, view, "run-1")
	assert.Contains(t, view, "acceptance criteria missing")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrap("one two three", 8))
	assert.Equal(t, "", wrap("   ", 8))
	assert.Equal(t, "unbreakableword", wrap("unbreakableword", 4))
}
