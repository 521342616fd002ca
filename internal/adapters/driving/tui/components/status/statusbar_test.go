package status

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestBar_Defaults(t *testing.T) {
	b := NewBar(nil, nil)
	assert.Equal(t, StateReady, b.State())
	assert.Equal(t, 80, b.Width())
	assert.Contains(t, b.View(), "all frameworks")
}

func TestBar_States(t *testing.T) {
	b := NewBar(nil, nil)

	b.SetState(StateLoading)
	assert.Contains(t, b.View(), "Loading findings")

	b.SetState(StateError)
	b.SetMessage("store closed")
	assert.Contains(t, b.View(), "Error: store closed")

	b.SetState(StateReady)
	b.SetCount(4)
	b.SetFilter("audit")
	assert.Contains(t, b.View(), "4 findings")
	assert.Contains(t, b.View(), "audit")

	b.Clear()
	assert.Equal(t, 0, b.Count())
	assert.Empty(t, b.Filter())
	assert.Empty(t, b.Message())
}

func TestBar_ShowsKeyHints(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(120)
	assert.Contains(t, b.View(), "tab: framework")
	assert.Contains(t, b.View(), "q: quit")
}

func TestBar_FitsOnOneLine(t *testing.T) {
	for _, width := range []int{80, 120} {
		b := NewBar(nil, nil)
		b.SetWidth(width)
		view := b.View()
		assert.NotContains(t, view, "\n", "width %d", width)
		assert.Equal(t, width, lipgloss.Width(view), "width %d", width)
		assert.Contains(t, view, "q: quit", "width %d", width)
	}
}
