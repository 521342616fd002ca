// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// FindingList displays compliance findings in a navigable list.
type FindingList struct {
	findings []domain.ComplianceFinding
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewFindingList creates a new finding list component.
func NewFindingList(s *styles.Styles) *FindingList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &FindingList{
		styles: s,
		width:  60,
		height: 10,
	}
}

// Init initialises the finding list.
func (l *FindingList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *FindingList) Update(msg tea.Msg) (*FindingList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.findings) > 0 {
				l.selected = len(l.findings) - 1
			}
		}
	}
	return l, nil
}

// View renders the visible window of findings.
func (l *FindingList) View() string {
	if len(l.findings) == 0 {
		return l.styles.Muted.Render("No findings")
	}

	lines := make([]string, 0, l.height)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Findings (%d)", len(l.findings))), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.findings) {
		end = len(l.findings)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderFinding(i, &l.findings[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *FindingList) renderFinding(index int, f *domain.ComplianceFinding) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	label := fmt.Sprintf("%-9s %-8s %s", f.Framework, f.RuleID, f.TargetID)
	maxLen := l.width - 8
	if maxLen < 10 {
		maxLen = 10
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}

	text := fmt.Sprintf("%s%-*s", indicator, maxLen, label)
	if index == l.selected {
		text = l.styles.Selected.Render(text)
	} else {
		text = l.styles.Normal.Render(text)
	}
	return text + " " + l.styles.StatusLabel(f.Status)
}

// SetFindings replaces the list contents and resets the selection.
func (l *FindingList) SetFindings(findings []domain.ComplianceFinding) {
	l.findings = findings
	l.selected = 0
}

// Findings returns the current findings.
func (l *FindingList) Findings() []domain.ComplianceFinding {
	return l.findings
}

// Selected returns the index of the selected finding.
func (l *FindingList) Selected() int {
	return l.selected
}

// SelectedFinding returns the currently selected finding, or nil if none.
func (l *FindingList) SelectedFinding() *domain.ComplianceFinding {
	if l.selected < 0 || l.selected >= len(l.findings) {
		return nil
	}
	return &l.findings[l.selected]
}

// MoveUp moves selection up.
func (l *FindingList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *FindingList) MoveDown() {
	if l.selected < len(l.findings)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *FindingList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of findings.
func (l *FindingList) Count() int {
	return len(l.findings)
}
