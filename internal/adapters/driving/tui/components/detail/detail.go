// Package detail renders the finding detail pane.
package detail

import (
	"strings"
	"time"

	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// Pane shows every field of one finding.
type Pane struct {
	styles  *styles.Styles
	finding *domain.ComplianceFinding
	width   int
	height  int
}

// NewPane creates a detail pane.
func NewPane(s *styles.Styles) *Pane {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Pane{styles: s, width: 40, height: 10}
}

// SetFinding sets the finding shown. Nil clears the pane.
func (p *Pane) SetFinding(f *domain.ComplianceFinding) {
	p.finding = f
}

// SetDimensions sets the pane size including its border.
func (p *Pane) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// View renders the pane.
func (p *Pane) View() string {
	inner := p.width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	if p.finding == nil {
		b.WriteString(p.styles.Muted.Render("Select a finding"))
	} else {
		f := p.finding
		b.WriteString(p.styles.Title.Render(f.RuleID))
		b.WriteString("  ")
		b.WriteString(p.styles.Status(f.Status).Render(string(f.Status)))
		b.WriteString("\n\n")
		p.field(&b, "Framework", f.Framework)
		p.field(&b, "Target", f.TargetID)
		p.field(&b, "Run", f.RunID)
		if !f.EvaluatedAt.IsZero() {
			p.field(&b, "Evaluated", f.EvaluatedAt.Local().Format(time.DateTime))
		}
		if f.Evidence != "" {
			b.WriteString("\n" + p.styles.Subtitle.Render("Evidence") + "\n")
			b.WriteString(wrap(f.Evidence, inner) + "\n")
		}
		if f.Reason != "" {
			b.WriteString("\n" + p.styles.Subtitle.Render("Reason") + "\n")
			b.WriteString(wrap(f.Reason, inner) + "\n")
		}
	}

	return p.styles.Pane.Width(inner).Height(max(p.height-2, 1)).Render(b.String())
}

func (p *Pane) field(b *strings.Builder, name, value string) {
	b.WriteString(p.styles.Muted.Render(name+": ") + p.styles.Normal.Render(value) + "\n")
}

// wrap breaks text on spaces so no line exceeds width runes where possible.
func wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return strings.Join(append(lines, line), "\n")
}
