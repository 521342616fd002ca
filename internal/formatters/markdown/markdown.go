// Package markdown renders export bundles as GitHub-flavoured markdown.
package markdown

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure Exporter implements the interface.
var _ driven.Exporter = (*Exporter)(nil)

// MinHeadingLevel leaves room for the section headings above requirements.
const MinHeadingLevel = 2

// Style is the fixed rendering configuration.
type Style struct {
	// HeadingLevel is the level of per-requirement headings (2-6).
	// Section headings sit one level above.
	HeadingLevel int

	// TaskLists renders acceptance criteria as GitHub task list items,
	// checked when the matching UAT case passed.
	TaskLists bool
}

// DefaultStyle returns level-3 requirement headings with task lists.
func DefaultStyle() Style {
	return Style{HeadingLevel: 3, TaskLists: true}
}

func (s Style) level() int {
	switch {
	case s.HeadingLevel < MinHeadingLevel:
		return MinHeadingLevel
	case s.HeadingLevel > 6:
		return 6
	default:
		return s.HeadingLevel
	}
}

func (s Style) heading(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// Exporter writes markdown documents.
type Exporter struct {
	style Style
}

// New creates a markdown exporter.
func New(style Style) *Exporter {
	return &Exporter{style: style}
}

// Format returns "markdown".
func (e *Exporter) Format() string {
	return "markdown"
}

// Extension returns ".md".
func (e *Exporter) Extension() string {
	return ".md"
}

// Export writes the rendered bundle to w.
func (e *Exporter) Export(ctx context.Context, bundle *domain.ExportBundle, w io.Writer) error {
	if bundle == nil {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(w, Render(bundle, e.style))
	return err
}

// Render returns the full document: requirement sections, the
// traceability table and compliance findings.
func Render(b *domain.ExportBundle, style Style) string {
	lvl := style.level()
	section := lvl - 1

	var out strings.Builder
	out.WriteString(style.heading(section, "Requirements"))
	out.WriteString("\n\n")
	for _, req := range b.Requirements {
		out.WriteString(RenderRequirement(b, req, style))
		out.WriteString("\n")
	}

	if len(b.Matrix.Links) > 0 {
		out.WriteString(style.heading(section, "Traceability"))
		out.WriteString("\n\n")
		out.WriteString(RenderTraceability(b.Matrix))
		out.WriteString("\n")
	}

	if len(b.Findings) > 0 {
		out.WriteString(style.heading(section, "Compliance findings"))
		out.WriteString("\n\n")
		out.WriteString(RenderFindings(b.Findings, style))
	}
	return strings.TrimRight(out.String(), "\n") + "\n"
}

// RenderRequirement renders one requirement section: heading, story
// sentences, acceptance criteria and UAT cases.
func RenderRequirement(b *domain.ExportBundle, req domain.Requirement, style Style) string {
	var out strings.Builder
	out.WriteString(style.heading(style.level(), req.ID))
	out.WriteString("\n\n")

	stories := b.StoriesFor(req.ID)
	if len(stories) == 0 {
		out.WriteString(req.Description)
		out.WriteString("\n\n_No user story generated._\n\n")
	}
	for _, s := range stories {
		out.WriteString(s.Text())
		out.WriteString("\n\n")
	}

	out.WriteString(metadataLine(req))
	out.WriteString("\n")

	for _, s := range stories {
		cases := b.CasesFor(s.ID)
		if len(s.AcceptanceCriteria) > 0 {
			out.WriteString("\n**Acceptance criteria**")
			if len(stories) > 1 {
				fmt.Fprintf(&out, " (%s)", s.ID)
			}
			out.WriteString("\n\n")
			for i, c := range s.AcceptanceCriteria {
				out.WriteString(criterionLine(c, caseAt(cases, i+1), style))
				out.WriteString("\n")
			}
		}
		if len(cases) > 0 {
			out.WriteString("\n**UAT cases**\n\n")
			for _, c := range cases {
				fmt.Fprintf(&out, "- `%s` (%s): %s\n", c.ID, c.Status, c.ExpectedResult)
			}
		}
	}
	return out.String()
}

func metadataLine(req domain.Requirement) string {
	parts := []string{"Priority: " + string(req.Priority)}
	if req.Category != "" {
		parts = append(parts, "Category: "+req.Category)
	}
	if req.FeatureTag != "" {
		parts = append(parts, "Feature: "+req.FeatureTag)
	}
	if req.SourceRef != "" {
		parts = append(parts, "Source: "+req.SourceRef)
	}
	if req.Status != "" {
		parts = append(parts, "Status: "+string(req.Status))
	}
	return "_" + strings.Join(parts, " · ") + "_"
}

func caseAt(cases []domain.UATCase, seq int) *domain.UATCase {
	for i := range cases {
		if cases[i].Sequence == seq {
			return &cases[i]
		}
	}
	return nil
}

func criterionLine(criterion string, c *domain.UATCase, style Style) string {
	if !style.TaskLists {
		return "- " + criterion
	}
	if c != nil && c.Status == domain.UATStatusPassed {
		return "- [x] " + criterion
	}
	return "- [ ] " + criterion
}

// RenderTraceability renders the matrix as a table plus a coverage line.
func RenderTraceability(m domain.TraceabilityMatrix) string {
	var out strings.Builder
	out.WriteString("| Requirement | Story | UAT case | Status |\n")
	out.WriteString("|---|---|---|---|\n")
	for _, l := range m.Links {
		fmt.Fprintf(&out, "| %s | %s | %s | %s |\n",
			cell(l.RequirementID), dash(l.StoryID), dash(l.UATCaseID), dash(string(l.CaseStatus)))
	}
	c := m.Coverage
	fmt.Fprintf(&out, "\nCoverage: %d of %d requirements have stories, %d have UAT cases, %d verified.\n",
		c.WithStories, c.Requirements, c.WithCases, c.Verified)
	return out.String()
}

// RenderFindings renders one table per framework, frameworks in name order
// and findings in input order.
func RenderFindings(findings []domain.ComplianceFinding, style Style) string {
	byFramework := make(map[string][]domain.ComplianceFinding)
	for _, f := range findings {
		byFramework[f.Framework] = append(byFramework[f.Framework], f)
	}
	names := make([]string, 0, len(byFramework))
	for name := range byFramework {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	for i, name := range names {
		if i > 0 {
			out.WriteString("\n")
		}
		group := byFramework[name]
		sum := domain.Summarise(group)
		out.WriteString(style.heading(style.level(), name))
		fmt.Fprintf(&out, "\n\n%d pass, %d fail, %d not applicable.\n\n", sum.Pass, sum.Fail, sum.NotApplicable)
		out.WriteString("| Rule | Target | Status | Evidence |\n")
		out.WriteString("|---|---|---|---|\n")
		for _, f := range group {
			evidence := f.Evidence
			if evidence == "" {
				evidence = f.Reason
			}
			fmt.Fprintf(&out, "| %s | %s | %s | %s |\n", cell(f.RuleID), cell(f.TargetID), f.Status, dash(evidence))
		}
	}
	return out.String()
}

// cell escapes text for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return cell(s)
}
