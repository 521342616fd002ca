// Package docx parses requirement specifications written as Word documents.
//
// Headings (Heading1..Heading9 or Title styles) delimit sections. A section
// whose heading starts with a requirement id becomes one requirement.
package docx

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

var (
	fieldLine    = regexp.MustCompile(`(?i)^(priority|category|feature tag|feature|epic|rationale|benefit|status)\s*:\s*(.*)$`)
	criteriaLine = regexp.MustCompile(`(?i)^acceptance criteria\s*:?\s*(.*)$`)
	bulletPrefix = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

// Parser handles DOCX documents.
type Parser struct{}

// New creates a new DOCX parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the document format this parser reads.
func (p *Parser) Format() domain.DocumentFormat {
	return domain.FormatDocx
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".docx"}
}

// Parse converts heading-delimited sections into requirements.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	formatErr := func(reason string, err error) error {
		return &domain.FormatError{Document: doc.Name, Format: domain.FormatDocx, Reason: reason, Err: err}
	}

	data, err := readDocumentPart(doc.Content)
	if err != nil {
		return nil, formatErr("cannot open document", err)
	}
	paras, err := decodeParagraphs(data)
	if err != nil {
		return nil, formatErr("malformed document xml", err)
	}

	hasHeading := false
	for _, para := range paras {
		if para.headingLevel() >= 0 && para.Text != "" {
			hasHeading = true
			break
		}
	}
	if !hasHeading {
		return nil, formatErr("no headings", nil)
	}

	b := &sectionBuilder{doc: doc.Name, seen: make(map[string]bool), result: &domain.ParseResult{}}
	for i, para := range paras {
		b.add(i+1, para)
	}
	b.flush()
	return b.result, nil
}

// section accumulates one requirement while its body is read.
type section struct {
	id       string
	level    int
	position int
	title    string
	body     []string
	fields   map[string]string
	criteria []string
	inAC     bool
	category string
}

// sectionBuilder walks paragraphs and emits requirements.
type sectionBuilder struct {
	doc    string
	seen   map[string]bool
	result *domain.ParseResult

	// headings holds the enclosing non-requirement heading text per level.
	headings [10]string
	current  *section
}

func (b *sectionBuilder) add(position int, para paragraph) {
	if para.Text == "" {
		return
	}

	level := para.headingLevel()
	if level >= 0 {
		if m := domain.LeadingRequirementID.FindStringSubmatch(para.Text); m != nil {
			b.flush()
			b.current = &section{
				id:       m[1],
				level:    level,
				position: position,
				title:    strings.TrimSpace(para.Text[len(m[0]):]),
				fields:   make(map[string]string),
				category: b.enclosing(level),
			}
			return
		}
		// Sub-headings inside a requirement are part of its body.
		if b.current != nil && level > b.current.level {
			b.current.line(para.Text, false)
			return
		}
		b.flush()
		b.headings[level] = para.Text
		for l := level + 1; l < len(b.headings); l++ {
			b.headings[l] = ""
		}
		return
	}

	if b.current != nil {
		b.current.line(para.Text, para.List)
	}
}

// enclosing returns the nearest heading text above level, excluding Title.
func (b *sectionBuilder) enclosing(level int) string {
	for l := level - 1; l >= 1; l-- {
		if b.headings[l] != "" {
			return b.headings[l]
		}
	}
	return ""
}

func (s *section) line(text string, list bool) {
	bullet := bulletPrefix.MatchString(text)
	if m := criteriaLine.FindStringSubmatch(text); m != nil {
		s.inAC = true
		s.criteria = append(s.criteria, domain.SplitCriteria(m[1])...)
		return
	}
	if m := fieldLine.FindStringSubmatch(text); m != nil {
		s.inAC = false
		s.fields[canonicalField(m[1])] = strings.TrimSpace(m[2])
		return
	}
	if s.inAC && (list || bullet) {
		s.criteria = append(s.criteria, strings.TrimSpace(bulletPrefix.ReplaceAllString(text, "")))
		return
	}
	s.inAC = false
	s.body = append(s.body, text)
}

func canonicalField(name string) string {
	switch strings.ToLower(name) {
	case "feature tag", "epic":
		return "feature"
	case "benefit":
		return "rationale"
	default:
		return strings.ToLower(name)
	}
}

// flush converts the open section into a requirement or a row warning.
func (b *sectionBuilder) flush() {
	s := b.current
	b.current = nil
	if s == nil {
		return
	}

	rowErr := func(reason string) {
		b.result.Warnings = append(b.result.Warnings, &domain.RowError{
			Document: b.doc, Row: s.position, RecordID: s.id, Reason: reason,
		})
	}

	parts := append([]string{}, s.title)
	parts = append(parts, s.body...)
	desc := strings.TrimSpace(strings.Join(parts, " "))
	if desc == "" {
		rowErr("missing description")
		return
	}

	priority := domain.PriorityMedium
	if raw := s.fields["priority"]; raw != "" {
		p, ok := domain.ParsePriority(raw)
		if !ok {
			rowErr(fmt.Sprintf("unknown priority %q", raw))
			return
		}
		priority = p
	} else {
		logger.Debug("docx: %s %s has no priority, defaulting to medium", b.doc, s.id)
	}

	status := domain.RequirementStatusImported
	if raw := s.fields["status"]; raw != "" {
		status = domain.RequirementStatus(strings.ToLower(raw))
		if !status.IsValid() {
			rowErr(fmt.Sprintf("unknown status %q", raw))
			return
		}
	}

	if b.seen[s.id] {
		rowErr("duplicate id")
		return
	}
	b.seen[s.id] = true

	category := s.fields["category"]
	if category == "" {
		category = s.category
	}

	b.result.AddRequirement(domain.Requirement{
		ID:                 s.id,
		SourceRef:          b.doc,
		Description:        desc,
		Category:           category,
		Priority:           priority,
		FeatureTag:         s.fields["feature"],
		AcceptanceCriteria: s.criteria,
		Rationale:          s.fields["rationale"],
		Status:             status,
	}, s.position)
}
