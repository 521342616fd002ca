// Package drawio parses draw.io diagram exports into a node/edge graph.
//
// Both plain and compressed diagram payloads are read. Shapes that carry a
// requirement id, either as a req_id attribute or as a label prefix, are
// also emitted as requirements.
package drawio

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// requirementIDAttrs are custom attributes naming a requirement id.
var requirementIDAttrs = []string{"req_id", "requirement_id", "reqid"}

// Parser handles draw.io diagram files.
type Parser struct{}

// New creates a new diagram parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the document format this parser reads.
func (p *Parser) Format() domain.DocumentFormat {
	return domain.FormatDiagram
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".drawio", ".xml"}
}

// Parse reads every page of the diagram.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) (*domain.ParseResult, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := decodePages(doc.Content)
	if err != nil {
		return nil, &domain.FormatError{Document: doc.Name, Format: domain.FormatDiagram, Reason: "cannot read diagram", Err: err}
	}

	result := &domain.ParseResult{}
	seen := make(map[string]bool)
	position := 0
	for _, pg := range pages {
		nodes := make(map[string]bool)
		var edges []cell
		var edgePositions []int

		for _, item := range pg.Model.Root.Items {
			c, ok := item.flatten()
			if !ok {
				continue
			}
			position++

			switch {
			case c.Vertex:
				node := domain.DiagramNode{
					ID:          c.ID,
					DocumentRef: doc.Name,
					Page:        pg.Name,
					Label:       c.Label,
					Shape:       shapeOf(c.Style),
					Attributes:  c.Custom,
				}
				if req, id, rowErr := requirementFromCell(doc.Name, position, c); id != "" {
					node.RequirementID = id
					switch {
					case rowErr != nil:
						result.Warnings = append(result.Warnings, rowErr)
					case seen[id]:
						result.Warnings = append(result.Warnings, &domain.RowError{
							Document: doc.Name, Row: position, RecordID: id, Reason: "duplicate id",
						})
					default:
						seen[id] = true
						result.AddRequirement(req, position)
					}
				}
				nodes[c.ID] = true
				result.Nodes = append(result.Nodes, node)
			case c.Edge:
				edges = append(edges, c)
				edgePositions = append(edgePositions, position)
			}
		}

		// Edges may reference vertices declared after them.
		for i, c := range edges {
			if !nodes[c.Source] || !nodes[c.Target] {
				result.Warnings = append(result.Warnings, &domain.RowError{
					Document: doc.Name, Row: edgePositions[i], RecordID: c.ID,
					Reason: fmt.Sprintf("dangling edge %q -> %q", c.Source, c.Target),
				})
				continue
			}
			result.Edges = append(result.Edges, domain.DiagramEdge{
				ID:          c.ID,
				DocumentRef: doc.Name,
				Page:        pg.Name,
				SourceID:    c.Source,
				TargetID:    c.Target,
				Label:       c.Label,
			})
		}
	}

	sort.SliceStable(result.Warnings, func(i, j int) bool {
		return result.Warnings[i].Row < result.Warnings[j].Row
	})
	return result, nil
}

// requirementFromCell returns the requirement a shape declares. id is ""
// when the shape is not a requirement.
func requirementFromCell(docName string, position int, c cell) (domain.Requirement, string, *domain.RowError) {
	id := ""
	for _, key := range requirementIDAttrs {
		if v := strings.TrimSpace(c.Custom[key]); v != "" {
			id = v
			break
		}
	}

	desc := c.Label
	if m := domain.LeadingRequirementID.FindStringSubmatch(c.Label); m != nil && (id == "" || id == m[1]) {
		id = m[1]
		desc = strings.TrimSpace(c.Label[len(m[0]):])
	}
	if id == "" {
		return domain.Requirement{}, "", nil
	}

	rowErr := func(reason string) *domain.RowError {
		return &domain.RowError{Document: docName, Row: position, RecordID: id, Reason: reason}
	}
	if desc == "" {
		return domain.Requirement{}, id, rowErr("missing description")
	}

	priority := domain.PriorityMedium
	if raw := c.Custom["priority"]; raw != "" {
		p, ok := domain.ParsePriority(raw)
		if !ok {
			return domain.Requirement{}, id, rowErr(fmt.Sprintf("unknown priority %q", raw))
		}
		priority = p
	}

	return domain.Requirement{
		ID:                 id,
		SourceRef:          docName,
		Description:        desc,
		Category:           c.Custom["category"],
		Priority:           priority,
		FeatureTag:         c.Custom["feature"],
		AcceptanceCriteria: domain.SplitCriteria(c.Custom["acceptance_criteria"]),
		Rationale:          c.Custom["rationale"],
		Status:             domain.RequirementStatusImported,
	}, id, nil
}
