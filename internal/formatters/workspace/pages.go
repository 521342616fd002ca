// Package workspace renders export bundles as block-structured pages for
// collaborative workspace tools.
//
// Pages are plain values; the Notion publisher maps them onto API objects.
package workspace

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// MaxBlocksPerPage is the block limit of one page create request.
const MaxBlocksPerPage = 100

// BlockType names a workspace block kind.
type BlockType string

// Supported block types.
const (
	BlockHeading    BlockType = "heading_2"
	BlockParagraph  BlockType = "paragraph"
	BlockToDo       BlockType = "to_do"
	BlockBulletItem BlockType = "bulleted_list_item"
)

// Block is one content block.
type Block struct {
	Type    BlockType `json:"type"`
	Text    string    `json:"text"`
	Checked bool      `json:"checked,omitempty"`
}

// Page is one workspace page.
type Page struct {
	Title      string            `json:"title"`
	Properties map[string]string `json:"properties,omitempty"`
	Blocks     []Block           `json:"blocks"`
}

// BuildPages lays the bundle out as requirement sections titled title.
// Sections are packed into pages of at most MaxBlocksPerPage blocks;
// overflow pages are titled "<title> (2)", "<title> (3)" and so on. A
// section is only split when it alone exceeds the limit.
func BuildPages(b *domain.ExportBundle, title string) []Page {
	var sections [][]Block
	for _, req := range b.Requirements {
		sections = append(sections, requirementBlocks(b, req))
	}

	var chunks [][]Block
	var current []Block
	for _, sec := range sections {
		if len(current)+len(sec) > MaxBlocksPerPage && len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
		}
		for len(sec) > MaxBlocksPerPage {
			chunks = append(chunks, sec[:MaxBlocksPerPage])
			sec = sec[MaxBlocksPerPage:]
		}
		current = append(current, sec...)
	}
	if len(current) > 0 || len(chunks) == 0 {
		chunks = append(chunks, current)
	}

	pages := make([]Page, len(chunks))
	for i, blocks := range chunks {
		name := title
		if i > 0 {
			name = fmt.Sprintf("%s (%d)", title, i+1)
		}
		pages[i] = Page{
			Title: name,
			Properties: map[string]string{
				"Part":         fmt.Sprintf("%d of %d", i+1, len(chunks)),
				"Requirements": strconv.Itoa(countHeadings(blocks)),
			},
			Blocks: blocks,
		}
	}
	return pages
}

func countHeadings(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		if b.Type == BlockHeading {
			n++
		}
	}
	return n
}

// requirementBlocks renders one requirement: heading, story paragraphs,
// one to-do per criterion and one bullet per finding.
func requirementBlocks(b *domain.ExportBundle, req domain.Requirement) []Block {
	blocks := []Block{{Type: BlockHeading, Text: req.ID + ": " + req.Description}}

	stories := b.StoriesFor(req.ID)
	if len(stories) == 0 {
		blocks = append(blocks, Block{Type: BlockParagraph, Text: "No user story generated."})
	}
	for _, s := range stories {
		blocks = append(blocks, Block{Type: BlockParagraph, Text: s.Text()})
		passed := make(map[int]bool)
		for _, c := range b.CasesFor(s.ID) {
			passed[c.Sequence] = c.Status == domain.UATStatusPassed
		}
		for i, crit := range s.AcceptanceCriteria {
			blocks = append(blocks, Block{Type: BlockToDo, Text: crit, Checked: passed[i+1]})
		}
	}

	for _, f := range b.Findings {
		if f.TargetID != req.ID {
			continue
		}
		detail := f.Evidence
		if detail == "" {
			detail = f.Reason
		}
		text := fmt.Sprintf("%s %s: %s", f.Framework, f.RuleID, f.Status)
		if detail != "" {
			text += " (" + detail + ")"
		}
		blocks = append(blocks, Block{Type: BlockBulletItem, Text: text})
	}
	return blocks
}
