package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService parses documents and persists their records.
type ImportService struct {
	parsers      driven.ParserRegistry
	requirements driven.RequirementStore
	diagrams     driven.DiagramStore
}

// NewImportService creates an import service. diagrams may be nil, in
// which case diagram graphs are parsed but not stored.
func NewImportService(
	parsers driven.ParserRegistry,
	requirements driven.RequirementStore,
	diagrams driven.DiagramStore,
) *ImportService {
	return &ImportService{
		parsers:      parsers,
		requirements: requirements,
		diagrams:     diagrams,
	}
}

// Import parses and persists each document in order.
func (s *ImportService) Import(ctx context.Context, docs []domain.SourceDocument) (*domain.ImportResult, error) {
	result := &domain.ImportResult{}
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := s.importDocument(ctx, &docs[i])
		result.Documents = append(result.Documents, res)
	}
	return result, nil
}

// ImportFiles reads the files at paths and imports them.
func (s *ImportService) ImportFiles(ctx context.Context, paths []string) (*domain.ImportResult, error) {
	result := &domain.ImportResult{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("import %s: %v", path, err)
			result.Documents = append(result.Documents, domain.DocumentResult{
				Document: path,
				Format:   domain.FormatFromPath(path),
				Err:      fmt.Errorf("reading %s: %w", path, err),
			})
			continue
		}

		doc := domain.SourceDocument{Name: path, Content: content}
		result.Documents = append(result.Documents, s.importDocument(ctx, &doc))
	}
	return result, nil
}

func (s *ImportService) importDocument(ctx context.Context, doc *domain.SourceDocument) domain.DocumentResult {
	res := domain.DocumentResult{Document: doc.Name, Format: doc.Format}
	if res.Format == "" {
		res.Format = domain.FormatFromPath(doc.Name)
	}

	logger.Debug("import: parsing %s (%s)", doc.Name, res.Format)
	parsed, err := s.parsers.Parse(ctx, doc)
	if err != nil {
		logger.Warn("import %s: %v", doc.Name, err)
		res.Err = err
		return res
	}

	res.Warnings = append(res.Warnings, parsed.Warnings...)
	res.Skipped = len(parsed.Warnings)

	for _, req := range parsed.Requirements {
		if req.SourceRef == "" {
			req.SourceRef = doc.Name
		}
		err := s.requirements.Insert(ctx, req)
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, domain.ErrImmutable):
			changed, cmpErr := s.changed(ctx, req)
			if cmpErr != nil {
				res.Err = cmpErr
				return res
			}
			if !changed {
				res.Unchanged++
				continue
			}
			res.Skipped++
			res.Warnings = append(res.Warnings, &domain.RowError{
				Document: doc.Name,
				Row:      parsed.Positions[req.ID],
				RecordID: req.ID,
				Reason:   "already imported with different content; requirements are immutable",
			})
		default:
			res.Err = fmt.Errorf("storing %s: %w", req.ID, err)
			return res
		}
	}

	if s.diagrams != nil && (len(parsed.Nodes) > 0 || len(parsed.Edges) > 0) {
		if err := s.diagrams.ReplaceGraph(ctx, doc.Name, parsed.Nodes, parsed.Edges); err != nil {
			res.Err = fmt.Errorf("storing diagram: %w", err)
			return res
		}
		res.Nodes = len(parsed.Nodes)
		res.Edges = len(parsed.Edges)
	}

	for _, w := range res.Warnings {
		logger.Warn("import: skipped %v", w)
	}
	logger.Info("import %s: %d imported, %d unchanged, %d skipped",
		doc.Name, res.Imported, res.Unchanged, res.Skipped)
	return res
}

// changed reports whether req differs from the stored requirement.
func (s *ImportService) changed(ctx context.Context, req domain.Requirement) (bool, error) {
	stored, err := s.requirements.Get(ctx, req.ID)
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", req.ID, err)
	}
	return !stored.SameContent(req), nil
}

// ExpandInputs resolves doublestar patterns ("docs/**/*.xlsx") into a
// sorted, de-duplicated file list. Arguments without glob metacharacters
// are kept as-is so missing files surface as import failures.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("%w: bad pattern %q", domain.ErrInvalidInput, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
