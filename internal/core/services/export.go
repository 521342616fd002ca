package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.ExportService = (*ExportService)(nil)

// ExportService renders the record set through registered exporters and
// pushes it to registered publishers.
type ExportService struct {
	stores     Stores
	exporters  map[string]driven.Exporter
	publishers map[string]driven.Publisher
}

// NewExportService creates an export service. Nil exporters or
// publishers are ignored.
func NewExportService(stores Stores, exporters []driven.Exporter, publishers []driven.Publisher) *ExportService {
	s := &ExportService{
		stores:     stores,
		exporters:  make(map[string]driven.Exporter),
		publishers: make(map[string]driven.Publisher),
	}
	for _, e := range exporters {
		if e != nil {
			s.exporters[e.Format()] = e
		}
	}
	for _, p := range publishers {
		if p != nil {
			s.publishers[p.Name()] = p
		}
	}
	return s
}

// Bundle loads the current record set. The traceability matrix is
// recomputed and findings are the newest run of each framework, ordered by
// framework name.
func (s *ExportService) Bundle(ctx context.Context) (*domain.ExportBundle, error) {
	reqs, err := s.stores.Requirements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	stories, err := s.stores.Stories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	cases, err := s.stores.Cases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	matrix, err := buildMatrix(ctx, s.stores)
	if err != nil {
		return nil, err
	}
	findings, err := s.latestFindings(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.ExportBundle{
		Requirements: reqs,
		Stories:      stories,
		Cases:        cases,
		Matrix:       matrix,
		Findings:     findings,
	}, nil
}

func (s *ExportService) latestFindings(ctx context.Context) ([]domain.ComplianceFinding, error) {
	runs, err := s.stores.Findings.ListRuns(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	latest := make(map[string]string)
	for _, run := range runs {
		if _, ok := latest[run.Framework]; !ok {
			latest[run.Framework] = run.ID
		}
	}
	frameworks := make([]string, 0, len(latest))
	for fw := range latest {
		frameworks = append(frameworks, fw)
	}
	sort.Strings(frameworks)

	var out []domain.ComplianceFinding
	for _, fw := range frameworks {
		findings, err := s.stores.Findings.ListByRun(ctx, latest[fw])
		if err != nil {
			return nil, fmt.Errorf("list findings: %w", err)
		}
		out = append(out, findings...)
	}
	return out, nil
}

// Formats lists the registered export formats.
func (s *ExportService) Formats() []string {
	return sortedKeys(s.exporters)
}

// Export renders the record set in format to w.
func (s *ExportService) Export(ctx context.Context, format string, w io.Writer) error {
	exporter, ok := s.exporters[format]
	if !ok {
		return fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, format)
	}
	bundle, err := s.Bundle(ctx)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, bundle, w)
}

// ExportFile renders the record set in format to path. A path without an
// extension gets the exporter's default one.
func (s *ExportService) ExportFile(ctx context.Context, format, path string) error {
	exporter, ok := s.exporters[format]
	if !ok {
		return fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, format)
	}
	if path == "" {
		return fmt.Errorf("%w: output path required", domain.ErrInvalidInput)
	}
	if filepath.Ext(path) == "" {
		path += exporter.Extension()
	}

	bundle, err := s.Bundle(ctx)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := exporter.Export(ctx, bundle, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("exporting %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	logger.Info("exported %s to %s", format, path)
	return nil
}

// Destinations lists the registered publishers.
func (s *ExportService) Destinations() []string {
	return sortedKeys(s.publishers)
}

// Publish pushes the record set to a destination.
func (s *ExportService) Publish(ctx context.Context, destination string) (*driven.PublishReport, error) {
	publisher, ok := s.publishers[destination]
	if !ok {
		return nil, fmt.Errorf("%w: unknown destination %q", domain.ErrInvalidInput, destination)
	}
	bundle, err := s.Bundle(ctx)
	if err != nil {
		return nil, err
	}
	report, err := publisher.Publish(ctx, bundle)
	if err != nil {
		return report, fmt.Errorf("publish to %s: %w", destination, err)
	}
	return report, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
