package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// traceabilityStore implements driven.TraceabilityStore.
type traceabilityStore struct {
	store *Store
}

var _ driven.TraceabilityStore = (*traceabilityStore)(nil)

// Replace swaps the stored links for links.
func (s *traceabilityStore) Replace(ctx context.Context, links []domain.TraceabilityLink) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM traceability_links"); err != nil {
		return fmt.Errorf("clearing links: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO traceability_links (position, requirement_id, story_id, uat_case_id, case_status)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, link := range links {
		if _, err := stmt.ExecContext(ctx, i, link.RequirementID, nullString(link.StoryID),
			nullString(link.UATCaseID), string(link.CaseStatus)); err != nil {
			return fmt.Errorf("saving link %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns all links in stored order.
func (s *traceabilityStore) List(ctx context.Context) ([]domain.TraceabilityLink, error) {
	return s.query(ctx, `
		SELECT requirement_id, story_id, uat_case_id, case_status
		FROM traceability_links ORDER BY position
	`)
}

// ListByRequirement returns the links of one requirement.
func (s *traceabilityStore) ListByRequirement(ctx context.Context, requirementID string) ([]domain.TraceabilityLink, error) {
	return s.query(ctx, `
		SELECT requirement_id, story_id, uat_case_id, case_status
		FROM traceability_links WHERE requirement_id = ? ORDER BY position
	`, requirementID)
}

func (s *traceabilityStore) query(ctx context.Context, query string, args ...any) ([]domain.TraceabilityLink, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var links []domain.TraceabilityLink //nolint:prealloc // size unknown from query
	for rows.Next() {
		var link domain.TraceabilityLink
		var storyID, caseID sql.NullString
		var status string
		if err := rows.Scan(&link.RequirementID, &storyID, &caseID, &status); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		link.StoryID = storyID.String
		link.UATCaseID = caseID.String
		link.CaseStatus = domain.UATStatus(status)
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}
