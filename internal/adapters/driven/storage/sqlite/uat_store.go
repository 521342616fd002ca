package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// uatStore implements driven.UATStore.
type uatStore struct {
	store *Store
}

var _ driven.UATStore = (*uatStore)(nil)

const caseColumns = `id, story_id, sequence, criterion, steps, expected_result, status`

// Replace makes the stored cases equal to cases.
func (s *uatStore) Replace(ctx context.Context, cases []domain.UATCase) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is no-op

	stories, err := idSet(ctx, tx, "user_stories")
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(cases))
	for _, c := range cases {
		if !stories[c.StoryID] {
			return fmt.Errorf("case %s links story %s: %w", c.ID, c.StoryID, domain.ErrOrphanReference)
		}
		if c.Status != "" && !c.Status.IsValid() {
			return fmt.Errorf("case %s status %q: %w", c.ID, c.Status, domain.ErrInvalidInput)
		}
		keep[c.ID] = true
	}

	existing, err := idSet(ctx, tx, "uat_cases")
	if err != nil {
		return err
	}
	for id := range existing {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM uat_cases WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting case %s: %w", id, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO uat_cases (`+caseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			story_id = excluded.story_id,
			sequence = excluded.sequence,
			criterion = excluded.criterion,
			steps = excluded.steps,
			expected_result = excluded.expected_result,
			status = excluded.status
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cases {
		steps, err := marshalList(c.Steps)
		if err != nil {
			return fmt.Errorf("marshalling steps: %w", err)
		}
		status := c.Status
		if status == "" {
			status = domain.UATStatusPending
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.StoryID, c.Sequence, c.Criterion,
			steps, c.ExpectedResult, string(status)); err != nil {
			return fmt.Errorf("saving case %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a case by ID.
func (s *uatStore) Get(ctx context.Context, id string) (*domain.UATCase, error) {
	cases, err := s.query(ctx, "SELECT "+caseColumns+" FROM uat_cases WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, domain.ErrNotFound
	}
	return &cases[0], nil
}

// List returns all cases ordered by story then sequence.
func (s *uatStore) List(ctx context.Context) ([]domain.UATCase, error) {
	return s.query(ctx, "SELECT "+caseColumns+" FROM uat_cases")
}

// ListByStory returns a story's cases in sequence order.
func (s *uatStore) ListByStory(ctx context.Context, storyID string) ([]domain.UATCase, error) {
	return s.query(ctx, "SELECT "+caseColumns+" FROM uat_cases WHERE story_id = ?", storyID)
}

// UpdateStatus records an execution result.
func (s *uatStore) UpdateStatus(ctx context.Context, id string, status domain.UATStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("case status %q: %w", status, domain.ErrInvalidInput)
	}

	result, err := s.store.db.ExecContext(ctx, "UPDATE uat_cases SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating case status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *uatStore) query(ctx context.Context, query string, args ...any) ([]domain.UATCase, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}
	return scanCases(rows)
}

func scanCases(rows *sql.Rows) ([]domain.UATCase, error) {
	defer rows.Close()

	var cases []domain.UATCase //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.UATCase
		var steps, status string
		if err := rows.Scan(&c.ID, &c.StoryID, &c.Sequence, &c.Criterion,
			&steps, &c.ExpectedResult, &status); err != nil {
			return nil, fmt.Errorf("scanning case: %w", err)
		}
		list, err := unmarshalList(steps)
		if err != nil {
			return nil, fmt.Errorf("unmarshaling steps: %w", err)
		}
		c.Steps = list
		c.Status = domain.UATStatus(status)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cases: %w", err)
	}

	sort.SliceStable(cases, func(i, j int) bool {
		if cases[i].StoryID != cases[j].StoryID {
			return domain.CompareIDs(cases[i].StoryID, cases[j].StoryID) < 0
		}
		return cases[i].Sequence < cases[j].Sequence
	})
	return cases, nil
}
