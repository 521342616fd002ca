package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// requirementStore implements driven.RequirementStore.
type requirementStore struct {
	store *Store
}

var _ driven.RequirementStore = (*requirementStore)(nil)

const requirementColumns = `id, source_ref, description, category, priority, feature_tag,
	acceptance_criteria, rationale, status, imported_at`

// Insert stores a new requirement. Existing ids are never overwritten.
func (s *requirementStore) Insert(ctx context.Context, req domain.Requirement) error {
	criteria, err := marshalList(req.AcceptanceCriteria)
	if err != nil {
		return fmt.Errorf("marshalling acceptance criteria: %w", err)
	}
	if req.Status == "" {
		req.Status = domain.RequirementStatusImported
	}
	if req.ImportedAt.IsZero() {
		req.ImportedAt = time.Now().UTC()
	}

	result, err := s.store.db.ExecContext(ctx, `
		INSERT INTO requirements (`+requirementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, req.ID, req.SourceRef, req.Description, req.Category, string(req.Priority), req.FeatureTag,
		criteria, req.Rationale, string(req.Status), req.ImportedAt)
	if err != nil {
		return fmt.Errorf("inserting requirement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("requirement %s: %w", req.ID, domain.ErrImmutable)
	}
	return nil
}

// Get retrieves a requirement by ID.
func (s *requirementStore) Get(ctx context.Context, id string) (*domain.Requirement, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+requirementColumns+" FROM requirements WHERE id = ?", id)

	req, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// List returns all requirements in natural ID order.
func (s *requirementStore) List(ctx context.Context) ([]domain.Requirement, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+requirementColumns+" FROM requirements")
	if err != nil {
		return nil, fmt.Errorf("querying requirements: %w", err)
	}
	return scanRequirements(rows)
}

// ListBySource returns the requirements imported from one document.
func (s *requirementStore) ListBySource(ctx context.Context, sourceRef string) ([]domain.Requirement, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+requirementColumns+" FROM requirements WHERE source_ref = ?", sourceRef)
	if err != nil {
		return nil, fmt.Errorf("querying requirements: %w", err)
	}
	return scanRequirements(rows)
}

// UpdateStatus changes the status field only.
func (s *requirementStore) UpdateStatus(ctx context.Context, id string, status domain.RequirementStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("requirement status %q: %w", status, domain.ErrInvalidInput)
	}

	result, err := s.store.db.ExecContext(ctx,
		"UPDATE requirements SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating requirement status: %w", err)
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

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*domain.Requirement, error) {
	var req domain.Requirement
	var priority, status, criteria string
	var importedAt sql.NullTime
	if err := row.Scan(&req.ID, &req.SourceRef, &req.Description, &req.Category, &priority,
		&req.FeatureTag, &criteria, &req.Rationale, &status, &importedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning requirement: %w", err)
	}

	list, err := unmarshalList(criteria)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling acceptance criteria: %w", err)
	}
	req.AcceptanceCriteria = list
	req.Priority = domain.Priority(priority)
	req.Status = domain.RequirementStatus(status)
	if importedAt.Valid {
		req.ImportedAt = importedAt.Time
	}
	return &req, nil
}

func scanRequirements(rows *sql.Rows) ([]domain.Requirement, error) {
	defer rows.Close()

	var reqs []domain.Requirement //nolint:prealloc // size unknown from query
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating requirements: %w", err)
	}

	sort.SliceStable(reqs, func(i, j int) bool {
		return domain.CompareIDs(reqs[i].ID, reqs[j].ID) < 0
	})
	return reqs, nil
}
