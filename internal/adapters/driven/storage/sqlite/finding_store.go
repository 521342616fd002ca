package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// findingStore implements driven.FindingStore.
// Runs and findings are only ever inserted.
type findingStore struct {
	store *Store
}

var _ driven.FindingStore = (*findingStore)(nil)

const findingColumns = `f.id, f.run_id, f.framework, f.rule_id, f.target_id, f.status,
	f.evidence, f.reason, f.evaluated_at`

// SaveRun records a run and its findings.
func (s *findingStore) SaveRun(ctx context.Context, run domain.ComplianceRun, findings []domain.ComplianceFinding) error {
	if run.ID == "" || run.Framework == "" {
		return fmt.Errorf("run needs an id and a framework: %w", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is no-op

	requirements, err := idSet(ctx, tx, "requirements")
	if err != nil {
		return err
	}
	for _, f := range findings {
		if f.ID == "" {
			return fmt.Errorf("finding %s/%s has no id: %w", f.RuleID, f.TargetID, domain.ErrInvalidInput)
		}
		if !requirements[f.TargetID] {
			return fmt.Errorf("finding %s targets %s: %w", f.RuleID, f.TargetID, domain.ErrOrphanReference)
		}
		if !f.Status.IsValid() {
			return fmt.Errorf("finding %s status %q: %w", f.RuleID, f.Status, domain.ErrInvalidInput)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compliance_runs (id, framework, started_at, rule_count, targets, pass, fail, not_applicable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Framework, run.StartedAt.UTC(), run.RuleCount, run.Targets,
		run.Summary.Pass, run.Summary.Fail, run.Summary.NotApplicable)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO compliance_findings
			(id, run_id, position, framework, rule_id, target_id, status, evidence, reason, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, f := range findings {
		if _, err := stmt.ExecContext(ctx, f.ID, run.ID, i, f.Framework, f.RuleID, f.TargetID,
			string(f.Status), f.Evidence, f.Reason, f.EvaluatedAt.UTC()); err != nil {
			return fmt.Errorf("saving finding %s/%s: %w", f.RuleID, f.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListRuns returns runs for a framework, newest first.
func (s *findingStore) ListRuns(ctx context.Context, framework string) ([]domain.ComplianceRun, error) {
	query := `SELECT id, framework, started_at, rule_count, targets, pass, fail, not_applicable
		FROM compliance_runs`
	var args []any
	if framework != "" {
		query += " WHERE framework = ?"
		args = append(args, framework)
	}
	query += " ORDER BY started_at DESC, rowid DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ComplianceRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.ComplianceRun
		var startedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Framework, &startedAt, &run.RuleCount, &run.Targets,
			&run.Summary.Pass, &run.Summary.Fail, &run.Summary.NotApplicable); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if startedAt.Valid {
			run.StartedAt = startedAt.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// ListByRun returns the findings of one run in evaluation order.
func (s *findingStore) ListByRun(ctx context.Context, runID string) ([]domain.ComplianceFinding, error) {
	return s.query(ctx, "SELECT "+findingColumns+` FROM compliance_findings f
		WHERE f.run_id = ? ORDER BY f.position`, runID)
}

// LatestByFramework returns the findings of the newest run of a framework.
// A framework that never ran has no findings.
func (s *findingStore) LatestByFramework(ctx context.Context, framework string) ([]domain.ComplianceFinding, error) {
	var runID string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id FROM compliance_runs WHERE framework = ?
		ORDER BY started_at DESC, rowid DESC LIMIT 1
	`, framework).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest run: %w", err)
	}
	return s.ListByRun(ctx, runID)
}

// ListByTarget returns every finding recorded against a requirement, newest first.
func (s *findingStore) ListByTarget(ctx context.Context, targetID string) ([]domain.ComplianceFinding, error) {
	return s.query(ctx, "SELECT "+findingColumns+` FROM compliance_findings f
		JOIN compliance_runs r ON r.id = f.run_id
		WHERE f.target_id = ?
		ORDER BY r.started_at DESC, r.rowid DESC, f.position`, targetID)
}

func (s *findingStore) query(ctx context.Context, query string, args ...any) ([]domain.ComplianceFinding, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []domain.ComplianceFinding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.ComplianceFinding
		var status string
		var evaluatedAt sql.NullTime
		if err := rows.Scan(&f.ID, &f.RunID, &f.Framework, &f.RuleID, &f.TargetID, &status,
			&f.Evidence, &f.Reason, &evaluatedAt); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.Status = domain.FindingStatus(status)
		if evaluatedAt.Valid {
			f.EvaluatedAt = evaluatedAt.Time
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}
	return findings, nil
}
