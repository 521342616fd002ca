package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func testRun(id, framework string, started time.Time, targets ...string) (domain.ComplianceRun, []domain.ComplianceFinding) {
	findings := make([]domain.ComplianceFinding, 0, len(targets))
	for i, target := range targets {
		status := domain.FindingPass
		if i%2 == 1 {
			status = domain.FindingFail
		}
		findings = append(findings, domain.ComplianceFinding{
			ID:          id + "-" + target,
			RunID:       id,
			Framework:   framework,
			RuleID:      "AUD-01",
			TargetID:    target,
			Status:      status,
			Evidence:    "evidence for " + target,
			EvaluatedAt: started,
		})
	}
	run := domain.ComplianceRun{
		ID:        id,
		Framework: framework,
		StartedAt: started,
		RuleCount: 1,
		Targets:   len(targets),
		Summary:   domain.Summarise(findings),
	}
	return run, findings
}

func TestFindingStore_SaveRunAndList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1", "REQ-2")
	fs := store.FindingStore()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	run1, findings1 := testRun("run-1", "audit", base, "REQ-1", "REQ-2")
	run2, findings2 := testRun("run-2", "audit", base.Add(time.Hour), "REQ-2")
	run3, findings3 := testRun("run-3", "privacy", base.Add(2*time.Hour), "REQ-1")
	require.NoError(t, fs.SaveRun(ctx, run1, findings1))
	require.NoError(t, fs.SaveRun(ctx, run2, findings2))
	require.NoError(t, fs.SaveRun(ctx, run3, findings3))

	runs, err := fs.ListRuns(ctx, "audit")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, domain.FindingSummary{Pass: 1, Fail: 1}, runs[1].Summary)
	assert.True(t, runs[1].StartedAt.Equal(base))

	all, err := fs.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "run-3", all[0].ID)

	byRun, err := fs.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, byRun, 2)
	assert.Equal(t, "REQ-1", byRun[0].TargetID)
	assert.Equal(t, domain.FindingFail, byRun[1].Status)
	assert.Equal(t, "evidence for REQ-2", byRun[1].Evidence)

	latest, err := fs.LatestByFramework(ctx, "audit")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "run-2", latest[0].RunID)

	byTarget, err := fs.ListByTarget(ctx, "REQ-2")
	require.NoError(t, err)
	require.Len(t, byTarget, 2)
	assert.Equal(t, "run-2", byTarget[0].RunID)
	assert.Equal(t, "run-1", byTarget[1].RunID)
}

func TestFindingStore_LatestByFrameworkWithoutRuns(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	findings, err := store.FindingStore().LatestByFramework(context.Background(), "erecords")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestFindingStore_SaveRunRejectsOrphans(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1")
	run, findings := testRun("run-1", "audit", time.Now().UTC(), "REQ-1", "REQ-9")

	err := store.FindingStore().SaveRun(ctx, run, findings)
	assert.ErrorIs(t, err, domain.ErrOrphanReference)

	runs, err := store.FindingStore().ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFindingStore_SaveRunIsAppendOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1")
	run, findings := testRun("run-1", "audit", time.Now().UTC(), "REQ-1")
	require.NoError(t, store.FindingStore().SaveRun(ctx, run, findings))

	assert.Error(t, store.FindingStore().SaveRun(ctx, run, findings))
}

func TestFindingStore_SaveRunValidatesInput(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1")
	fs := store.FindingStore()

	err := fs.SaveRun(ctx, domain.ComplianceRun{Framework: "audit"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	run, findings := testRun("run-1", "audit", time.Now().UTC(), "REQ-1")
	findings[0].Status = "maybe"
	assert.ErrorIs(t, fs.SaveRun(ctx, run, findings), domain.ErrInvalidInput)

	findings[0].Status = domain.FindingPass
	findings[0].ID = ""
	assert.ErrorIs(t, fs.SaveRun(ctx, run, findings), domain.ErrInvalidInput)
}
