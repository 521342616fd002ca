package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "reqtrace-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// seedRequirements inserts requirements to satisfy foreign key constraints.
func seedRequirements(t *testing.T, store *Store, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		err := store.RequirementStore().Insert(ctx, domain.Requirement{
			ID:                 id,
			SourceRef:          "requirements.xlsx",
			Description:        "The system shall do " + id,
			Priority:           domain.PriorityHigh,
			AcceptanceCriteria: []string{"criterion for " + id},
		})
		require.NoError(t, err)
	}
}

// seedStory inserts a story linking the given requirements.
func seedStory(t *testing.T, store *Store, id string, reqIDs ...string) domain.UserStory {
	t.Helper()
	story := domain.UserStory{
		ID:                 id,
		RequirementID:      reqIDs[0],
		RequirementIDs:     reqIDs,
		Role:               "user",
		Action:             "do things",
		Benefit:            "things are done",
		AcceptanceCriteria: []string{"first", "second"},
	}
	require.NoError(t, store.StoryStore().Replace(context.Background(), []domain.UserStory{story}))
	return story
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "reqtrace-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "reqtrace-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nestedDir := filepath.Join(tempDir, "nested", "path", "to", "db")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	tables := []string{
		"requirements",
		"user_stories",
		"story_requirements",
		"uat_cases",
		"traceability_links",
		"compliance_runs",
		"compliance_findings",
		"diagram_nodes",
		"diagram_edges",
	}
	for _, table := range tables {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "reqtrace-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	seedRequirements(t, store, "REQ-1")
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	req, err := store.RequirementStore().Get(context.Background(), "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, "requirements.xlsx", req.SourceRef)
}

func TestMigrate_AppliesPendingOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	fsys := fstest.MapFS{
		"001_initial.up.sql":  {Data: []byte("CREATE TABLE should_not_exist (id TEXT)")},
		"002_extra.up.sql":    {Data: []byte("CREATE TABLE extra (id TEXT)")},
		"notes.txt":           {Data: []byte("ignored")},
		"x_unnumbered.up.sql": {Data: []byte("CREATE TABLE unnumbered (id TEXT)")},
	}
	require.NoError(t, store.migrate(fsys))

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	var count int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('extra', 'should_not_exist', 'unnumbered')",
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_FailedMigrationIsNotRecorded(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	fsys := fstest.MapFS{
		"002_broken.up.sql": {Data: []byte("CREATE TABLE broken (")},
	}
	err := store.migrate(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_broken.up.sql")

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var fkEnabled int
	err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	require.NoError(t, err)
	assert.Equal(t, 1, fkEnabled)
}

func TestStore_Close(t *testing.T) {
	store, _ := setupTestStore(t)

	require.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

// ==================== Requirement Store Tests ====================

func TestRequirementStore_InsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	req := domain.Requirement{
		ID:                 "REQ-7",
		SourceRef:          "reqs.docx",
		Description:        "Users can export reports",
		Category:           "reporting",
		Priority:           domain.PriorityMedium,
		FeatureTag:         "export",
		AcceptanceCriteria: []string{"CSV export", "PDF export"},
		Rationale:          "auditors need offline copies",
		ImportedAt:         now,
	}
	require.NoError(t, store.RequirementStore().Insert(ctx, req))

	got, err := store.RequirementStore().Get(ctx, "REQ-7")
	require.NoError(t, err)
	assert.Equal(t, req.Description, got.Description)
	assert.Equal(t, req.Category, got.Category)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
	assert.Equal(t, "export", got.FeatureTag)
	assert.Equal(t, []string{"CSV export", "PDF export"}, got.AcceptanceCriteria)
	assert.Equal(t, req.Rationale, got.Rationale)
	assert.Equal(t, domain.RequirementStatusImported, got.Status)
	assert.WithinDuration(t, now, got.ImportedAt, time.Second)
}

func TestRequirementStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.RequirementStore().Get(context.Background(), "REQ-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequirementStore_InsertIsImmutable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1")

	err := store.RequirementStore().Insert(ctx, domain.Requirement{
		ID:          "REQ-1",
		SourceRef:   "other.csv",
		Description: "changed text",
		Priority:    domain.PriorityLow,
	})
	assert.ErrorIs(t, err, domain.ErrImmutable)

	got, err := store.RequirementStore().Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, "requirements.xlsx", got.SourceRef)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
}

func TestRequirementStore_ListNaturalOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	seedRequirements(t, store, "REQ-10", "REQ-2", "REQ-1")

	reqs, err := store.RequirementStore().List(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, "REQ-1", reqs[0].ID)
	assert.Equal(t, "REQ-2", reqs[1].ID)
	assert.Equal(t, "REQ-10", reqs[2].ID)
}

func TestRequirementStore_ListBySource(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1")
	require.NoError(t, store.RequirementStore().Insert(ctx, domain.Requirement{
		ID: "REQ-2", SourceRef: "flows.drawio", Description: "Approve orders", Priority: domain.PriorityLow,
	}))

	reqs, err := store.RequirementStore().ListBySource(ctx, "flows.drawio")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "REQ-2", reqs[0].ID)
	assert.Nil(t, reqs[0].AcceptanceCriteria)
}

func TestRequirementStore_UpdateStatus(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedRequirements(t, store, "REQ-1")
	rs := store.RequirementStore()

	require.NoError(t, rs.UpdateStatus(ctx, "REQ-1", domain.RequirementStatusApproved))
	got, err := rs.Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequirementStatusApproved, got.Status)

	assert.ErrorIs(t, rs.UpdateStatus(ctx, "REQ-9", domain.RequirementStatusApproved), domain.ErrNotFound)
	assert.ErrorIs(t, rs.UpdateStatus(ctx, "REQ-1", "shipped"), domain.ErrInvalidInput)
}
