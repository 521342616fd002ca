package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/services"
)

func TestImportCmd_ImportsFiles(t *testing.T) {
	rt := setupCLI(t)
	path := writeFile(t, t.TempDir(), "reqs.csv", requirementsCSV)

	out, err := execute(t, "import", path)

	require.NoError(t, err)
	assert.Contains(t, out, "2 imported, 0 unchanged, 0 skipped")
	assert.Contains(t, out, "Documents: 1, imported: 2, skipped: 0, failed: 0")
	assert.Equal(t, 1, rt.opened)
	assert.Equal(t, 1, rt.closed)

	reqs, err := rt.store.RequirementStore().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestImportCmd_ReimportIsUnchanged(t *testing.T) {
	setupCLI(t)
	path := writeFile(t, t.TempDir(), "reqs.csv", requirementsCSV)

	_, err := execute(t, "import", path)
	require.NoError(t, err)
	out, err := execute(t, "import", path)

	require.NoError(t, err)
	assert.Contains(t, out, "0 imported, 2 unchanged")
}

func TestImportCmd_Glob(t *testing.T) {
	setupCLI(t)
	dir := t.TempDir()
	writeFile(t, dir, "a/one.csv", "ID,Description,Priority\nREQ-1,User can log in,high\n")
	writeFile(t, dir, "b/c/two.csv", "ID,Description,Priority\nREQ-2,User can log out,low\n")

	out, err := execute(t, "import", "--glob", filepath.Join(dir, "**", "*.csv"))

	require.NoError(t, err)
	assert.Contains(t, out, "one.csv")
	assert.Contains(t, out, "two.csv")
	assert.Contains(t, out, "imported: 2")
}

func TestImportCmd_PartialFailureSucceeds(t *testing.T) {
	setupCLI(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "reqs.csv", requirementsCSV)

	out, err := execute(t, "import", good, filepath.Join(dir, "missing.csv"))

	require.NoError(t, err)
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "failed: 1")
}

func TestImportCmd_AllFailed(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "import", filepath.Join(t.TempDir(), "missing.csv"))

	assert.ErrorIs(t, err, services.ErrImportFailed)
	assert.Contains(t, out, "FAILED")
}

func TestImportCmd_NoInputs(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}
