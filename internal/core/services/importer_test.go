package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/parsers"
)

const sampleCSV = "ID,Description,Priority\n" +
	"REQ-1,User can reset password,high\n" +
	"REQ-2,Admin can export audit logs,whenever\n" +
	"REQ-3,User can log out,low\n"

const sampleDiagram = `<mxfile><diagram name="Flow"><mxGraphModel><root>
<mxCell id="0"/><mxCell id="1" parent="0"/>
<mxCell id="a" value="REQ-10: Orders are persisted" vertex="1" parent="1"/>
<mxCell id="b" value="Billing" vertex="1" parent="1"/>
<mxCell id="e" edge="1" source="a" target="b" parent="1"/>
</root></mxGraphModel></diagram></mxfile>`

func newTestImporter() (*ImportService, Stores) {
	stores := newTestStores()
	return NewImportService(parsers.NewDefaultRegistry(), stores.Requirements, stores.Diagrams), stores
}

func TestImportService_Import(t *testing.T) {
	svc, stores := newTestImporter()
	ctx := context.Background()

	result, err := svc.Import(ctx, []domain.SourceDocument{
		{Name: "reqs.csv", Content: []byte(sampleCSV)},
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	assert.Equal(t, domain.FormatCSV, doc.Format)
	assert.Equal(t, 2, doc.Imported)
	assert.Equal(t, 1, doc.Skipped)
	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, "REQ-2", doc.Warnings[0].RecordID)
	assert.False(t, doc.Failed())

	reqs, err := stores.Requirements.List(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "reqs.csv", reqs[0].SourceRef)
	assert.Equal(t, domain.RequirementStatusImported, reqs[0].Status)
}

func TestImportService_ReimportIsUnchanged(t *testing.T) {
	svc, _ := newTestImporter()
	ctx := context.Background()
	docs := []domain.SourceDocument{{Name: "reqs.csv", Content: []byte(sampleCSV)}}

	_, err := svc.Import(ctx, docs)
	require.NoError(t, err)
	result, err := svc.Import(ctx, docs)
	require.NoError(t, err)

	doc := result.Documents[0]
	assert.Equal(t, 0, doc.Imported)
	assert.Equal(t, 2, doc.Unchanged)
}

func TestImportService_ChangedRequirementIsSkipped(t *testing.T) {
	svc, stores := newTestImporter()
	ctx := context.Background()

	_, err := svc.Import(ctx, []domain.SourceDocument{{Name: "reqs.csv", Content: []byte(sampleCSV)}})
	require.NoError(t, err)

	changed := "ID,Description,Priority\nREQ-1,User can reset password by SMS,high\n"
	result, err := svc.Import(ctx, []domain.SourceDocument{{Name: "reqs-v2.csv", Content: []byte(changed)}})
	require.NoError(t, err)

	doc := result.Documents[0]
	assert.Equal(t, 1, doc.Skipped)
	require.Len(t, doc.Warnings, 1)
	assert.Contains(t, doc.Warnings[0].Reason, "immutable")
	assert.Equal(t, 2, doc.Warnings[0].Row)
	assert.Contains(t, doc.Warnings[0].Error(), "reqs-v2.csv row 2 (REQ-1)")

	req, err := stores.Requirements.Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, "User can reset password", req.Description)
}

func TestImportService_FailedDocumentDoesNotAbortBatch(t *testing.T) {
	svc, _ := newTestImporter()

	result, err := svc.Import(context.Background(), []domain.SourceDocument{
		{Name: "notes.txt", Content: []byte("hello")},
		{Name: "broken.csv", Content: []byte("Name,Owner\nx,y\n")},
		{Name: "reqs.csv", Content: []byte(sampleCSV)},
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 3)

	assert.ErrorIs(t, result.Documents[0].Err, domain.ErrUnsupportedFormat)
	assert.True(t, domain.IsFormatError(result.Documents[1].Err))
	assert.Equal(t, 2, result.Documents[2].Imported)
	assert.Equal(t, 2, result.Failed())
	assert.False(t, result.AllFailed())
}

func TestImportService_StoresDiagramGraph(t *testing.T) {
	svc, stores := newTestImporter()
	ctx := context.Background()

	result, err := svc.Import(ctx, []domain.SourceDocument{{Name: "flow.drawio", Content: []byte(sampleDiagram)}})
	require.NoError(t, err)

	doc := result.Documents[0]
	require.NoError(t, doc.Err)
	assert.Equal(t, 2, doc.Nodes)
	assert.Equal(t, 1, doc.Edges)
	assert.Equal(t, 1, doc.Imported)

	nodes, err := stores.Diagrams.ListNodes(ctx, "flow.drawio")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	req, err := stores.Requirements.Get(ctx, "REQ-10")
	require.NoError(t, err)
	assert.Equal(t, "flow.drawio", req.SourceRef)
}

func TestImportService_ImportFiles(t *testing.T) {
	svc, _ := newTestImporter()
	dir := t.TempDir()
	path := filepath.Join(dir, "reqs.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	result, err := svc.ImportFiles(context.Background(), []string{path, filepath.Join(dir, "missing.csv")})
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, 2, result.Documents[0].Imported)
	assert.True(t, result.Documents[1].Failed())
	assert.Equal(t, domain.FormatCSV, result.Documents[1].Format)
}

func TestImportService_CancelledContext(t *testing.T) {
	svc, _ := newTestImporter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Import(ctx, []domain.SourceDocument{{Name: "reqs.csv", Content: []byte(sampleCSV)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	for _, name := range []string{"a/one.csv", "a/b/two.csv", "a/b/skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	paths, err := ExpandInputs([]string{
		filepath.Join(dir, "**", "*.csv"),
		filepath.Join(dir, "a", "one.csv"),
		filepath.Join(dir, "literal.xlsx"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "b", "two.csv"),
		filepath.Join(dir, "a", "one.csv"),
		filepath.Join(dir, "literal.xlsx"),
	}, paths)

	_, err = ExpandInputs([]string{"[unterminated"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
