package drawio

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

const plainModel = `<mxGraphModel><root>
<mxCell id="0"/>
<mxCell id="1" parent="0"/>
<mxCell id="e1" value="depends on" edge="1" source="n1" target="n2" parent="1"/>
<mxCell id="n1" value="&lt;b&gt;REQ-1&lt;/b&gt;: User can&amp;nbsp;log in&lt;br&gt;with SSO" style="rounded=1;whiteSpace=wrap;html=1;" vertex="1" parent="1"><mxGeometry x="0" y="0" width="120" height="60" as="geometry"/></mxCell>
<object id="n2" label="Audit store" req_id="AUD-3" priority="high" category="audit" owner="ops">
  <mxCell style="shape=cylinder3;whiteSpace=wrap;" vertex="1" parent="1"/>
</object>
<mxCell id="n3" value="Decision" style="rhombus;html=1;" vertex="1" parent="1"/>
<mxCell id="e2" edge="1" source="n3" target="missing" parent="1"/>
</root></mxGraphModel>`

func parse(t *testing.T, content string) (*domain.ParseResult, error) {
	t.Helper()
	return New().Parse(context.Background(), &domain.SourceDocument{Name: "flow.drawio", Content: []byte(content)})
}

func compress(t *testing.T, xml string) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	_, err = w.Write([]byte(url.PathEscape(xml)))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestParser_Metadata(t *testing.T) {
	p := New()
	assert.Equal(t, domain.FormatDiagram, p.Format())
	assert.Equal(t, []string{".drawio", ".xml"}, p.Extensions())
}

func TestParser_InlineModel(t *testing.T) {
	content := `<mxfile host="app.diagrams.net"><diagram name="Login" id="d1">` + plainModel + `</diagram></mxfile>`

	result, err := parse(t, content)
	require.NoError(t, err)

	require.Len(t, result.Nodes, 3)
	n1 := result.Nodes[0]
	assert.Equal(t, "n1", n1.ID)
	assert.Equal(t, "Login", n1.Page)
	assert.Equal(t, "REQ-1: User can log in with SSO", n1.Label)
	assert.Equal(t, "rectangle", n1.Shape)
	assert.Equal(t, "REQ-1", n1.RequirementID)

	n2 := result.Nodes[1]
	assert.Equal(t, "cylinder3", n2.Shape)
	assert.Equal(t, "Audit store", n2.Label)
	assert.Equal(t, "AUD-3", n2.RequirementID)
	assert.Equal(t, map[string]string{"req_id": "AUD-3", "priority": "high", "category": "audit", "owner": "ops"}, n2.Attributes)

	assert.Equal(t, "rhombus", result.Nodes[2].Shape)
	assert.Empty(t, result.Nodes[2].RequirementID)

	require.Len(t, result.Edges, 1)
	assert.Equal(t, domain.DiagramEdge{
		ID: "e1", DocumentRef: "flow.drawio", Page: "Login", SourceID: "n1", TargetID: "n2", Label: "depends on",
	}, result.Edges[0])

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "e2", result.Warnings[0].RecordID)
	assert.Contains(t, result.Warnings[0].Reason, "dangling edge")

	require.Len(t, result.Requirements, 2)
	assert.Equal(t, "REQ-1", result.Requirements[0].ID)
	assert.Equal(t, "User can log in with SSO", result.Requirements[0].Description)
	assert.Equal(t, domain.PriorityMedium, result.Requirements[0].Priority)
	assert.Equal(t, "AUD-3", result.Requirements[1].ID)
	assert.Equal(t, "Audit store", result.Requirements[1].Description)
	assert.Equal(t, domain.PriorityHigh, result.Requirements[1].Priority)
	assert.Equal(t, "audit", result.Requirements[1].Category)
}

func TestParser_CompressedModel(t *testing.T) {
	content := `<mxfile><diagram name="Compressed">` + compress(t, plainModel) + `</diagram></mxfile>`

	result, err := parse(t, content)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 3)
	assert.Len(t, result.Edges, 1)
	assert.Equal(t, "Compressed", result.Nodes[0].Page)
}

func TestParser_BareGraphModel(t *testing.T) {
	result, err := parse(t, plainModel)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 3)
	assert.Equal(t, "Page-1", result.Nodes[0].Page)
}

func TestParser_MultiplePages(t *testing.T) {
	content := `<mxfile>
<diagram><mxGraphModel><root><mxCell id="a" value="A" vertex="1"/></root></mxGraphModel></diagram>
<diagram name="Second"><mxGraphModel><root><mxCell id="a" value="REQ-2: Second page" vertex="1"/></root></mxGraphModel></diagram>
</mxfile>`

	result, err := parse(t, content)
	require.NoError(t, err)
	require.Len(t, result.Nodes, 2)
	assert.Equal(t, "Page-1", result.Nodes[0].Page)
	assert.Equal(t, "Second", result.Nodes[1].Page)
	require.Len(t, result.Requirements, 1)
	assert.Equal(t, "REQ-2", result.Requirements[0].ID)
}

func TestParser_RequirementWarnings(t *testing.T) {
	content := `<mxGraphModel><root>
<mxCell id="a" value="REQ-1" vertex="1"/>
<object id="b" label="Bad" req_id="REQ-2" priority="eventually"><mxCell vertex="1"/></object>
<mxCell id="c" value="REQ-3: First" vertex="1"/>
<mxCell id="d" value="REQ-3: Again" vertex="1"/>
</root></mxGraphModel>`

	result, err := parse(t, content)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 4)
	require.Len(t, result.Requirements, 1)
	require.Len(t, result.Warnings, 3)
	assert.Contains(t, result.Warnings[0].Reason, "missing description")
	assert.Contains(t, result.Warnings[1].Reason, "unknown priority")
	assert.Contains(t, result.Warnings[2].Reason, "duplicate id")
}

func TestParser_NoModel(t *testing.T) {
	_, err := parse(t, `<mxfile><diagram name="Empty"></diagram></mxfile>`)
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))
	assert.ErrorIs(t, err, errNoModel)
}

func TestParser_Malformed(t *testing.T) {
	_, err := parse(t, `<mxfile><diagram>`)
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))

	_, err = parse(t, `<svg></svg>`)
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))

	_, err = parse(t, `<mxfile><diagram>!!notbase64!!</diagram></mxfile>`)
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))
}

func TestShapeOf(t *testing.T) {
	assert.Equal(t, "ellipse", shapeOf("ellipse;whiteSpace=wrap;"))
	assert.Equal(t, "cylinder3", shapeOf("whiteSpace=wrap;shape=cylinder3;"))
	assert.Equal(t, "rectangle", shapeOf("rounded=0;html=1;"))
	assert.Equal(t, "rectangle", shapeOf(""))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "a b & c", stripHTML("<div>a</div><div>b &amp;&nbsp;c</div>"))
}
