package graph

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottjrodgers/what-not-how/dsl"
	"github.com/scottjrodgers/what-not-how/model"
)

// --- helpers ---

func parse(t *testing.T, src string) *model.Model {
	t.Helper()
	res, err := dsl.ParseString(strings.TrimPrefix(src, "\n"))
	require.NoError(t, err)
	require.False(t, res.HasErrors(), "diagnostics: %v", res.Diagnostics)
	return res.Model
}

func names(ps []*model.Process) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func dataNames(ds []*model.DataObject) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func emit(t *testing.T, e Emitter, v *View) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Emit(&buf, v))
	return buf.String()
}

// pipeline has a straight three-stage flow. Ids: Fetch 2, Request 3,
// Raw 4, Clean 5, Tidy 6, Report 7, Config 8, Summary 9.
const pipeline = `
process Fetch:
    input: Request
    output: Raw
process Clean:
    input: Raw
    output: Tidy?
process Report:
    input: Tidy, Config*
    output: Summary+
`

// nested has a process implemented by a group with its own subgroup.
// Ids: Ingest 2, Files 3, Rows 4, ingest 5, Read 6, Bytes 7, decode 8,
// Split 9.
const nested = `
options:
    recurse: true
    flatten: 1
process Ingest:
    input: Files
    output: Rows
group ingest:
    implements: Ingest
    process Read:
        input: Files
        output: Bytes
    group decode:
        process Split:
            input: Bytes
            output: Rows
`

// --- view selection ---

func TestSelect_OrdersProcessesByRank(t *testing.T) {
	m := parse(t, `
process Report:
    input: Tidy
    output: Summary
process Clean:
    input: Raw
    output: Tidy
process Fetch:
    input: Request
    output: Raw
`)
	v := Select(m, m.Root(), m.EffectiveOptions(m.Root(), ""))

	assert.Equal(t, []string{"Fetch", "Clean", "Report"}, names(v.Processes))
	assert.Equal(t, []string{"Request", "Raw", "Tidy", "Summary"}, dataNames(v.Data))
	assert.Equal(t, 2, v.ProcessRank(m.Root().Process("Report")))
}

func TestSelect_FlattenDepth(t *testing.T) {
	m := parse(t, nested)
	root := m.Root()

	v := Select(m, root, model.Effective{Flatten: 0})
	assert.Len(t, v.Groups, 1)
	assert.Equal(t, []string{"Ingest"}, names(v.Processes))
	require.Len(t, v.Frontier(), 1)
	assert.Equal(t, "ingest", v.Frontier()[0].Name)
	assert.True(t, v.ImplementedOutside(root.Process("Ingest")))

	v = Select(m, root, model.Effective{Flatten: 1})
	assert.Len(t, v.Groups, 2)
	assert.Equal(t, []string{"Ingest", "Read"}, names(v.Processes))
	assert.False(t, v.ImplementedOutside(root.Process("Ingest")))
	assert.Equal(t, []string{"decode"}, []string{v.Frontier()[0].Name})
	assert.True(t, v.Contains(root.Group("ingest")))
	assert.False(t, v.Contains(v.Frontier()[0]))

	v = Select(m, root, model.Effective{Flatten: model.FlattenAll})
	assert.Len(t, v.Groups, 3)
	assert.Empty(t, v.Frontier())
}

func TestSelect_ForeignDataDrawnAtTop(t *testing.T) {
	m := parse(t, nested)
	decode := m.Root().Group("ingest").Group("decode")

	v := Select(m, decode, model.Effective{})
	assert.Equal(t, []string{"Bytes", "Rows"}, dataNames(v.DataOf(decode)))
	assert.Equal(t, decode.ID, v.Owner(v.Data[0]))
}

func TestPlan_RecursesIntoFrontier(t *testing.T) {
	m := parse(t, nested)
	views := Plan(m, "sys")

	require.Len(t, views, 2)
	assert.Equal(t, "sys", views[0].Options.Base)
	assert.Equal(t, "sys_decode", views[1].Options.Base)
	assert.Equal(t, "sys_decode.svg", views[1].Options.SVGName)
	assert.Equal(t, "decode", views[1].Options.Title)
	assert.Equal(t, []string{"Split"}, names(views[1].Processes))
}

func TestPlan_WithoutRecurseDrawsOnlyRoot(t *testing.T) {
	m := parse(t, pipeline)
	views := Plan(m, "")

	require.Len(t, views, 1)
	assert.Equal(t, "output", views[0].Options.Base)
	assert.Equal(t, model.ToolMermaid, views[0].Options.Tool)
}

// --- analysis ---

func TestPrimaryInputsAndOutputs(t *testing.T) {
	m := parse(t, pipeline)
	v := Select(m, m.Root(), model.Effective{})

	assert.Equal(t, []string{"Request", "Config"}, dataNames(PrimaryInputs(v)))
	assert.Equal(t, []string{"Summary"}, dataNames(PrimaryOutputs(v)))
}

func TestRank_BreaksCycles(t *testing.T) {
	m := parse(t, `
process A:
    input: X
    output: Y
process B:
    input: Y
    output: X
`)
	v := Select(m, m.Root(), model.Effective{})
	rank := Rank(v)

	assert.Equal(t, 1, rank[m.Root().Process("A").ID])
	assert.Equal(t, 0, rank[m.Root().Process("B").ID])
	assert.Equal(t, []string{"B", "A"}, names(v.Processes))

	again := Rank(v)
	assert.Equal(t, rank, again)
	for _, p := range v.Processes {
		assert.Equal(t, v.ProcessRank(p), again[p.ID], p.Name)
	}
}

// --- emitters ---

func TestNewEmitter(t *testing.T) {
	e, err := NewEmitter("d2")
	require.NoError(t, err)
	assert.IsType(t, D2{}, e)

	e, err = NewEmitter("")
	require.NoError(t, err)
	assert.IsType(t, Mermaid{}, e)

	_, err = NewEmitter("graphviz")
	var unknown *UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "graphviz", unknown.Tool)
}

func TestMermaid_Pipeline(t *testing.T) {
	m := parse(t, pipeline)
	out := emit(t, Mermaid{}, Select(m, m.Root(), model.Effective{}))

	assert.True(t, strings.HasPrefix(out, "graph TB\n"))
	for _, want := range []string{
		`    D3["Request"]`,
		`    P2{{"Fetch"}}`,
		`    D3 --> P2`,
		`    P2 --> D4`,
		`    P5 -.-> D6`,
		`    D8 -.->|"*"| P7`,
		`    P7 -->|"*"| D9`,
		`    class D3,D4,D6,D8,D9 undefined`,
		`    class D8,D9 stackable`,
		`    class D3,D8 primaryInput`,
		`    class D9 primaryOutput`,
	} {
		assert.Contains(t, out, want+"\n")
	}
	assert.NotContains(t, out, "title:")
}

func TestMermaid_SubgraphsAndImplemented(t *testing.T) {
	m := parse(t, nested)
	root := m.Root()

	out := emit(t, Mermaid{}, Select(m, root, model.Effective{Title: "System", Flatten: 1}))
	assert.True(t, strings.HasPrefix(out, "---\ntitle: System\n---\ngraph TB\n"))
	assert.Contains(t, out, "    subgraph G5 [\"ingest\"]\n        D7[\"Bytes\"]\n        P6{{\"Read\"}}\n    end\n")
	assert.NotContains(t, out, "implemented\n")

	out = emit(t, Mermaid{}, Select(m, root, model.Effective{}))
	assert.NotContains(t, out, "subgraph")
	assert.Contains(t, out, "    class P2 implemented\n")
}

func TestMermaid_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `"say #quot;hi#quot;"`, mermaidLabel(`say "hi"`))
}

func TestD2_Containers(t *testing.T) {
	m := parse(t, nested)
	out := emit(t, D2{}, Select(m, m.Root(), model.Effective{Tool: model.ToolD2, Flatten: 1}))

	assert.True(t, strings.HasPrefix(out, "direction: down\n"))
	for _, want := range []string{
		"D3: \"Files\" {\n    shape: rectangle\n    style.stroke-dash: 3\n    style.fill: \"#e3f2fd\"\n}",
		"P2: \"Ingest\" {\n    shape: hexagon\n}",
		"G5: \"ingest\" {\n    D7: \"Bytes\" {",
		"\nD3 -> P2\n",
		"\nP2 -> D4\n",
		"\nD3 -> G5.P6\n",
		"\nG5.P6 -> G5.D7\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestD2_StylesAndTitle(t *testing.T) {
	m := parse(t, pipeline)
	out := emit(t, D2{}, Select(m, m.Root(), model.Effective{Title: "Flow"}))

	assert.Contains(t, out, "title: \"Flow\" {\n    shape: text\n")
	assert.Contains(t, out, "D8 -> P7: \"*\" {style.stroke-dash: 3}\n")
	assert.Contains(t, out, "P7 -> D9: \"*\"\n")
	assert.Contains(t, out, "P5 -> D6 {style.stroke-dash: 3}\n")
	assert.Contains(t, out, "D9: \"Summary\" {\n    shape: rectangle\n    style.stroke-dash: 3\n    style.fill: \"#e8f5e9\"\n    style.multiple: true\n}")
	assert.Contains(t, out, "D6: \"Tidy\" {\n    shape: rectangle\n    style.stroke-dash: 3\n}")
}

func TestD2_ImplementedAndStackableProcess(t *testing.T) {
	m := parse(t, `
process Build:
    stackable: true
    input: Source
group build:
    implements: Build
`)
	out := emit(t, D2{}, Select(m, m.Root(), model.Effective{}))
	assert.Contains(t, out, "P2: \"Build\" {\n    shape: hexagon\n    style.multiple: true\n    style.double-border: true\n}")
}

func TestEdgeLabel(t *testing.T) {
	tests := []struct {
		ref  model.DataIdentifier
		want string
	}{
		{model.DataIdentifier{Name: "A", Desc: "A"}, ""},
		{model.DataIdentifier{Name: "A", Desc: "all rows"}, "all rows"},
		{model.DataIdentifier{Name: "A", Desc: "A", Stackable: true}, "*"},
		{model.DataIdentifier{Name: "A", Desc: "rows", Stackable: true}, "rows *"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, edgeLabel(Edge{Ref: tt.ref}))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriteErrors(t *testing.T) {
	m := parse(t, pipeline)
	err := Write(failingWriter{}, Select(m, m.Root(), model.Effective{}))
	assert.EqualError(t, err, "disk full")
}

func TestWrite_UnknownTool(t *testing.T) {
	m := parse(t, pipeline)
	err := Write(&bytes.Buffer{}, Select(m, m.Root(), model.Effective{Tool: "dot"}))
	var unknown *UnknownToolError
	assert.True(t, errors.As(err, &unknown))
}
