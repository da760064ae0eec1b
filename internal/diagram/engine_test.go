package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestEngineRender_EmitsSceneElements(t *testing.T) {
	e := newTestEngine(t, Config{})

	svg, err := e.Render("r1", "graph TD\nA[Start]-->B{Go on?}\nB-->|yes|C((Done))\nB-->|no|A")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, `<svg id="r1"`), "svg root with render id")
	assert.Contains(t, svg, `id="r1-arrow"`)
	assert.Contains(t, svg, "<polygon")
	assert.Contains(t, svg, "<circle")
	assert.Contains(t, svg, ">Start<")
	assert.Contains(t, svg, ">Go on?<")
	assert.Contains(t, svg, ">yes<")
	assert.Contains(t, svg, `marker-end="url(#r1-arrow)"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(svg), "</svg>"))
}

func TestEngineRender_RenderIDNamespacesMarkers(t *testing.T) {
	e := newTestEngine(t, Config{})
	const text = "graph TD\nA-->B"

	first, err := e.Render("mermaid-aaaa", text)
	require.NoError(t, err)
	second, err := e.Render("mermaid-bbbb", text)
	require.NoError(t, err)

	assert.Contains(t, first, "mermaid-aaaa-arrow")
	assert.NotContains(t, second, "mermaid-aaaa")
}

func TestEngineRender_ParseErrorVerbatim(t *testing.T) {
	e := newTestEngine(t, Config{})

	_, err := e.Render("r1", "graph TD\nA--")
	require.Error(t, err)
	assert.Equal(t, `Parse error at line 2: incomplete edge "--"`, err.Error())
}

func TestEngineRender_ThemePalettes(t *testing.T) {
	dark := newTestEngine(t, Config{Theme: ThemeDark})
	svg, err := dark.Render("r1", "graph TD\nA-->B")
	require.NoError(t, err)
	assert.Contains(t, svg, palettes[ThemeDark].Background)
	assert.Contains(t, svg, palettes[ThemeDark].NodeFill)
	assert.NotContains(t, svg, palettes[ThemeDefault].NodeFill)
}

func TestEngineRender_SecurityLevels(t *testing.T) {
	const text = "graph TD\nA[<script>alert('x')</script>]"

	strict := newTestEngine(t, Config{SecurityLevel: SecurityStrict})
	svg, err := strict.Render("r1", text)
	require.NoError(t, err)
	assert.NotContains(t, svg, "<script>")
	assert.Contains(t, svg, "&lt;script&gt;")
	assert.Contains(t, svg, "&#39;x&#39;")

	loose := newTestEngine(t, Config{SecurityLevel: SecurityLoose})
	svg, err = loose.Render("r1", text)
	require.NoError(t, err)
	assert.NotContains(t, svg, "<script>")
	assert.Contains(t, svg, "'x'")
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := New(Config{Theme: "solarized"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown theme")

	_, err = New(Config{SecurityLevel: "paranoid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown security level")
}

func TestConfigure_InstallsOnce(t *testing.T) {
	defaultMu.Lock()
	saved := defaultEngine
	defaultEngine = nil
	defaultMu.Unlock()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultEngine = saved
		defaultMu.Unlock()
	})

	require.NoError(t, Configure(Config{Theme: ThemeNeutral}))
	assert.Equal(t, ThemeNeutral, Default().Config().Theme)

	err := Configure(Config{Theme: ThemeDark})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already configured")
	assert.Equal(t, ThemeNeutral, Default().Config().Theme)
}

func TestLayout_RanksFollowDirection(t *testing.T) {
	find := func(lr *layoutResult, id string) placedNode {
		for _, n := range lr.Nodes {
			if n.ID == id {
				return n
			}
		}
		t.Fatalf("node %q not placed", id)
		return placedNode{}
	}

	tests := []struct {
		name   string
		header string
		after  func(a, b placedNode) bool
	}{
		{"TD stacks downward", "graph TD", func(a, b placedNode) bool { return b.Y >= a.Y+a.H }},
		{"LR stacks rightward", "graph LR", func(a, b placedNode) bool { return b.X >= a.X+a.W }},
		{"BT stacks upward", "graph BT", func(a, b placedNode) bool { return b.Y+b.H <= a.Y }},
		{"RL stacks leftward", "graph RL", func(a, b placedNode) bool { return b.X+b.W <= a.X }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.header + "\nA-->B")
			require.NoError(t, err)
			lr, err := layout(g)
			require.NoError(t, err)

			a, b := find(lr, "A"), find(lr, "B")
			assert.True(t, tt.after(a, b), "A at (%v,%v) B at (%v,%v)", a.X, a.Y, b.X, b.Y)
			assert.Greater(t, lr.Width, 0.0)
			assert.Greater(t, lr.Height, 0.0)
		})
	}
}

func TestLayout_SelfLoopWidensCanvas(t *testing.T) {
	g, err := Parse("graph TD\nA-->A")
	require.NoError(t, err)
	lr, err := layout(g)
	require.NoError(t, err)

	require.Len(t, lr.Edges, 1)
	require.True(t, lr.Edges[0].Self)
	require.NotEmpty(t, lr.Edges[0].Loop)

	n := lr.Nodes[0]
	assert.Greater(t, lr.Width, n.X+n.W+selfLoopSpan, "canvas must cover the loop")
}

func TestLayout_SiblingsDoNotOverlap(t *testing.T) {
	g, err := Parse("graph TD\nA-->B\nA-->C\nA-->D")
	require.NoError(t, err)
	lr, err := layout(g)
	require.NoError(t, err)

	row := make([]placedNode, 0, 3)
	for _, n := range lr.Nodes {
		if n.ID != "A" {
			row = append(row, n)
		}
	}
	require.Len(t, row, 3)
	for i := 1; i < len(row); i++ {
		assert.GreaterOrEqual(t, row[i].X, row[i-1].X+row[i-1].W, "rank siblings must not overlap")
	}
}
