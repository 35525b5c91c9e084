package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoon/typhoon-go/ast"
)

const counter = `div.class("counter") {
	button.onclick(inc) { "+" }
	span.text(count.Get())
	p.text(let n = count.Get(); n * 2)
	(footer(user.name))
}`

func TestBuildDependencyGraph(t *testing.T) {
	tmpl, err := ast.Parse("counter.tp", counter)
	require.NoError(t, err)

	graph := BuildDependencyGraph(tmpl, nil)

	assert.Equal(t, 4, graph.Elements)
	assert.Equal(t, 4, graph.Directives)
	assert.Equal(t, 1, graph.Texts)
	assert.Equal(t, 1, graph.Embeds)
	assert.Equal(t, []string{"button", "div", "p", "span"}, graph.Tags)
	assert.Equal(t, []string{"count", "footer", "inc", "user"}, graph.Names)
	assert.Equal(t, []string{"inc"}, graph.Handlers)

	assert.Contains(t, graph.Edges, Edge{From: "element:div#1", To: "element:button#2", Kind: "child"})
	assert.Contains(t, graph.Edges, Edge{From: "element:button#2", To: "name:inc", Kind: "directive:onclick"})
	assert.Contains(t, graph.Edges, Edge{From: "element:span#3", To: "name:count", Kind: "directive:text"})
	assert.Contains(t, graph.Edges, Edge{From: "element:div#1", To: "name:user", Kind: "embed"})
	assert.NotContains(t, graph.Names, "n")
	assert.Empty(t, graph.Coverage.UsedNames)
}

func TestCoverageReport(t *testing.T) {
	tmpl, err := ast.Parse("counter.tp", counter)
	require.NoError(t, err)

	known := map[string]struct{}{"count": {}, "inc": {}, "theme": {}}
	graph := BuildDependencyGraph(tmpl, known)

	assert.Equal(t, []string{"count", "footer", "inc", "user"}, graph.Coverage.UsedNames)
	assert.Equal(t, []string{"footer", "user"}, graph.Coverage.UnknownNames)
	assert.Equal(t, []string{"theme"}, graph.Coverage.UnusedNames)
}

func TestEmptyTemplate(t *testing.T) {
	assert.Equal(t, DependencyGraph{}, BuildDependencyGraph(nil, nil))
}
