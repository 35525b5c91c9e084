package analysis

import (
	"sort"
	"strconv"

	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/typhoon/typhoon-go/ast"
	"github.com/typhoon/typhoon-go/compiler"
)

// Edge represents a dependency edge in the graph.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// CoverageReport compares the identifiers a template reads with the names
// an environment provides.
type CoverageReport struct {
	UsedNames    []string `json:"used_names"`
	UnknownNames []string `json:"unknown_names"`
	UnusedNames  []string `json:"unused_names"`
}

// DependencyGraph summarizes a template: what it builds and which
// environment names its expressions read.
type DependencyGraph struct {
	Elements   int            `json:"elements"`
	Directives int            `json:"directives"`
	Texts      int            `json:"texts"`
	Embeds     int            `json:"embeds"`
	Tags       []string       `json:"tags"`
	Names      []string       `json:"names"`
	Handlers   []string       `json:"handlers"`
	Edges      []Edge         `json:"edges"`
	Coverage   CoverageReport `json:"coverage"`
}

// BuildDependencyGraph builds the graph of tmpl. Elements are labeled by tag
// and pre-order index, e.g. "div#1". knownNames may be nil.
func BuildDependencyGraph(tmpl *ast.Template, knownNames map[string]struct{}) DependencyGraph {
	graph := DependencyGraph{}
	if tmpl == nil || tmpl.Root == nil {
		return graph
	}

	tags := make(map[string]struct{})
	names := make(map[string]struct{})
	handlers := make(map[string]struct{})

	seq := 0
	var visit func(n *ast.Node) string
	visit = func(n *ast.Node) string {
		seq++
		graph.Elements++
		label := "element:" + n.Tag + "#" + strconv.Itoa(seq)
		tags[n.Tag] = struct{}{}

		for _, d := range n.Directives {
			graph.Directives++
			kind := "directive:" + d.Name
			used := expressionNames(d.Arg)
			if compiler.Resolve(d.Name).Action.IsHandler() {
				for name := range used {
					handlers[name] = struct{}{}
				}
			}
			for name := range used {
				names[name] = struct{}{}
				graph.Edges = append(graph.Edges, Edge{From: label, To: "name:" + name, Kind: kind})
			}
		}

		for _, c := range n.Children {
			switch c.Kind() {
			case ast.ChildNode:
				child := visit(c.Node)
				graph.Edges = append(graph.Edges, Edge{From: label, To: child, Kind: "child"})
			case ast.ChildText:
				graph.Texts++
			case ast.ChildEmbed:
				graph.Embeds++
				for name := range expressionNames(c.Embed) {
					names[name] = struct{}{}
					graph.Edges = append(graph.Edges, Edge{From: label, To: "name:" + name, Kind: "embed"})
				}
			}
		}
		return label
	}
	visit(tmpl.Root)

	graph.Tags = sortedKeys(tags)
	graph.Names = sortedKeys(names)
	graph.Handlers = sortedKeys(handlers)
	sort.SliceStable(graph.Edges, func(i, j int) bool {
		if graph.Edges[i].From != graph.Edges[j].From {
			return graph.Edges[i].From < graph.Edges[j].From
		}
		if graph.Edges[i].To != graph.Edges[j].To {
			return graph.Edges[i].To < graph.Edges[j].To
		}
		return graph.Edges[i].Kind < graph.Edges[j].Kind
	})
	if knownNames != nil {
		graph.Coverage = buildCoverageReport(names, knownNames)
	}
	return graph
}

func buildCoverageReport(usedNames, knownNames map[string]struct{}) CoverageReport {
	report := CoverageReport{}

	for name := range usedNames {
		report.UsedNames = append(report.UsedNames, name)
		if _, ok := knownNames[name]; !ok {
			report.UnknownNames = append(report.UnknownNames, name)
		}
	}

	for name := range knownNames {
		if _, ok := usedNames[name]; !ok {
			report.UnusedNames = append(report.UnusedNames, name)
		}
	}

	sort.Strings(report.UsedNames)
	sort.Strings(report.UnknownNames)
	sort.Strings(report.UnusedNames)
	return report
}

// expressionNames returns the free top-level identifiers an expression
// reads. Names bound by let inside the expression are excluded. Sources
// that do not parse as expr-lang yield no names.
func expressionNames(e *ast.Expr) map[string]struct{} {
	names := make(map[string]struct{})
	if e == nil {
		return names
	}
	tree, err := parser.Parse(e.Source)
	if err != nil {
		return names
	}
	v := &nameVisitor{names: names, bound: make(map[string]struct{})}
	node := tree.Node
	exprast.Walk(&node, v)
	for name := range v.bound {
		delete(names, name)
	}
	return names
}

type nameVisitor struct {
	names map[string]struct{}
	bound map[string]struct{}
}

func (v *nameVisitor) Visit(node *exprast.Node) {
	switch n := (*node).(type) {
	case *exprast.IdentifierNode:
		v.names[n.Value] = struct{}{}
	case *exprast.VariableDeclaratorNode:
		v.bound[n.Name] = struct{}{}
	}
}

func sortedKeys(values map[string]struct{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
