package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/typhoon/typhoon-go/analysis"
	"github.com/typhoon/typhoon-go/ast"
)

func newGraphCommand() *Command {
	graphCmd := &Command{
		Name:        "graph",
		Description: "Emit the element and name dependency graph of templates",
		FlagSet:     flag.NewFlagSet("graph", flag.ExitOnError),
	}

	format := graphCmd.FlagSet.String("format", "json", "Output format: json or dot")
	output := graphCmd.FlagSet.String("output", "", "Output file (default: stdout)")
	envPath := graphCmd.FlagSet.String("env", "", "YAML or JSON env file; its keys drive the coverage report")
	names := graphCmd.FlagSet.String("names", "", "Comma-separated known names for the coverage report")

	graphCmd.Run = func() error {
		files, err := expandInputs(graphCmd.FlagSet.Args(), ".go", ".tp")
		if err != nil {
			return err
		}
		if len(files) < 1 {
			return fmt.Errorf("no input files specified")
		}

		known, err := knownNames(*envPath, *names)
		if err != nil {
			return err
		}

		var merged analysis.DependencyGraph
		for _, file := range files {
			templates, err := loadTemplates(file)
			if err != nil {
				return err
			}
			for _, t := range templates {
				tmpl, err := ast.Parse(t.File, t.Source)
				if err != nil {
					return err
				}
				merged = mergeGraphs(merged, analysis.BuildDependencyGraph(tmpl, known))
			}
		}

		switch strings.ToLower(*format) {
		case "json":
			data, err := json.MarshalIndent(merged, "", "  ")
			if err != nil {
				return err
			}
			return outputBytes(data, *output)
		case "dot":
			return outputBytes([]byte(renderDOT(merged)), *output)
		default:
			return fmt.Errorf("unsupported format: %s", *format)
		}
	}

	return graphCmd
}

func knownNames(envPath, names string) (map[string]struct{}, error) {
	if envPath == "" && names == "" {
		return nil, nil
	}
	known := make(map[string]struct{})
	if envPath != "" {
		env, err := loadEnv(envPath)
		if err != nil {
			return nil, err
		}
		for name := range env {
			known[name] = struct{}{}
		}
	}
	for _, name := range splitCommaList(names) {
		known[name] = struct{}{}
	}
	return known, nil
}

// mergeGraphs combines two graphs. Element labels are per template, so edges
// from different templates stay distinct only when their labels differ.
func mergeGraphs(a, b analysis.DependencyGraph) analysis.DependencyGraph {
	result := analysis.DependencyGraph{
		Elements:   a.Elements + b.Elements,
		Directives: a.Directives + b.Directives,
		Texts:      a.Texts + b.Texts,
		Embeds:     a.Embeds + b.Embeds,
		Tags:       mergeSorted(a.Tags, b.Tags),
		Names:      mergeSorted(a.Names, b.Names),
		Handlers:   mergeSorted(a.Handlers, b.Handlers),
	}

	edgeSet := make(map[analysis.Edge]struct{})
	for _, edge := range append(a.Edges, b.Edges...) {
		edgeSet[edge] = struct{}{}
	}
	for edge := range edgeSet {
		result.Edges = append(result.Edges, edge)
	}
	sort.Slice(result.Edges, func(i, j int) bool {
		if result.Edges[i].From != result.Edges[j].From {
			return result.Edges[i].From < result.Edges[j].From
		}
		if result.Edges[i].To != result.Edges[j].To {
			return result.Edges[i].To < result.Edges[j].To
		}
		return result.Edges[i].Kind < result.Edges[j].Kind
	})

	result.Coverage = analysis.CoverageReport{
		UsedNames:    mergeSorted(a.Coverage.UsedNames, b.Coverage.UsedNames),
		UnknownNames: mergeSorted(a.Coverage.UnknownNames, b.Coverage.UnknownNames),
		UnusedNames:  mergeSorted(a.Coverage.UnusedNames, b.Coverage.UnusedNames),
	}
	// A name only one template uses is not unused overall.
	if len(result.Coverage.UnusedNames) > 0 {
		used := make(map[string]struct{}, len(result.Names))
		for _, n := range result.Names {
			used[n] = struct{}{}
		}
		unused := result.Coverage.UnusedNames[:0]
		for _, n := range result.Coverage.UnusedNames {
			if _, ok := used[n]; !ok {
				unused = append(unused, n)
			}
		}
		result.Coverage.UnusedNames = unused
	}
	return result
}

func mergeSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func renderDOT(graph analysis.DependencyGraph) string {
	var b strings.Builder
	b.WriteString("digraph typhoon {\n")
	b.WriteString("  rankdir=LR;\n")

	nodes := make(map[string]struct{})
	for _, edge := range graph.Edges {
		nodes[edge.From] = struct{}{}
		nodes[edge.To] = struct{}{}
	}
	labels := make([]string, 0, len(nodes))
	for n := range nodes {
		labels = append(labels, n)
	}
	sort.Strings(labels)
	for _, n := range labels {
		switch {
		case strings.HasPrefix(n, "element:"):
			b.WriteString(fmt.Sprintf("  %q [shape=box,label=%q];\n", n, strings.TrimPrefix(n, "element:")))
		case strings.HasPrefix(n, "name:"):
			b.WriteString(fmt.Sprintf("  %q [shape=ellipse,label=%q];\n", n, strings.TrimPrefix(n, "name:")))
		}
	}

	for _, edge := range graph.Edges {
		b.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", edge.From, edge.To, edge.Kind))
	}

	b.WriteString("}\n")
	return b.String()
}
