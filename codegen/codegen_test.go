package codegen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoon/typhoon-go"
)

func TestGenerateFlatCallSequence(t *testing.T) {
	out, err := Generate(Template{Name: "App", Source: `div.class("app"){ h1.text("Hi") }`})
	require.NoError(t, err)

	want := `func App(_h typhoon.Host) (typhoon.Node, error) {
	_b := typhoon.NewBuilder(_h)
	_n1 := _b.Element("div")
	if _b.Err() != nil {
		return nil, _b.Err()
	}
	_b.Class(_n1, "app")
	_n2 := _b.Element("h1")
	if _b.Err() != nil {
		return nil, _b.Err()
	}
	_b.Text(_n2, "Hi")
	_b.Append(_n1, _n2)
	return _b.Finish(_n1)
}
`
	assert.Equal(t, want, string(out))
}

func TestGenerateDirectivesAndChildren(t *testing.T) {
	src := `div {
	button.onclick(inc).id("plus") { "+" }
	input.oninput(func(v string) { name = v }).onkeydown(onKey).value(name)
	span.text(count.Get()).title("n")
	(Badge(h, "new"))
}`
	out, err := Generate(Template{
		Name:   "Counter",
		Params: "count *store.Cell[int], inc func(), onKey func(string)",
		Source: src,
	})
	require.NoError(t, err)
	got := string(out)

	assert.Contains(t, got, "func Counter(_h typhoon.Host, count *store.Cell[int], inc func(), onKey func(string)) (typhoon.Node, error) {")
	for _, line := range []string{
		`_b.OnClick(_n2, inc)`,
		`_b.Attr(_n2, "id", "plus")`,
		`_b.AppendText(_n2, "+")`,
		`_b.OnInput(_n3, func(v string) { name = v })`,
		`_b.OnKeydown(_n3, onKey)`,
		`_b.Attr(_n3, "value", name)`,
		`_b.Text(_n4, count.Get())`,
		`_b.Attr(_n4, "title", "n")`,
		`_b.Embed(_n1, Badge(h, "new"))`,
	} {
		assert.Contains(t, got, line)
	}
}

func TestHyphenatedDirectiveIsGrammarError(t *testing.T) {
	_, err := Generate(Template{Name: "X", Source: `span.text(1).data-x(1)`})
	var cerr *typhoon.CompileError
	require.True(t, errors.As(err, &cerr), "got %v", err)
}

func TestGenerateRejectsInvalidGo(t *testing.T) {
	tests := []struct {
		name string
		tmpl Template
	}{
		{name: "expression", tmpl: Template{Name: "A", Source: `p.text(1 +)`}},
		{name: "expr-lang only", tmpl: Template{Name: "A", Source: `p.text(x ?? "y")`}},
		{name: "params", tmpl: Template{Name: "A", Params: "int, string", Source: `p`}},
		{name: "reserved", tmpl: Template{Name: "A", Params: "_b int", Source: `p`}},
		{name: "node name", tmpl: Template{Name: "A", Params: "_n1 string", Source: `p`}},
		{name: "later node name", tmpl: Template{Name: "A", Params: "x int, _n12 string", Source: `p`}},
		{name: "name", tmpl: Template{Name: "1A", Source: `p`}},
		{name: "grammar", tmpl: Template{Name: "A", Source: `p {`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.tmpl)
			var cerr *typhoon.CompileError
			require.True(t, errors.As(err, &cerr), "got %v", err)
		})
	}
}

func TestErrorLineIsShiftedToFile(t *testing.T) {
	_, err := Generate(Template{Name: "A", Source: "div {\n\tp.text(1 +)\n}", Filename: "view.go", Line: 10})
	var cerr *typhoon.CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 11, cerr.Pos.Line)
}

func TestPackageAlias(t *testing.T) {
	out, err := GenerateWith(Template{Name: "A", Source: `p`}, Options{Alias: "tp"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "func A(_h tp.Host) (tp.Node, error) {")
	assert.Contains(t, string(out), "_b := tp.NewBuilder(_h)")
}

const viewSource = "package views\n" + `
import (
	"fmt"
	"strings"
)

//typhoon:template Greeting(name string)
const greeting = ` + "`" + `
div.class("greeting") {
	h1.text(fmt.Sprintf("Hello, %s", name))
}
` + "`" + `

const (
	// Badge renders a label.
	//typhoon:template Badge(label string)
	badge = "span.class(\"badge\").text(label)"

	plain = "not a template"
)

var _ = strings.ToUpper
`

func TestScanSource(t *testing.T) {
	f, err := ScanSource("views.go", []byte(viewSource))
	require.NoError(t, err)

	assert.Equal(t, "views", f.Package)
	require.Len(t, f.Templates, 2)

	assert.Equal(t, "Greeting", f.Templates[0].Name)
	assert.Equal(t, "name string", f.Templates[0].Params)
	assert.Equal(t, 9, f.Templates[0].Line)
	assert.Contains(t, f.Templates[0].Source, `h1.text(fmt.Sprintf("Hello, %s", name))`)

	assert.Equal(t, "Badge", f.Templates[1].Name)
	assert.Equal(t, `span.class("badge").text(label)`, f.Templates[1].Source)
}

func TestScanRejectsNonString(t *testing.T) {
	_, err := ScanSource("bad.go", []byte("package p\n\n//typhoon:template A()\nconst a = 1\n"))
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "views.go")
	require.NoError(t, os.WriteFile(path, []byte(viewSource), 0o644))

	out, err := ProcessFile(path, Options{}, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "views_tp.go"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got := string(data)

	assert.True(t, strings.HasPrefix(got, "// Code generated by typhoonc from views.go. DO NOT EDIT.\n"))
	assert.Contains(t, got, "package views")
	assert.Contains(t, got, `typhoon "github.com/typhoon/typhoon-go"`)
	assert.Contains(t, got, `"fmt"`)
	assert.NotContains(t, got, `"strings"`)
	assert.Contains(t, got, "func Greeting(_h typhoon.Host, name string) (typhoon.Node, error) {")
	assert.Contains(t, got, "func Badge(_h typhoon.Host, label string) (typhoon.Node, error) {")

	again, err := ProcessFile(out, Options{}, "")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestProcessFileWithoutTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.go")
	require.NoError(t, os.WriteFile(path, []byte("package p\n\nconst x = \"div\"\n"), 0o644))

	out, err := ProcessFile(path, Options{}, "")
	require.NoError(t, err)
	assert.Empty(t, out)
	_, err = os.Stat(filepath.Join(filepath.Dir(path), "plain_tp.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestGeneratedFileMatchesCheckedIn(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "internal", "gentest", "views.go"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("..", "internal", "gentest", "views_tp.go"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "views.go")
	require.NoError(t, os.WriteFile(path, src, 0o644))
	out, err := ProcessFile(path, Options{}, "")
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("internal/gentest/views_tp.go is stale; run go generate ./internal/gentest (-want +got):\n%s", diff)
	}
}

func TestGuardFollowsFallibleCalls(t *testing.T) {
	out, err := Generate(Template{
		Name:   "Page",
		Params: "child func() typhoon.Node",
		Source: `div { h1.text("x") (child()) }`,
	})
	require.NoError(t, err)
	got := string(out)

	guard := "\n\tif _b.Err() != nil {\n\t\treturn nil, _b.Err()\n\t}\n"
	assert.Contains(t, got, "_b.Append(_n1, _n2)"+guard+"\t_b.Embed(_n1, child())\n\treturn _b.Finish(_n1)")
	assert.Equal(t, 3, strings.Count(got, guard))
}
