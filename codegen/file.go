package codegen

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/parser"
	gotoken "go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/typhoon/typhoon-go"
)

// RuntimeImport is the import path of the package generated code calls.
const RuntimeImport = "github.com/typhoon/typhoon-go"

// DefaultSuffix replaces ".go" in the names of generated files.
const DefaultSuffix = "_tp.go"

// Directive marks a string constant as a template.
const Directive = "//typhoon:template"

var directivePattern = regexp.MustCompile(`^//typhoon:template\s+([\p{L}_][\p{L}\p{N}_]*)\((.*)\)\s*$`)

// File is a Go source file holding annotated template constants.
type File struct {
	Path      string
	Package   string
	Imports   []*goast.ImportSpec
	Templates []Template
}

// ScanFile parses the Go file at path and collects every string constant
// annotated with //typhoon:template Name(params).
func ScanFile(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ScanSource(path, src)
}

// ScanSource is ScanFile for in-memory source.
func ScanSource(path string, src []byte) (*File, error) {
	fset := gotoken.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	out := &File{Path: path, Package: f.Name.Name, Imports: f.Imports}
	for _, decl := range f.Decls {
		gd, ok := decl.(*goast.GenDecl)
		if !ok || gd.Tok != gotoken.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*goast.ValueSpec)
			doc := vs.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			name, params, ok := findDirective(doc)
			if !ok {
				continue
			}
			pos := fset.Position(vs.Pos())
			if len(vs.Values) != 1 {
				return nil, fmt.Errorf("%s: %s must annotate a single constant", pos, Directive)
			}
			lit, ok := vs.Values[0].(*goast.BasicLit)
			if !ok || lit.Kind != gotoken.STRING {
				return nil, fmt.Errorf("%s: %s must annotate a string literal", pos, Directive)
			}
			text, err := strconv.Unquote(lit.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pos, err)
			}
			out.Templates = append(out.Templates, Template{
				Name:     name,
				Params:   params,
				Source:   text,
				Filename: path,
				Line:     fset.Position(lit.Pos()).Line,
			})
		}
	}
	return out, nil
}

func findDirective(doc *goast.CommentGroup) (name, params string, ok bool) {
	if doc == nil {
		return "", "", false
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, Directive) {
			continue
		}
		m := directivePattern.FindStringSubmatch(c.Text)
		if m == nil {
			continue
		}
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// GenerateFile renders a complete Go file holding one function per template.
// Imports of the scanned file are carried over and unused ones removed.
func GenerateFile(f *File, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by typhoonc from %s. DO NOT EDIT.\n\n", filepath.Base(f.Path))
	fmt.Fprintf(&buf, "package %s\n\n", f.Package)

	buf.WriteString("import (\n")
	fmt.Fprintf(&buf, "\t%s %q\n", opts.alias(), RuntimeImport)
	for _, imp := range f.Imports {
		if path, _ := strconv.Unquote(imp.Path.Value); path == RuntimeImport {
			continue
		}
		if imp.Name != nil {
			fmt.Fprintf(&buf, "\t%s %s\n", imp.Name.Name, imp.Path.Value)
		} else {
			fmt.Fprintf(&buf, "\t%s\n", imp.Path.Value)
		}
	}
	buf.WriteString(")\n")

	for _, t := range f.Templates {
		decl, err := GenerateWith(t, opts)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n")
		buf.Write(decl)
	}

	out, err := imports.Process(OutputPath(f.Path, ""), buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, &typhoon.CompileError{Msg: fmt.Sprintf("generated code for %s does not compile: %v", f.Path, err)}
	}
	return out, nil
}

// OutputPath returns the generated file name for path.
func OutputPath(path, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.TrimSuffix(path, ".go") + suffix
}

// IsGenerated reports whether path looks like a generated file.
func IsGenerated(path, suffix string) bool {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.HasSuffix(path, suffix)
}

// ProcessFile scans path and writes the generated file next to it. Files
// without templates produce no output and return "".
func ProcessFile(path string, opts Options, suffix string) (string, error) {
	if IsGenerated(path, suffix) {
		return "", nil
	}
	f, err := ScanFile(path)
	if err != nil {
		return "", err
	}
	if len(f.Templates) == 0 {
		return "", nil
	}
	src, err := GenerateFile(f, opts)
	if err != nil {
		return "", err
	}
	out := OutputPath(path, suffix)
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
