// Package codegen is the build-time template backend. It lowers a template
// into a Go function issuing the construction calls directly, so
// expressions are ordinary Go checked by the Go compiler and close over the
// function's parameters.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	goast "go/ast"
	"go/format"
	"go/parser"
	gotoken "go/token"
	"regexp"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/ast"
	"github.com/typhoon/typhoon-go/compiler"
)

const (
	hostParam    = "_h"
	builderVar   = "_b"
	nodeVarStart = "_n"
)

var nodeVarPattern = regexp.MustCompile(`^` + nodeVarStart + `[0-9]+$`)

// Template describes one function to generate.
type Template struct {
	// Name is the generated function's name
	Name string
	// Params is the Go parameter list without parentheses, e.g.
	// "count *store.Cell[int], inc func()"
	Params string
	Source string
	// Filename is used in error positions
	Filename string
	// Line is added to template line numbers in error positions
	Line int
}

// Options controls generated code
type Options struct {
	// Alias is the local name of the typhoon package in generated code
	Alias string
}

func (o Options) alias() string {
	if o.Alias == "" {
		return "typhoon"
	}
	return o.Alias
}

// Generate returns the gofmt'ed source of the template function.
func Generate(t Template) ([]byte, error) {
	return GenerateWith(t, Options{})
}

// GenerateWith is Generate with explicit options.
func GenerateWith(t Template, opts Options) ([]byte, error) {
	decl, err := Lower(t, opts)
	if err != nil {
		return nil, err
	}
	return formatDecl(decl)
}

// formatDecl prints decl and formats the result again, since spliced
// expressions carry positions from their own parses.
func formatDecl(decl *goast.FuncDecl) ([]byte, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, gotoken.NewFileSet(), decl); err != nil {
		return nil, fmt.Errorf("printing %s: %w", decl.Name.Name, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", decl.Name.Name, err)
	}
	return out, nil
}

// Lower parses t and lowers it to a function declaration.
func Lower(t Template, opts Options) (*goast.FuncDecl, error) {
	if !gotoken.IsIdentifier(t.Name) {
		return nil, &typhoon.CompileError{Msg: fmt.Sprintf("invalid function name %q", t.Name)}
	}
	filename := t.Filename
	if filename == "" {
		filename = t.Name
	}
	tmpl, err := ast.Parse(filename, t.Source)
	if err != nil {
		return nil, shift(err, t.Line)
	}
	params, err := parseParams(t.Params)
	if err != nil {
		return nil, &typhoon.CompileError{
			Pos: lexer.Position{Filename: filename, Line: t.Line},
			Msg: fmt.Sprintf("invalid parameters %q: %v", t.Params, err),
		}
	}

	l := &lowerer{pkg: opts.alias(), line: t.Line}
	root, err := l.node(tmpl.Root)
	if err != nil {
		return nil, err
	}

	body := []goast.Stmt{
		define(builderVar, l.call(goast.NewIdent(l.pkg), "NewBuilder", goast.NewIdent(hostParam))),
	}
	body = append(body, l.trimmed()...)
	body = append(body, &goast.ReturnStmt{
		Results: []goast.Expr{l.call(goast.NewIdent(builderVar), "Finish", goast.NewIdent(root))},
	})

	fields := []*goast.Field{{
		Names: []*goast.Ident{goast.NewIdent(hostParam)},
		Type:  sel(l.pkg, "Host"),
	}}
	fields = append(fields, params.List...)

	return &goast.FuncDecl{
		Name: goast.NewIdent(t.Name),
		Type: &goast.FuncType{
			Params: &goast.FieldList{List: fields},
			Results: &goast.FieldList{List: []*goast.Field{
				{Type: sel(l.pkg, "Node")},
				{Type: goast.NewIdent("error")},
			}},
		},
		Body: &goast.BlockStmt{List: body},
	}, nil
}

type lowerer struct {
	pkg   string
	line  int
	seq   int
	stmts []goast.Stmt
}

func (l *lowerer) emit(fun goast.Expr, method string, args ...goast.Expr) {
	l.stmts = append(l.stmts, &goast.ExprStmt{X: l.call(fun, method, args...)})
}

// emitChecked emits a call that can record an error and returns early when
// it did, so no later expression is evaluated.
func (l *lowerer) emitChecked(fun goast.Expr, method string, args ...goast.Expr) {
	l.emit(fun, method, args...)
	l.guard()
}

// guard emits: if _b.Err() != nil { return nil, _b.Err() }
func (l *lowerer) guard() {
	errCall := func() goast.Expr { return l.call(goast.NewIdent(builderVar), "Err") }
	l.stmts = append(l.stmts, &goast.IfStmt{
		Cond: &goast.BinaryExpr{X: errCall(), Op: gotoken.NEQ, Y: goast.NewIdent("nil")},
		Body: &goast.BlockStmt{List: []goast.Stmt{
			&goast.ReturnStmt{Results: []goast.Expr{goast.NewIdent("nil"), errCall()}},
		}},
	})
}

// trimmed drops a trailing guard, which Finish makes redundant.
func (l *lowerer) trimmed() []goast.Stmt {
	if n := len(l.stmts); n > 0 {
		if _, ok := l.stmts[n-1].(*goast.IfStmt); ok {
			return l.stmts[:n-1]
		}
	}
	return l.stmts
}

func (l *lowerer) call(recv goast.Expr, method string, args ...goast.Expr) *goast.CallExpr {
	return &goast.CallExpr{Fun: &goast.SelectorExpr{X: recv, Sel: goast.NewIdent(method)}, Args: args}
}

func (l *lowerer) node(n *ast.Node) (string, error) {
	l.seq++
	name := nodeVarStart + strconv.Itoa(l.seq)
	b := goast.NewIdent(builderVar)
	l.stmts = append(l.stmts, define(name, l.call(b, "Element", strLit(n.Tag))))
	l.guard()
	self := goast.NewIdent(name)

	for _, d := range n.Directives {
		arg, err := l.expr(d.Arg)
		if err != nil {
			return "", err
		}
		res := compiler.Resolve(d.Name)
		switch res.Action {
		case compiler.ActionText:
			l.emit(b, "Text", self, arg)
		case compiler.ActionClass:
			l.emit(b, "Class", self, arg)
		case compiler.ActionStyle:
			l.emit(b, "Style", self, arg)
		case compiler.ActionClick:
			l.emitChecked(b, "OnClick", self, arg)
		case compiler.ActionInput:
			l.emitChecked(b, "OnInput", self, arg)
		case compiler.ActionKeydown:
			l.emitChecked(b, "OnKeydown", self, arg)
		default:
			l.emitChecked(b, "Attr", self, strLit(res.Attr), arg)
		}
	}

	for _, c := range n.Children {
		switch c.Kind() {
		case ast.ChildNode:
			child, err := l.node(c.Node)
			if err != nil {
				return "", err
			}
			l.emitChecked(b, "Append", self, goast.NewIdent(child))
		case ast.ChildText:
			l.emit(b, "AppendText", self, strLit(*c.Text))
		case ast.ChildEmbed:
			arg, err := l.expr(c.Embed)
			if err != nil {
				return "", err
			}
			l.emitChecked(b, "Embed", self, arg)
		}
	}
	return name, nil
}

func (l *lowerer) expr(e *ast.Expr) (goast.Expr, error) {
	ex, err := parser.ParseExpr(e.Source)
	if err != nil {
		pos := e.Pos
		if l.line > 0 {
			pos.Line += l.line - 1
		}
		return nil, &typhoon.CompileError{Pos: pos, Msg: fmt.Sprintf("invalid Go expression %q: %v", e.Source, err)}
	}
	return ex, nil
}

func parseParams(params string) (*goast.FieldList, error) {
	ex, err := parser.ParseExpr("func(" + params + ")")
	if err != nil {
		return nil, err
	}
	ft, ok := ex.(*goast.FuncType)
	if !ok {
		return nil, fmt.Errorf("not a parameter list")
	}
	for _, f := range ft.Params.List {
		if len(f.Names) == 0 {
			return nil, fmt.Errorf("parameters must be named")
		}
		for _, n := range f.Names {
			if n.Name == hostParam || n.Name == builderVar || nodeVarPattern.MatchString(n.Name) {
				return nil, fmt.Errorf("parameter name %s is reserved", n.Name)
			}
		}
	}
	return ft.Params, nil
}

func shift(err error, line int) error {
	var ce *typhoon.CompileError
	if errors.As(err, &ce) && line > 0 && ce.Pos.Line > 0 {
		shifted := *ce
		shifted.Pos.Line += line - 1
		return &shifted
	}
	return err
}

func define(name string, value goast.Expr) goast.Stmt {
	return &goast.AssignStmt{
		Lhs: []goast.Expr{goast.NewIdent(name)},
		Tok: gotoken.DEFINE,
		Rhs: []goast.Expr{value},
	}
}

func sel(pkg, name string) goast.Expr {
	return &goast.SelectorExpr{X: goast.NewIdent(pkg), Sel: goast.NewIdent(name)}
}

func strLit(s string) goast.Expr {
	return &goast.BasicLit{Kind: gotoken.STRING, Value: strconv.Quote(s)}
}
