package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/ast"
)

// Env carries the values template expressions can refer to. Handlers and
// stores are passed in here, which is how a template closes over outer state.
type Env map[string]interface{}

// Option configures a Compiler
type Option func(*Compiler)

// WithFilename sets the name used in compile error positions
func WithFilename(name string) Option {
	return func(c *Compiler) {
		c.filename = name
	}
}

// WithEnv type-checks expressions against a sample environment at compile
// time instead of deferring every check to Run.
func WithEnv(sample Env) Option {
	return func(c *Compiler) {
		c.sample = sample
	}
}

// Compiler turns template sources into procedures
type Compiler struct {
	filename string
	sample   Env
}

// New creates a compiler
func New(options ...Option) *Compiler {
	c := &Compiler{filename: "template"}
	for _, option := range options {
		option(c)
	}
	return c
}

// Compile parses src and compiles it into a procedure.
func (c *Compiler) Compile(src string) (*Procedure, error) {
	tmpl, err := ast.Parse(c.filename, src)
	if err != nil {
		return nil, err
	}
	return c.CompileTemplate(tmpl)
}

// MustCompile is like Compile but panics on error.
func (c *Compiler) MustCompile(src string) *Procedure {
	proc, err := c.Compile(src)
	if err != nil {
		panic(fmt.Errorf("typhoon: %w", err))
	}
	return proc
}

// CompileTemplate compiles an already parsed template.
func (c *Compiler) CompileTemplate(tmpl *ast.Template) (*Procedure, error) {
	if tmpl == nil || tmpl.Root == nil {
		return nil, &typhoon.CompileError{Msg: "empty template"}
	}
	root, err := c.compileNode(tmpl.Root)
	if err != nil {
		return nil, err
	}
	return &Procedure{root: root}, nil
}

func (c *Compiler) compileNode(n *ast.Node) (*element, error) {
	el := &element{
		tag:        n.Tag,
		pos:        n.Pos,
		directives: make([]directive, 0, len(n.Directives)),
		children:   make([]child, 0, len(n.Children)),
	}

	for _, d := range n.Directives {
		prog, err := c.compileExpr(d.Arg)
		if err != nil {
			return nil, err
		}
		el.directives = append(el.directives, directive{
			name:       d.Name,
			resolution: Resolve(d.Name),
			arg:        prog,
		})
	}

	for _, ch := range n.Children {
		switch ch.Kind() {
		case ast.ChildNode:
			nested, err := c.compileNode(ch.Node)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child{kind: ast.ChildNode, elem: nested})
		case ast.ChildText:
			el.children = append(el.children, child{kind: ast.ChildText, text: *ch.Text})
		case ast.ChildEmbed:
			prog, err := c.compileExpr(ch.Embed)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child{kind: ast.ChildEmbed, expr: prog})
		}
	}

	return el, nil
}

func (c *Compiler) compileExpr(e *ast.Expr) (*expression, error) {
	opts := []expr.Option{}
	if c.sample != nil {
		opts = append(opts, expr.Env(map[string]interface{}(c.sample)))
	}
	prog, err := expr.Compile(e.Source, opts...)
	if err != nil {
		return nil, &typhoon.CompileError{
			Pos: e.Pos,
			Msg: fmt.Sprintf("invalid expression %q: %v", e.Source, err),
		}
	}
	return &expression{source: e.Source, pos: e.Pos, program: prog}, nil
}

type element struct {
	tag        string
	pos        lexer.Position
	directives []directive
	children   []child
}

type directive struct {
	name       string
	resolution Resolution
	arg        *expression
}

type child struct {
	kind ast.ChildKind
	elem *element
	text string
	expr *expression
}

type expression struct {
	source  string
	pos     lexer.Position
	program *vm.Program
}

func (e *expression) eval(env Env) (interface{}, error) {
	out, err := expr.Run(e.program, map[string]interface{}(env))
	if err != nil {
		return nil, &EvalError{Source: e.source, Pos: e.pos, Err: err}
	}
	return out, nil
}
