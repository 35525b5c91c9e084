package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/ast"
)

// EvalError reports an expression that failed at run time or produced a
// value of the wrong kind for its directive.
type EvalError struct {
	Source string
	Pos    lexer.Position
	Err    error
}

func (e *EvalError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("evaluating %q: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s: evaluating %q: %v", e.Pos, e.Source, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Procedure is a compiled template. It holds nothing but the compiled
// expressions, so one procedure can be run any number of times against
// different hosts and environments.
type Procedure struct {
	root *element
}

// Run builds the tree on host, evaluating expressions against env in source
// order, and returns the root node. The first host refusal or evaluation
// failure aborts construction.
func (p *Procedure) Run(host typhoon.Host, env Env) (typhoon.Node, error) {
	b := typhoon.NewBuilder(host)
	root := p.build(b, p.root, env)
	return b.Finish(root)
}

// Tag returns the root element's tag.
func (p *Procedure) Tag() string {
	return p.root.tag
}

func (p *Procedure) build(b *typhoon.Builder, el *element, env Env) typhoon.Node {
	n := b.Element(el.tag)
	if b.Err() != nil {
		return nil
	}

	for _, d := range el.directives {
		value, err := d.arg.eval(env)
		if err != nil {
			b.Fail(&typhoon.ConstructionError{Op: "eval", Target: el.tag, Err: err})
			return nil
		}
		if err := apply(b, n, d, value); err != nil {
			b.Fail(&typhoon.ConstructionError{Op: "eval", Target: el.tag, Err: err})
			return nil
		}
		if b.Err() != nil {
			return nil
		}
	}

	for _, c := range el.children {
		switch c.kind {
		case ast.ChildNode:
			nested := p.build(b, c.elem, env)
			b.Append(n, nested)
		case ast.ChildText:
			b.AppendText(n, c.text)
		case ast.ChildEmbed:
			value, err := c.expr.eval(env)
			if err != nil {
				b.Fail(&typhoon.ConstructionError{Op: "eval", Target: el.tag, Err: err})
				return nil
			}
			b.Embed(n, value)
		}
		if b.Err() != nil {
			return nil
		}
	}

	return n
}

func apply(b *typhoon.Builder, n typhoon.Node, d directive, value interface{}) error {
	switch d.resolution.Action {
	case ActionText:
		b.Text(n, value)
	case ActionClass:
		b.Class(n, fmt.Sprint(value))
	case ActionStyle:
		b.Style(n, fmt.Sprint(value))
	case ActionClick:
		switch fn := value.(type) {
		case func():
			b.OnClick(n, fn)
		case func(typhoon.Event):
			b.On(n, typhoon.Click, fn)
		default:
			return handlerError(d, "func()", value)
		}
	case ActionInput, ActionKeydown:
		kind := typhoon.Input
		if d.resolution.Action == ActionKeydown {
			kind = typhoon.Keydown
		}
		switch fn := value.(type) {
		case func(string):
			b.On(n, kind, func(ev typhoon.Event) { fn(ev.Value) })
		case func(typhoon.Event):
			b.On(n, kind, fn)
		default:
			return handlerError(d, "func(string)", value)
		}
	default:
		b.Attr(n, d.resolution.Attr, value)
	}
	return nil
}

func handlerError(d directive, want string, got interface{}) error {
	return &EvalError{
		Source: d.arg.source,
		Pos:    d.arg.pos,
		Err:    fmt.Errorf("%s expects %s, got %T", d.name, want, got),
	}
}
