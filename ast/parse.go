package ast

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/typhoon/typhoon-go"
)

var parser = participle.MustBuild[Template](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse parses one template. Grammar violations are reported as
// *typhoon.CompileError carrying the position of the offending token.
func Parse(filename, src string) (*Template, error) {
	tmpl, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, compileError(err)
	}
	if tmpl.Root == nil {
		return nil, &typhoon.CompileError{Msg: "empty template"}
	}
	tmpl.Root.postProcess(src)
	return tmpl, nil
}

// MustParse is like Parse but panics on error. It is meant for templates
// known at init time.
func MustParse(filename, src string) *Template {
	tmpl, err := Parse(filename, src)
	if err != nil {
		panic(fmt.Errorf("typhoon: %w", err))
	}
	return tmpl
}

func compileError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &typhoon.CompileError{Pos: perr.Position(), Msg: perr.Message()}
	}
	return &typhoon.CompileError{Msg: err.Error()}
}
