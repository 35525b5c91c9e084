package util

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/typhoon/typhoon-go/ast"
	"github.com/typhoon/typhoon-go/compiler"
)

// ASTDumper dumps template trees to a writer
type ASTDumper struct {
	writer    io.Writer
	indent    string
	positions bool
}

// NewASTDumper creates a new AST dumper that writes to the given writer
func NewASTDumper(writer io.Writer) *ASTDumper {
	return &ASTDumper{
		writer: writer,
		indent: "",
	}
}

// NewStdoutASTDumper creates a new AST dumper that writes to stdout
func NewStdoutASTDumper() *ASTDumper {
	return NewASTDumper(os.Stdout)
}

// WithPositions makes the dumper append source positions to each line
func (d *ASTDumper) WithPositions(on bool) *ASTDumper {
	d.positions = on
	return d
}

// DumpTemplate dumps an entire template
func (d *ASTDumper) DumpTemplate(tmpl *ast.Template) {
	d.indent = ""
	fmt.Fprintf(d.writer, "Template:\n")
	if tmpl == nil || tmpl.Root == nil {
		return
	}
	d.DumpNode(tmpl.Root, "  ")
}

// DumpNode dumps a node and its subtree
func (d *ASTDumper) DumpNode(n *ast.Node, indentStr string) {
	block := ""
	if n.HasBlock {
		block = fmt.Sprintf(" (%d children)", len(n.Children))
	}
	fmt.Fprintf(d.writer, "%sElement %s%s%s\n", indentStr, n.Tag, block, d.pos(n.Pos.String()))

	for _, dir := range n.Directives {
		res := compiler.Resolve(dir.Name)
		action := res.Action.String()
		if res.Action == compiler.ActionAttr {
			action += "(" + res.Attr + ")"
		}
		fmt.Fprintf(d.writer, "%s  .%s -> %s: %s%s\n", indentStr, dir.Name, action, describeExpr(dir.Arg), d.pos(dir.Pos.String()))
	}

	for _, c := range n.Children {
		switch c.Kind() {
		case ast.ChildNode:
			d.DumpNode(c.Node, indentStr+"  ")
		case ast.ChildText:
			fmt.Fprintf(d.writer, "%s  Text %s%s\n", indentStr, strconv.Quote(*c.Text), d.pos(c.Pos.String()))
		case ast.ChildEmbed:
			fmt.Fprintf(d.writer, "%s  Embed %s%s\n", indentStr, describeExpr(c.Embed), d.pos(c.Pos.String()))
		}
	}
}

func (d *ASTDumper) pos(p string) string {
	if !d.positions {
		return ""
	}
	return " @ " + p
}

// Helper function to describe expressions
func describeExpr(e *ast.Expr) string {
	if e == nil {
		return "nil"
	}
	return "(" + e.Source + ")"
}
