package ast

import "github.com/alecthomas/participle/v2/lexer"

// Template is a parsed template source holding exactly one root node
type Template struct {
	Pos  lexer.Position
	Root *Node `parser:"@@"`
}

// Node describes one element: tag, directives and an optional block
type Node struct {
	Pos        lexer.Position
	Tag        string       `parser:"@Ident"`
	Directives []*Directive `parser:"@@*"`
	HasBlock   bool         `parser:"( @'{'"`
	Children   []*Child     `parser:"  @@* '}' )?"`
}

// Directive is a `.name(expr)` modifier on a node
type Directive struct {
	Pos  lexer.Position
	Name string `parser:"'.' @Ident"`
	Arg  *Expr  `parser:"'(' @@ ')'"`
}

// Child is one entry of a block: a nested node, a string literal or a
// parenthesized embedded expression
type Child struct {
	Pos   lexer.Position
	Text  *string `parser:"  @String"`
	Embed *Expr   `parser:"| '(' @@ ')'"`
	Node  *Node   `parser:"| @@"`
}

// Expr is an expression argument. The grammar only checks that parentheses
// balance; Source holds the raw text for the backend to interpret.
type Expr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Tokens []lexer.Token
	Parts  []*ExprPart `parser:"@@+"`

	// Source is filled in after parsing
	Source string
}

// ExprPart is a token or a parenthesized group inside an expression
type ExprPart struct {
	Group *ExprGroup `parser:"  @@"`
	Atom  string     `parser:"| @(Ident | String | Char | Number | Dot | Brace | Op)"`
}

// ExprGroup is a balanced parenthesized run of expression parts
type ExprGroup struct {
	Parts []*ExprPart `parser:"'(' @@* ')'"`
}

// Kind reports which alternative a child holds.
func (c *Child) Kind() ChildKind {
	switch {
	case c.Node != nil:
		return ChildNode
	case c.Embed != nil:
		return ChildEmbed
	default:
		return ChildText
	}
}

// ChildKind enumerates the alternatives of Child
type ChildKind int

const (
	ChildNode ChildKind = iota
	ChildText
	ChildEmbed
)

// Walk visits n and its nested nodes in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		if c.Node != nil {
			Walk(c.Node, fn)
		}
	}
}
