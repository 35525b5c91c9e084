package ast

import (
	"strconv"
	"strings"
)

func unquoteString(value string) string {
	if value == "" {
		return value
	}
	unquoted, err := strconv.Unquote(value)
	if err != nil {
		return value
	}
	return unquoted
}

// postProcess unquotes text children and recovers the source text of every
// expression from the original input.
func (n *Node) postProcess(src string) {
	for _, d := range n.Directives {
		d.Arg.postProcess(src)
	}
	for _, c := range n.Children {
		switch {
		case c.Text != nil:
			value := unquoteString(*c.Text)
			c.Text = &value
		case c.Embed != nil:
			c.Embed.postProcess(src)
		case c.Node != nil:
			c.Node.postProcess(src)
		}
	}
}

func (e *Expr) postProcess(src string) {
	if e == nil {
		return
	}
	start := e.Pos.Offset
	end := e.EndPos.Offset
	if len(e.Tokens) > 0 {
		end = 0
		for _, tok := range e.Tokens {
			if tokEnd := tok.Pos.Offset + len(tok.Value); tokEnd > end {
				end = tokEnd
			}
		}
	}
	if start < 0 || end > len(src) || start >= end {
		e.Source = strings.TrimSpace(e.joinAtoms())
		return
	}
	e.Source = strings.TrimSpace(src[start:end])
}

// joinAtoms rebuilds an approximate source from the parsed parts. It is only
// used when offsets are unavailable.
func (e *Expr) joinAtoms() string {
	var b strings.Builder
	writeParts(&b, e.Parts)
	return b.String()
}

func writeParts(b *strings.Builder, parts []*ExprPart) {
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		if p.Group != nil {
			b.WriteByte('(')
			writeParts(b, p.Group.Parts)
			b.WriteByte(')')
			continue
		}
		b.WriteString(p.Atom)
	}
}
