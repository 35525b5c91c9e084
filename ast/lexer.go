package ast

import "github.com/alecthomas/participle/v2/lexer"

// Lexer defines the token rules for template sources. Expression arguments
// reuse the same tokens; only parentheses are structural inside them.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "String", Pattern: `"(?:\\.|[^"\\\n])*"|` + "`[^`]*`", Action: nil},
		{Name: "Char", Pattern: `'(?:\\.|[^'\\\n])+'`, Action: nil},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`, Action: nil},
		{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`, Action: nil},
		{Name: "Dot", Pattern: `\.`, Action: nil},
		{Name: "Paren", Pattern: `[()]`, Action: nil},
		{Name: "Brace", Pattern: `[{}]`, Action: nil},
		{Name: "Op", Pattern: `[-+*/%&|^<>=!~:;,?\[\]@#$]+`, Action: nil},
	},
})
