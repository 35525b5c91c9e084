package lint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/expr-lang/expr"
	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/typhoon/typhoon-go/ast"
	"github.com/typhoon/typhoon-go/compiler"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"

	CodeUnknownDirective   = "unknown-directive"
	CodeDuplicateDirective = "duplicate-directive"
	CodeHandlerLiteral     = "handler-literal"
	CodeDuplicateID        = "duplicate-id"
	CodeVoidChildren       = "void-children"
	CodeInvalidTag         = "invalid-tag"
	CodeEmptyText          = "empty-text"
)

// FallbackMode controls how directives that fall back to SetAttribute are
// reported.
type FallbackMode string

const (
	FallbackIgnore FallbackMode = "ignore"
	FallbackWarn   FallbackMode = "warn"
	FallbackError  FallbackMode = "error"
)

// LintOptions configures lint behavior.
type LintOptions struct {
	FallbackMode FallbackMode
}

// DefaultOptions returns the default lint options.
func DefaultOptions() LintOptions {
	return LintOptions{FallbackMode: FallbackIgnore}
}

// ParseFallbackMode parses a string into FallbackMode.
func ParseFallbackMode(raw string) (FallbackMode, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	switch trimmed {
	case "", "ignore", "off", "none":
		return FallbackIgnore, nil
	case "warn", "warning":
		return FallbackWarn, nil
	case "error", "err":
		return FallbackError, nil
	default:
		return FallbackIgnore, fmt.Errorf("unknown fallback mode: %s", raw)
	}
}

// Issue represents a linter finding.
type Issue struct {
	File     string
	Pos      lexer.Position
	Severity string
	Code     string
	Message  string
}

var tagPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)

// LintTemplate runs lint checks on a parsed template.
func LintTemplate(tmpl *ast.Template, path string) []Issue {
	return LintTemplateWithOptions(tmpl, path, DefaultOptions())
}

// LintTemplateWithOptions runs lint checks with custom options.
func LintTemplateWithOptions(tmpl *ast.Template, path string, options LintOptions) []Issue {
	if tmpl == nil || tmpl.Root == nil {
		return nil
	}

	issues := make([]Issue, 0)
	mode := normalizeFallbackMode(options.FallbackMode)
	ids := make(map[string]lexer.Position)

	ast.Walk(tmpl.Root, func(n *ast.Node) bool {
		issues = append(issues, lintTag(path, n)...)
		issues = append(issues, lintVoidChildren(path, n)...)
		issues = append(issues, lintDuplicateDirectives(path, n)...)
		for _, d := range n.Directives {
			issues = append(issues, lintFallback(path, d, mode)...)
			issues = append(issues, lintHandlerLiteral(path, d)...)
			issues = append(issues, lintDuplicateID(path, d, ids)...)
		}
		for _, c := range n.Children {
			if c.Kind() == ast.ChildText && *c.Text == "" {
				issues = append(issues, Issue{
					File:     path,
					Pos:      c.Pos,
					Severity: SeverityWarning,
					Code:     CodeEmptyText,
					Message:  fmt.Sprintf("empty string child of <%s> appends an empty text node", n.Tag),
				})
			}
		}
		return true
	})

	return issues
}

func lintTag(path string, n *ast.Node) []Issue {
	if tagPattern.MatchString(n.Tag) {
		return nil
	}
	return []Issue{
		{
			File:     path,
			Pos:      n.Pos,
			Severity: SeverityError,
			Code:     CodeInvalidTag,
			Message:  fmt.Sprintf("%q is not a valid element name; hosts will refuse it", n.Tag),
		},
	}
}

func lintVoidChildren(path string, n *ast.Node) []Issue {
	if !isVoidElement(n.Tag) || len(n.Children) == 0 {
		return nil
	}
	return []Issue{
		{
			File:     path,
			Pos:      n.Pos,
			Severity: SeverityError,
			Code:     CodeVoidChildren,
			Message:  fmt.Sprintf("<%s> is a void element and cannot have children", n.Tag),
		},
	}
}

func lintDuplicateDirectives(path string, n *ast.Node) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	for _, d := range n.Directives {
		res := compiler.Resolve(d.Name)
		// Repeated listeners all fire, so only value setters are reported.
		if res.Action.IsHandler() {
			continue
		}
		if seen[d.Name] {
			issues = append(issues, Issue{
				File:     path,
				Pos:      d.Pos,
				Severity: SeverityWarning,
				Code:     CodeDuplicateDirective,
				Message:  fmt.Sprintf("%s is set more than once on <%s>; the last value wins", d.Name, n.Tag),
			})
		}
		seen[d.Name] = true
	}
	return issues
}

func lintFallback(path string, d *ast.Directive, mode FallbackMode) []Issue {
	if mode == FallbackIgnore {
		return nil
	}
	res := compiler.Resolve(d.Name)
	if res.Known {
		return nil
	}

	severity := SeverityWarning
	if mode == FallbackError {
		severity = SeverityError
	}
	message := fmt.Sprintf("directive %q is not built in and sets attribute %q", d.Name, res.Attr)
	if hint := suggest(d.Name); hint != "" {
		message += fmt.Sprintf("; did you mean %q?", hint)
	}
	return []Issue{
		{
			File:     path,
			Pos:      d.Pos,
			Severity: severity,
			Code:     CodeUnknownDirective,
			Message:  message,
		},
	}
}

func suggest(name string) string {
	for _, known := range compiler.Directives() {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return ""
}

func lintHandlerLiteral(path string, d *ast.Directive) []Issue {
	if !compiler.Resolve(d.Name).Action.IsHandler() || d.Arg == nil {
		return nil
	}
	value, ok := constantValue(d.Arg.Source)
	if !ok {
		return nil
	}
	return []Issue{
		{
			File:     path,
			Pos:      d.Pos,
			Severity: SeverityError,
			Code:     CodeHandlerLiteral,
			Message:  fmt.Sprintf("%s needs a function, got constant %v", d.Name, value),
		},
	}
}

func lintDuplicateID(path string, d *ast.Directive, ids map[string]lexer.Position) []Issue {
	if d.Name != "id" || d.Arg == nil {
		return nil
	}
	value, ok := constantValue(d.Arg.Source)
	if !ok {
		return nil
	}
	id := fmt.Sprint(value)
	first, dup := ids[id]
	if !dup {
		ids[id] = d.Pos
		return nil
	}
	return []Issue{
		{
			File:     path,
			Pos:      d.Pos,
			Severity: SeverityWarning,
			Code:     CodeDuplicateID,
			Message:  fmt.Sprintf("id %q is already used at %s", id, first),
		},
	}
}

func normalizeFallbackMode(mode FallbackMode) FallbackMode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(FallbackError):
		return FallbackError
	case string(FallbackWarn):
		return FallbackWarn
	default:
		return FallbackIgnore
	}
}

// constantValue evaluates expression when it refers to no variables.
func constantValue(expression string) (interface{}, bool) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, false
	}

	visitor := &variableVisitor{}
	node := tree.Node
	exprast.Walk(&node, visitor)
	if visitor.hasVariables {
		return nil, false
	}

	result, err := expr.Eval(expression, map[string]interface{}{})
	if err != nil {
		return nil, false
	}
	return result, true
}

type variableVisitor struct {
	hasVariables bool
}

func (v *variableVisitor) Visit(node *exprast.Node) {
	switch (*node).(type) {
	case *exprast.IdentifierNode, *exprast.MemberNode, *exprast.PointerNode, *exprast.VariableDeclaratorNode, *exprast.PredicateNode, *exprast.CallNode:
		v.hasVariables = true
	}
}

// https://html.spec.whatwg.org/#void-elements
func isVoidElement(name string) bool {
	switch strings.ToLower(name) {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "source", "track", "wbr":
		return true
	}
	return false
}
