package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoon/typhoon-go/ast"
)

func TestLintAcceptsCleanTemplate(t *testing.T) {
	tmpl := parseTemplate(t, `div.class("app").id("root") {
	button.onclick(inc).onclick(log) { "+" }
	input.oninput(set).value(name)
	span.text(count.Get())
}`)
	issues := LintTemplateWithOptions(tmpl, "app.tp", LintOptions{FallbackMode: FallbackWarn})
	assert.Empty(t, issues)
}

func TestLintDetectsUnknownDirective(t *testing.T) {
	tmpl := parseTemplate(t, `div.onClick(inc).title("x")`)

	assert.False(t, hasIssue(LintTemplate(tmpl, "a.tp"), CodeUnknownDirective), "ignored by default")

	issues := LintTemplateWithOptions(tmpl, "a.tp", LintOptions{FallbackMode: FallbackWarn})
	require.Len(t, issues, 2)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Contains(t, issues[0].Message, `did you mean "onclick"?`)
	assert.Equal(t, "a.tp", issues[0].File)
	assert.Equal(t, 1, issues[0].Pos.Line)

	issues = LintTemplateWithOptions(tmpl, "a.tp", LintOptions{FallbackMode: FallbackError})
	assert.Equal(t, SeverityError, issues[1].Severity)
}

func TestLintDetectsDuplicateDirective(t *testing.T) {
	tmpl := parseTemplate(t, `p.class("a").class("b")`)
	assert.True(t, hasIssue(LintTemplate(tmpl, "a.tp"), CodeDuplicateDirective))
}

func TestLintDetectsHandlerLiteral(t *testing.T) {
	tmpl := parseTemplate(t, `button.onclick("inc")`)
	issues := LintTemplate(tmpl, "a.tp")
	require.True(t, hasIssue(issues, CodeHandlerLiteral))
	assert.Equal(t, SeverityError, issues[0].Severity)

	tmpl = parseTemplate(t, `button.onclick(handlers.inc)`)
	assert.False(t, hasIssue(LintTemplate(tmpl, "a.tp"), CodeHandlerLiteral))
}

func TestLintDetectsDuplicateID(t *testing.T) {
	tmpl := parseTemplate(t, `div { p.id("x") p.id("y") p.id("x") p.id(dynamic) }`)
	issues := LintTemplate(tmpl, "a.tp")
	require.Len(t, issues, 1)
	assert.Equal(t, CodeDuplicateID, issues[0].Code)
	assert.Contains(t, issues[0].Message, "a.tp:1:")
}

func TestLintDetectsVoidChildren(t *testing.T) {
	tmpl := parseTemplate(t, `div { img { "caption" } br }`)
	issues := LintTemplate(tmpl, "a.tp")
	require.Len(t, issues, 1)
	assert.Equal(t, CodeVoidChildren, issues[0].Code)
}

func TestLintDetectsInvalidTagAndEmptyText(t *testing.T) {
	tmpl := parseTemplate(t, `div { _x "" }`)
	issues := LintTemplate(tmpl, "a.tp")
	assert.True(t, hasIssue(issues, CodeInvalidTag))
	assert.True(t, hasIssue(issues, CodeEmptyText))
}

func TestParseFallbackMode(t *testing.T) {
	tests := map[string]FallbackMode{
		"":        FallbackIgnore,
		"off":     FallbackIgnore,
		"warning": FallbackWarn,
		" ERR ":   FallbackError,
	}
	for raw, want := range tests {
		got, err := ParseFallbackMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseFallbackMode("loud")
	assert.Error(t, err)
}

func parseTemplate(t *testing.T, src string) *ast.Template {
	t.Helper()

	tmpl, err := ast.Parse("a.tp", src)
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}
	return tmpl
}

func hasIssue(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
