package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/internal/testutils"
)

func TestCompileEndToEndSequence(t *testing.T) {
	proc, err := New().Compile(`div.class("app"){ h1.text("Hi") }`)
	require.NoError(t, err)

	host := testutils.NewRecordingHost()
	root, err := proc.Run(host, nil)
	require.NoError(t, err)

	want := []string{
		`create div`,
		`class div#1 "app"`,
		`create h1`,
		`text h1#2 "Hi"`,
		`append div#1 h1#2`,
	}
	if diff := cmp.Diff(want, host.Calls); diff != "" {
		t.Errorf("construction calls mismatch (-want +got):\n%s", diff)
	}

	div := root.(*testutils.FakeNode)
	assert.Equal(t, "div", div.Tag)
	assert.Equal(t, "app", div.Class)
	require.Len(t, div.Children, 1)
	assert.Equal(t, "Hi", div.Children[0].(*testutils.FakeNode).Text)
}

func TestDirectivesPrecedeChildren(t *testing.T) {
	src := `section.id("s").class("c") {
	ul.style("x") {
		li.text(1)
		li.text(2).title("two")
	}
	"tail"
	p
}`
	proc, err := New().Compile(src)
	require.NoError(t, err)

	host := testutils.NewRecordingHost()
	_, err = proc.Run(host, nil)
	require.NoError(t, err)

	assert.Len(t, host.CallsWithPrefix("create "), 5)
	directiveCalls := 0
	for _, c := range host.Calls {
		switch {
		case strings.HasPrefix(c, "text "), strings.HasPrefix(c, "class "), strings.HasPrefix(c, "style "), strings.HasPrefix(c, "attr "):
			directiveCalls++
		}
	}
	assert.Equal(t, 6, directiveCalls)

	want := []string{
		`create section`,
		`attr section#1 id="s"`,
		`class section#1 "c"`,
		`create ul`,
		`style ul#2 "x"`,
		`create li`,
		`text li#3 "1"`,
		`append ul#2 li#3`,
		`create li`,
		`text li#4 "2"`,
		`attr li#4 title="two"`,
		`append ul#2 li#4`,
		`append section#1 ul#2`,
		`append-text section#1 "tail"`,
		`create p`,
		`append section#1 p#5`,
	}
	if diff := cmp.Diff(want, host.Calls); diff != "" {
		t.Errorf("construction calls mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownDirectiveFallsBackToAttribute(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: `div.title("hello")`, want: `attr div#1 title="hello"`},
		{src: `div.tabindex(3)`, want: `attr div#1 tabindex="3"`},
		{src: `input.disabled(true)`, want: `attr input#1 disabled="true"`},
		{src: `div.Text("case sensitive")`, want: `attr div#1 Text="case sensitive"`},
		{src: `input.value(7)`, want: `attr input#1 value="7"`},
		{src: `input.placeholder("name")`, want: `attr input#1 placeholder="name"`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			host := testutils.NewRecordingHost()
			_, err := New().MustCompile(tt.src).Run(host, nil)
			require.NoError(t, err)
			require.Len(t, host.Calls, 2)
			assert.Equal(t, tt.want, host.Calls[1])
		})
	}
}

func TestExpressionsEvaluateAtRunTime(t *testing.T) {
	proc := New().MustCompile(`p.text(greeting + ", " + name)`)

	host := testutils.NewRecordingHost()
	first, err := proc.Run(host, Env{"greeting": "Hello", "name": "Ada"})
	require.NoError(t, err)
	second, err := proc.Run(host, Env{"greeting": "Bye", "name": "Bob"})
	require.NoError(t, err)

	assert.Equal(t, "Hello, Ada", first.(*testutils.FakeNode).Text)
	assert.Equal(t, "Bye, Bob", second.(*testutils.FakeNode).Text)
}

func TestEventHandlers(t *testing.T) {
	clicks := 0
	var typed, pressed string
	env := Env{
		"inc":   func() { clicks++ },
		"typed": func(v string) { typed = v },
		"key":   func(ev typhoon.Event) { pressed = ev.Value },
	}

	host := testutils.NewRecordingHost()
	root, err := New().MustCompile(`div {
	button.onclick(inc) { "+" }
	input.oninput(typed).onkeydown(key)
}`).Run(host, env)
	require.NoError(t, err)

	div := root.(*testutils.FakeNode)
	button := div.Children[0].(*testutils.FakeNode)
	input := div.Children[1].(*testutils.FakeNode)

	host.Fire(button, typhoon.Click, "")
	host.Fire(button, typhoon.Click, "")
	host.Fire(input, typhoon.Input, "hello")
	host.Fire(input, typhoon.Keydown, "Enter")

	assert.Equal(t, 2, clicks)
	assert.Equal(t, "hello", typed)
	assert.Equal(t, "Enter", pressed)
	assert.Equal(t, []string{"listen button#2 click", "listen input#3 input", "listen input#3 keydown"}, host.CallsWithPrefix("listen "))
}

func TestHandlerOfWrongTypeFails(t *testing.T) {
	host := testutils.NewRecordingHost()
	_, err := New().MustCompile(`button.onclick(label)`).Run(host, Env{"label": "not a func"})
	require.Error(t, err)

	var cerr *typhoon.ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "eval", cerr.Op)

	var eerr *EvalError
	require.True(t, errors.As(err, &eerr))
	assert.Contains(t, eerr.Error(), "onclick expects func()")
}

func TestEmbeddedNodeIsAppendedVerbatim(t *testing.T) {
	host := testutils.NewRecordingHost()
	badge, err := New().MustCompile(`span.text("new")`).Run(host, nil)
	require.NoError(t, err)
	host.Reset()

	root, err := New().MustCompile(`div { (badge) "!" }`).Run(host, Env{"badge": badge})
	require.NoError(t, err)

	assert.Equal(t, []string{`create div`, `append div#2 span#1`, `append-text div#2 "!"`}, host.Calls)
	assert.Same(t, badge, root.(*testutils.FakeNode).Children[0])
}

func TestEmbeddedComponentCall(t *testing.T) {
	host := testutils.NewRecordingHost()
	card := New().MustCompile(`h3.text(title)`)
	env := Env{
		"card": func(title string) (typhoon.Node, error) {
			return card.Run(host, Env{"title": title})
		},
	}

	root, err := New().MustCompile(`div { (card("a")) (card("b")) }`).Run(host, env)
	require.NoError(t, err)

	children := root.(*testutils.FakeNode).Children
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].(*testutils.FakeNode).Text)
	assert.Equal(t, "b", children[1].(*testutils.FakeNode).Text)
}

func TestEmbeddedNilFails(t *testing.T) {
	_, err := New().MustCompile(`div { (missing) }`).Run(testutils.NewRecordingHost(), Env{})
	var cerr *typhoon.ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.ErrorIs(t, err, typhoon.ErrNilNode)
}

func TestHostRefusalAbortsConstruction(t *testing.T) {
	host := testutils.NewRecordingHost()
	host.RefuseTag = "h1"

	root, err := New().MustCompile(`div { h1.text("x") p.text("never") }`).Run(host, nil)
	require.Error(t, err)
	assert.Nil(t, root)

	var cerr *typhoon.ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "create", cerr.Op)
	assert.Equal(t, "h1", cerr.Target)
	assert.ErrorIs(t, err, typhoon.ErrInvalidTag)
	assert.Equal(t, []string{"create div", "create h1"}, host.Calls)
}

func TestAttributeRefusal(t *testing.T) {
	host := testutils.NewRecordingHost()
	host.RefuseAttr = "bad"

	_, err := New().MustCompile(`div.bad(1).title("t")`).Run(host, nil)
	var cerr *typhoon.ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "attribute", cerr.Op)
	assert.Equal(t, "bad", cerr.Target)
	assert.Len(t, host.CallsWithPrefix("attr "), 1)
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		`div {`,
		`div.text(1 +)`,
		`div { (a b c }`,
		`div.class`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := New(WithFilename("view.tp")).Compile(src)
			var cerr *typhoon.CompileError
			require.True(t, errors.As(err, &cerr), "got %v", err)
		})
	}
}

func TestWithEnvChecksIdentifiers(t *testing.T) {
	c := New(WithEnv(Env{"name": ""}))

	_, err := c.Compile(`p.text(name)`)
	require.NoError(t, err)

	_, err = c.Compile(`p.text(nmae)`)
	var cerr *typhoon.CompileError
	require.True(t, errors.As(err, &cerr))
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { New().MustCompile(`div.text(`) })
}

func TestResolveTable(t *testing.T) {
	assert.Equal(t, ActionText, Resolve("text").Action)
	assert.Equal(t, ActionClass, Resolve("class").Action)
	assert.Equal(t, ActionStyle, Resolve("style").Action)
	assert.Equal(t, Resolution{Action: ActionAttr, Attr: "id", Known: true}, Resolve("id"))
	assert.Equal(t, ActionClick, Resolve("onclick").Action)
	assert.Equal(t, ActionInput, Resolve("oninput").Action)
	assert.Equal(t, ActionKeydown, Resolve("onkeydown").Action)
	assert.Equal(t, Resolution{Action: ActionAttr, Attr: "aria-label"}, Resolve("aria-label"))
	assert.Equal(t, Resolution{Action: ActionAttr, Attr: "onClick"}, Resolve("onClick"))

	for _, name := range Directives() {
		assert.True(t, Resolve(name).Known, name)
	}
}

func TestCacheCompilesOnce(t *testing.T) {
	cache := NewCache(nil)

	a, err := cache.Get(`p.text("x")`)
	require.NoError(t, err)
	b, err := cache.Get(`p.text("x")`)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Get(`p.text(`)
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestTp(t *testing.T) {
	host := testutils.NewRecordingHost()
	root, err := Tp(host, `p.text(n * 2)`, Env{"n": 21})
	require.NoError(t, err)
	assert.Equal(t, "42", root.(*testutils.FakeNode).Text)
}
