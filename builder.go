package typhoon

import (
	"errors"
	"fmt"
)

// Builder issues construction calls against a Host and remembers the first
// error. Once an error is recorded every further call is a no-op, so a
// compiled procedure can emit a flat call sequence and check once at the end.
type Builder struct {
	host Host
	err  error
}

// NewBuilder returns a Builder writing to host.
func NewBuilder(host Host) *Builder {
	return &Builder{host: host}
}

// Host returns the underlying host.
func (b *Builder) Host() Host {
	return b.host
}

// Err returns the first recorded error.
func (b *Builder) Err() error {
	return b.err
}

// Fail records err unless an earlier error is already recorded.
func (b *Builder) Fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Element creates an element for tag.
func (b *Builder) Element(tag string) Node {
	if b.err != nil {
		return nil
	}
	n, err := b.host.CreateElement(tag)
	if err != nil {
		b.Fail(asConstruction("create", tag, err))
		return nil
	}
	return n
}

// Text sets the text content of n to the formatted value.
func (b *Builder) Text(n Node, value interface{}) {
	if b.err != nil {
		return
	}
	b.host.SetText(n, fmt.Sprint(value))
}

// Class replaces the class of n.
func (b *Builder) Class(n Node, class string) {
	if b.err != nil {
		return
	}
	b.host.SetClass(n, class)
}

// Style sets the inline style of n.
func (b *Builder) Style(n Node, style string) {
	if b.err != nil {
		return
	}
	b.host.SetStyle(n, style)
}

// Attr sets attribute name on n to the formatted value.
func (b *Builder) Attr(n Node, name string, value interface{}) {
	if b.err != nil {
		return
	}
	if err := b.host.SetAttribute(n, name, fmt.Sprint(value)); err != nil {
		b.Fail(asConstruction("attribute", name, err))
	}
}

// OnClick attaches a click handler.
func (b *Builder) OnClick(n Node, fn func()) {
	if b.err != nil {
		return
	}
	if fn == nil {
		b.Fail(&ConstructionError{Op: "listen", Target: Click.String(), Err: fmt.Errorf("nil handler")})
		return
	}
	b.host.AddEventListener(n, Click, func(Event) { fn() })
}

// OnInput attaches an input handler receiving the control's current text.
func (b *Builder) OnInput(n Node, fn func(string)) {
	b.listen(n, Input, fn)
}

// OnKeydown attaches a keydown handler receiving the key name.
func (b *Builder) OnKeydown(n Node, fn func(string)) {
	b.listen(n, Keydown, fn)
}

// On attaches a raw event listener.
func (b *Builder) On(n Node, kind EventKind, fn func(Event)) {
	if b.err != nil {
		return
	}
	if fn == nil {
		b.Fail(&ConstructionError{Op: "listen", Target: kind.String(), Err: fmt.Errorf("nil handler")})
		return
	}
	b.host.AddEventListener(n, kind, fn)
}

func (b *Builder) listen(n Node, kind EventKind, fn func(string)) {
	if b.err != nil {
		return
	}
	if fn == nil {
		b.Fail(&ConstructionError{Op: "listen", Target: kind.String(), Err: fmt.Errorf("nil handler")})
		return
	}
	b.host.AddEventListener(n, kind, func(ev Event) { fn(ev.Value) })
}

// Append appends child to parent.
func (b *Builder) Append(parent, child Node) {
	if b.err != nil {
		return
	}
	if err := b.host.AppendChild(parent, child); err != nil {
		b.Fail(asConstruction("append", "", err))
	}
}

// AppendText appends a text node to parent.
func (b *Builder) AppendText(parent Node, text string) {
	if b.err != nil {
		return
	}
	b.host.AppendText(parent, text)
}

// Embed appends an already built node to parent without touching it.
func (b *Builder) Embed(parent, child Node) {
	if b.err != nil {
		return
	}
	if child == nil {
		b.Fail(&ConstructionError{Op: "embed", Err: ErrNilNode})
		return
	}
	if err := b.host.AppendChild(parent, child); err != nil {
		b.Fail(asConstruction("embed", "", err))
	}
}

// Finish returns root, or the first recorded error.
func (b *Builder) Finish(root Node) (Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return root, nil
}

func asConstruction(op, target string, err error) error {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConstructionError{Op: op, Target: target, Err: err}
}
