// Package dom is an in-memory typhoon.Host backed by golang.org/x/net/html
// node trees. It dispatches events synchronously and renders trees to HTML,
// which makes it the host of choice for tests and CLI previews.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/typhoon/typhoon-go"
)

var (
	tagPattern  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)
	attrPattern = regexp.MustCompile(`^[^\s"'>/=\x00-\x1f\x7f]+$`)
)

// Document owns a node tree and the listeners attached to its elements.
// Node handles handed out by the document are *html.Node values.
type Document struct {
	root      *html.Node
	body      *html.Node
	listeners map[*html.Node][]listener
}

type listener struct {
	kind typhoon.EventKind
	fn   func(typhoon.Event)
}

// NewDocument creates an empty document with html, head and body elements.
func NewDocument() *Document {
	root, err := html.Parse(strings.NewReader(""))
	if err != nil {
		panic(fmt.Errorf("dom: parsing empty document: %w", err))
	}
	d := &Document{root: root, listeners: make(map[*html.Node][]listener)}
	d.body = find(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	return d
}

// Body returns the body element, the default mount point.
func (d *Document) Body() *html.Node {
	return d.body
}

// CreateElement implements typhoon.Host.
func (d *Document) CreateElement(tag string) (typhoon.Node, error) {
	if !tagPattern.MatchString(tag) {
		return nil, &typhoon.ConstructionError{Op: "create", Target: tag, Err: typhoon.ErrInvalidTag}
	}
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}, nil
}

// SetText replaces every child of n with a single text node.
func (d *Document) SetText(n typhoon.Node, text string) {
	el := element(n)
	if el == nil {
		return
	}
	removeChildren(el)
	if isVoidElement(el.Data) {
		return
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// SetClass implements typhoon.Host.
func (d *Document) SetClass(n typhoon.Node, class string) {
	if el := element(n); el != nil {
		setAttr(el, "class", class)
	}
}

// SetStyle implements typhoon.Host.
func (d *Document) SetStyle(n typhoon.Node, style string) {
	if el := element(n); el != nil {
		setAttr(el, "style", style)
	}
}

// SetAttribute implements typhoon.Host.
func (d *Document) SetAttribute(n typhoon.Node, name, value string) error {
	el := element(n)
	if el == nil {
		return &typhoon.ConstructionError{Op: "attribute", Target: name, Err: typhoon.ErrNilNode}
	}
	if !attrPattern.MatchString(name) {
		return &typhoon.ConstructionError{Op: "attribute", Target: name, Err: typhoon.ErrInvalidAttribute}
	}
	setAttr(el, name, value)
	return nil
}

// AppendChild implements typhoon.Host. A child that already has a parent is
// moved.
func (d *Document) AppendChild(parent, child typhoon.Node) error {
	p, c := element(parent), element(child)
	if p == nil || c == nil {
		return &typhoon.ConstructionError{Op: "append", Err: typhoon.ErrNilNode}
	}
	if isVoidElement(p.Data) {
		return &typhoon.ConstructionError{Op: "append", Target: p.Data, Err: typhoon.ErrVoidElement}
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	p.AppendChild(c)
	return nil
}

// AppendText implements typhoon.Host. Text appended to a void element is
// dropped.
func (d *Document) AppendText(parent typhoon.Node, text string) {
	p := element(parent)
	if p == nil || isVoidElement(p.Data) {
		return
	}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// AddEventListener implements typhoon.Host.
func (d *Document) AddEventListener(n typhoon.Node, kind typhoon.EventKind, fn func(typhoon.Event)) {
	el := element(n)
	if el == nil || fn == nil {
		return
	}
	d.listeners[el] = append(d.listeners[el], listener{kind: kind, fn: fn})
}

// ClearChildren implements typhoon.Container.
func (d *Document) ClearChildren(n typhoon.Node) error {
	el := element(n)
	if el == nil {
		return &typhoon.ConstructionError{Op: "clear", Err: typhoon.ErrNilNode}
	}
	removeChildren(el)
	return nil
}

// Dispatch calls the listeners of ev.Kind attached to n in attach order and
// reports how many ran.
func (d *Document) Dispatch(n typhoon.Node, ev typhoon.Event) int {
	el := element(n)
	if el == nil {
		return 0
	}
	// Listeners attached while dispatching wait for the next event.
	ls := d.listeners[el]
	count := 0
	for _, l := range ls {
		if l.kind == ev.Kind {
			l.fn(ev)
			count++
		}
	}
	return count
}

// Click dispatches a click event.
func (d *Document) Click(n typhoon.Node) int {
	return d.Dispatch(n, typhoon.Event{Kind: typhoon.Click})
}

// Type sets the value attribute of an input control to text and dispatches
// an input event carrying it.
func (d *Document) Type(n typhoon.Node, text string) int {
	if el := element(n); el != nil {
		setAttr(el, "value", text)
	}
	return d.Dispatch(n, typhoon.Event{Kind: typhoon.Input, Value: text})
}

// Press dispatches a keydown event for key.
func (d *Document) Press(n typhoon.Node, key string) int {
	return d.Dispatch(n, typhoon.Event{Kind: typhoon.Keydown, Value: key})
}

// Mount appends n to the body.
func (d *Document) Mount(n typhoon.Node) error {
	return d.AppendChild(d.body, n)
}

// MountTo appends n to the element with the given id.
func (d *Document) MountTo(id string, n typhoon.Node) error {
	target := d.GetElementByID(id)
	if target == nil {
		return &typhoon.ConstructionError{Op: "mount", Target: id, Err: fmt.Errorf("no element with id %q", id)}
	}
	return d.AppendChild(target, n)
}

// GetElementByID finds the first element in the document whose id attribute
// equals id.
func (d *Document) GetElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	return find(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
}

// Render writes the HTML serialization of n to w.
func Render(w io.Writer, n typhoon.Node) error {
	el := element(n)
	if el == nil {
		return typhoon.ErrNilNode
	}
	return html.Render(w, el)
}

// HTML returns the HTML serialization of n.
func HTML(n typhoon.Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Text returns the concatenated text content of n.
func Text(n typhoon.Node) string {
	el := element(n)
	if el == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)
	return sb.String()
}

// Attr returns the value of attribute key on n, or "".
func Attr(n typhoon.Node, key string) string {
	el := element(n)
	if el == nil {
		return ""
	}
	return attr(el, key)
}

func element(n typhoon.Node) *html.Node {
	el, _ := n.(*html.Node)
	return el
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
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
